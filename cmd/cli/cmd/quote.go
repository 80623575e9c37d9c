// Package cmd - quote command
package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"mixquote/core/engine"
	"mixquote/core/output"
	"mixquote/core/quote"
	"mixquote/core/types"
	"mixquote/internal/config"
	"mixquote/internal/errors"
	"mixquote/internal/logging"
)

var (
	quoteClient    string
	quoteProduct   string
	quoteModality  string
	quoteQty       string
	quoteDistance  string
	quoteDiscount  string
	quoteCurrency  string
	quoteShowTax   bool
	quoteShowCosts bool
	quoteList      string
	quoteNotes     string
	quoteExport    string
)

// quoteCmd prices an order
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote an asphalt mix order",
	Long: `Compute the cost build-up of an order and its price alternatives:
base, competitive and special (with the proposed discount).

A discount above the configured maximum produces a special alternative
without prices that requires administrator approval.

Examples:
  mixquote quote --client "Obras SAC" --product MAC --qty 120
  mixquote quote --product MAC --modality placed --qty 60 --discount 3
  mixquote quote --product MAF --modality delivered --qty 80 --distance 35 --export quote.xlsx`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVarP(&quoteClient, "client", "c", "", "client name")
	quoteCmd.Flags().StringVarP(&quoteProduct, "product", "p", "MAC", "product (MAC, MAF)")
	quoteCmd.Flags().StringVarP(&quoteModality, "modality", "m", "plant", "modality (plant, delivered, placed)")
	quoteCmd.Flags().StringVarP(&quoteQty, "qty", "q", "", "volume in m³ [REQUIRED]")
	quoteCmd.Flags().StringVar(&quoteDistance, "distance", "0", "haul distance in km (delivered and placed)")
	quoteCmd.Flags().StringVar(&quoteDiscount, "discount", "0", "proposed special discount in percent")
	quoteCmd.Flags().StringVar(&quoteCurrency, "currency", "", "currency (PEN, USD); default from config")
	quoteCmd.Flags().BoolVar(&quoteShowTax, "tax", true, "show prices including tax")
	quoteCmd.Flags().BoolVar(&quoteShowCosts, "show-costs", false, "show the internal cost build-up (administrator)")
	quoteCmd.Flags().StringVar(&quoteList, "list", "", "price list to apply; default from config")
	quoteCmd.Flags().StringVar(&quoteNotes, "notes", "", "free-text notes")
	quoteCmd.Flags().StringVar(&quoteExport, "export", "", "also write the quotation to an .xlsx file")

	quoteCmd.MarkFlagRequired("qty")
}

// parseAmount parses a non-empty decimal flag
func parseAmount(flag, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, errors.Newf(errors.TypeInput, "--%s: %q is not a number", flag, value)
	}
	return d, nil
}

// buildRequest turns command flags into a quote request
func buildRequest(cmd *cobra.Command, cfg *config.Config) (types.QuoteRequest, error) {
	var req types.QuoteRequest

	product, err := types.ParseProduct(quoteProduct)
	if err != nil {
		return req, errors.Wrap(errors.TypeInput, "--product", err)
	}
	modality, err := types.ParseModality(quoteModality)
	if err != nil {
		return req, errors.Wrap(errors.TypeInput, "--modality", err)
	}
	currency := cfg.Output.Currency
	if quoteCurrency != "" {
		if currency, err = types.ParseCurrency(quoteCurrency); err != nil {
			return req, errors.Wrap(errors.TypeInput, "--currency", err)
		}
	}
	qty, err := parseAmount("qty", quoteQty)
	if err != nil {
		return req, err
	}
	distance, err := parseAmount("distance", quoteDistance)
	if err != nil {
		return req, err
	}
	discountPct, err := parseAmount("discount", quoteDiscount)
	if err != nil {
		return req, err
	}

	showTax := cfg.Output.ShowTax
	if cmd.Flags().Changed("tax") {
		showTax = quoteShowTax
	}

	return types.QuoteRequest{
		ClientName:           strings.TrimSpace(quoteClient),
		Product:              product,
		Modality:             modality,
		Currency:             currency,
		QuantityM3:           qty,
		DistanceKm:           distance,
		ShowTax:              showTax,
		ProposedDiscountRate: discountPct.Div(decimal.NewFromInt(100)),
		Notes:                quoteNotes,
	}, nil
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()

	role, err := authenticate()
	if err != nil {
		return err
	}
	if quoteShowCosts && role != config.RoleAdmin {
		return errors.New(errors.TypeInput, "--show-costs requires administrator credentials")
	}

	req, err := buildRequest(cmd, cfg)
	if err != nil {
		return err
	}

	var recorder engine.Recorder
	l, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	if l != nil {
		defer l.Close()
		recorder = l
	}

	eng, err := newEngine(cfg, quoteList, recorder)
	if err != nil {
		return err
	}
	var q *quote.Quotation
	err = withSpinner("Pricing "+req.Product.String(), func() error {
		q, err = eng.Quote(ctx, req)
		return err
	})
	if err != nil {
		return err
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	report := &output.QuoteReport{Quotation: q, ShowTax: req.ShowTax, ShowCosts: quoteShowCosts}
	if err := formatter.RenderQuote(stdout(cmd), report); err != nil {
		return err
	}

	if quoteExport != "" {
		if err := output.WriteExcel(quoteExport, report); err != nil {
			return err
		}
		logging.Info("quotation exported")
		if formatter.Format() == output.FormatCLI {
			fmt.Fprintf(stdout(cmd), "\nExported to %s\n", quoteExport)
		}
	}
	return nil
}
