// Package cmd - quotation history commands
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mixquote/core/output"
	"mixquote/core/ui"
	"mixquote/db/ledger"
	"mixquote/internal/config"
	"mixquote/internal/errors"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List issued quotations (requires ledger.enabled)",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <quote-id>",
	Short: "Show a recorded quotation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of quotations to list (0 = all)")
}

func requireLedger(cmd *cobra.Command) (*ledger.Ledger, error) {
	cfg := config.Get()
	l, err := openLedger(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, errors.New(errors.TypeConfig, "the quotation ledger is disabled (set ledger.enabled)")
	}
	return l, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	if _, err := authenticate(); err != nil {
		return err
	}
	l, err := requireLedger(cmd)
	if err != nil {
		return err
	}
	defer l.Close()

	entries, err := l.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if outputFormat == string(output.FormatJSON) {
		if entries == nil {
			entries = []ledger.Entry{}
		}
		enc := json.NewEncoder(stdout(cmd))
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	formatHistory(stdout(cmd), entries, config.Get().Output.Locale)
	return nil
}

// formatHistory prints ledger entries as a table
func formatHistory(w io.Writer, entries []ledger.Entry, locale string) {
	out := ui.NewWriter(w, true)
	if len(entries) == 0 {
		out.Println("No quotations recorded.")
		return
	}

	nums := output.NewNumbers(locale)
	table := out.NewTable("ID", "Issued", "Client", "Product", "Modality", "m³", "Base price", "Approval").
		AlignRight(5, 6)
	for _, e := range entries {
		approval := ""
		if e.NeedsApproval {
			approval = "pending"
		}
		table.AddRow(
			e.ID[:min(8, len(e.ID))],
			e.IssuedAt.Local().Format("2006-01-02 15:04"),
			e.ClientName,
			e.Product.String(),
			e.Modality.String(),
			nums.Quantity(e.QuantityM3),
			nums.NullMoney(e.BasePrice, e.Currency),
			approval,
		)
	}
	table.Render()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	role, err := authenticate()
	if err != nil {
		return err
	}
	l, err := requireLedger(cmd)
	if err != nil {
		return err
	}
	defer l.Close()

	q, err := l.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	if err := formatter.RenderQuote(stdout(cmd), &output.QuoteReport{
		Quotation: q,
		ShowTax:   q.Request.ShowTax,
		ShowCosts: role == config.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("render quotation %s: %w", q.ID, err)
	}
	return nil
}
