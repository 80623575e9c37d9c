// Package cmd - price list commands
package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"mixquote/core/output"
	"mixquote/core/pricing"
	"mixquote/core/types"
	"mixquote/db/ingestion"
	"mixquote/internal/config"
	"mixquote/internal/errors"
	"mixquote/internal/logging"
)

var pricelistCmd = &cobra.Command{
	Use:   "pricelist",
	Short: "Inspect and edit named price lists",
	Long: `A price list overrides catalog prices by item code. Quotes use the
configured list (source.price_list) unless --list is given.

Editing commands require administrator credentials.`,
}

var pricelistShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show catalog prices with the list applied",
	Args:  cobra.NoArgs,
	RunE:  runPricelistShow,
}

var pricelistListsCmd = &cobra.Command{
	Use:   "lists",
	Short: "List saved price lists",
	Args:  cobra.NoArgs,
	RunE:  runPricelistLists,
}

var pricelistSetCmd = &cobra.Command{
	Use:   "set <code> <price>",
	Short: "Set (or clear with '-') the override price of an item (administrator)",
	Long: `Set the override price of one catalog item in a price list and save it.
Use '-' as the price to remove the override so the base price applies.

A list that does not exist yet starts from the current base prices.`,
	Args: cobra.ExactArgs(2),
	RunE: runPricelistSet,
}

var pricelistSaveCmd = &cobra.Command{
	Use:   "save <new-name>",
	Short: "Save the list under a new name (administrator)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPricelistSave,
}

var (
	pricelistName   string
	pricelistFilter string
	pricelistLimit  int
)

func init() {
	rootCmd.AddCommand(pricelistCmd)
	pricelistCmd.AddCommand(pricelistShowCmd, pricelistListsCmd, pricelistSetCmd, pricelistSaveCmd)

	pricelistCmd.PersistentFlags().StringVar(&pricelistName, "list", "", "price list name; default from config")
	pricelistShowCmd.Flags().StringVar(&pricelistFilter, "filter", "", "only items whose code or description contains this text")
	pricelistShowCmd.Flags().IntVar(&pricelistLimit, "limit", 0, "maximum items to show (0 = all)")
}

func selectedList(cfg *config.Config) (string, error) {
	name := pricelistName
	if name == "" {
		name = cfg.Source.PriceList
	}
	if name == "" {
		return "", errors.New(errors.TypeInput, "no price list given and source.price_list is empty")
	}
	if err := ingestion.ValidateListName(name); err != nil {
		return "", err
	}
	return name, nil
}

// loadEditor reads the catalog and the named list into an editor
func loadEditor(cmd *cobra.Command, cfg *config.Config, name string) (editor *pricing.Editor, existed bool, err error) {
	ctx := cmd.Context()
	catalog, err := newWorkbookSource(cfg).LoadCatalog(ctx)
	if err != nil {
		return nil, false, err
	}
	overrides, err := newOverrideStore(cfg).Load(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return pricing.NewEditor(catalog, overrides), overrides != nil, nil
}

func runPricelistShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()
	name, err := selectedList(cfg)
	if err != nil {
		return err
	}

	catalog, err := newWorkbookSource(cfg).LoadCatalog(ctx)
	if err != nil {
		return err
	}
	overrides, err := newOverrideStore(cfg).Load(ctx, name)
	if err != nil {
		return err
	}
	table := pricing.NewResolver(logging.Named("pricing")).Resolve(catalog, overrides)

	total := table.Len()
	shown := table.Filter(pricelistFilter, pricelistLimit)

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	return formatter.RenderPriceList(stdout(cmd), &output.PriceListReport{
		Name:     name,
		Entries:  shown,
		Currency: cfg.Output.Currency,
		Total:    total,
	})
}

func runPricelistLists(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	names, err := newOverrideStore(cfg).List()
	if err != nil {
		return err
	}
	for _, name := range names {
		marker := "  "
		if name == cfg.Source.PriceList {
			marker = "* "
		}
		fmt.Fprintln(stdout(cmd), marker+name)
	}
	return nil
}

// parseOverride parses a price argument; "-" clears the override
func parseOverride(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "-" {
		return types.NoPrice(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return types.NoPrice(), errors.Newf(errors.TypeInput, "%q is not a price", s)
	}
	if d.IsNegative() {
		return types.NoPrice(), errors.Newf(errors.TypeInput, "price %s is negative", d)
	}
	return types.Price(d), nil
}

func runPricelistSet(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(); err != nil {
		return err
	}
	cfg := config.Get()
	name, err := selectedList(cfg)
	if err != nil {
		return err
	}
	price, err := parseOverride(args[1])
	if err != nil {
		return err
	}

	editor, existed, err := loadEditor(cmd, cfg, name)
	if err != nil {
		return err
	}
	code := types.ItemCode(args[0])
	if err := editor.Set(code, price); err != nil {
		return errors.Wrap(errors.TypeInput, "set price", err)
	}
	list, err := editor.Overrides()
	if err != nil {
		return errors.Wrap(errors.TypeInput, "invalid price list", err)
	}
	if err := newOverrideStore(cfg).Save(cmd.Context(), name, list); err != nil {
		return err
	}

	if !existed {
		fmt.Fprintf(stdout(cmd), "Created price list %s from base prices\n", name)
	}
	fmt.Fprintf(stdout(cmd), "Saved %s: %d overrides\n", name, len(list))
	return nil
}

func runPricelistSave(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(); err != nil {
		return err
	}
	cfg := config.Get()
	from, err := selectedList(cfg)
	if err != nil {
		return err
	}
	to := args[0]
	if err := ingestion.ValidateListName(to); err != nil {
		return err
	}

	editor, _, err := loadEditor(cmd, cfg, from)
	if err != nil {
		return err
	}
	list, err := editor.Overrides()
	if err != nil {
		return errors.Wrap(errors.TypeInput, "invalid price list", err)
	}
	if err := newOverrideStore(cfg).Save(cmd.Context(), to, list); err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Saved %s as %s: %d overrides\n", from, to, len(list))
	return nil
}
