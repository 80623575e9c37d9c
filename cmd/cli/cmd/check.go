// Package cmd - master data check command
package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"mixquote/core/types"
	"mixquote/core/ui"
	"mixquote/db/ingestion"
	"mixquote/internal/config"
	"mixquote/internal/errors"
	"mixquote/internal/logging"
)

var checkList string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the master workbook and price list before quoting",
	Long: `Load the catalog, recipe and price list and report problems.

Errors (negative prices or quantities, mapped work items without recipe
lines) make the command fail. Warnings point at data worth reviewing.

Examples:
  mixquote check
  mixquote check --list Obra_Norte`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkList, "list", "", "price list to check (default from config)")
}

// checkContract requires every configured product's work items to exist
func checkContract(cfg *config.Config) ingestion.Contract {
	contract := ingestion.DefaultContract()
	seen := make(map[types.WorkItemID]bool)
	add := func(id types.WorkItemID) {
		if id != "" && !seen[id] {
			seen[id] = true
			contract.RequiredWorkItems = append(contract.RequiredWorkItems, id)
		}
	}
	for _, p := range types.Products() {
		m := cfg.ProductMapping(p)
		if !m.Configured() {
			continue
		}
		add(m.ProductionWorkItem)
		for _, id := range m.PlacementWorkItems {
			add(id)
		}
	}
	return contract
}

func runCheck(cmd *cobra.Command, args []string) error {
	if _, err := authenticate(); err != nil {
		return err
	}
	cfg := config.Get()
	listName := checkList
	if listName == "" {
		listName = cfg.Source.PriceList
	}
	if listName != "" {
		if err := ingestion.ValidateListName(listName); err != nil {
			return err
		}
	}

	pipeline := ingestion.NewGovernedPipeline(
		ingestion.NewPipeline(newWorkbookSource(cfg), newOverrideStore(cfg), logging.Named("ingestion")),
		checkContract(cfg),
	)
	_, result, err := pipeline.LoadWithValidation(cmd.Context(), listName)
	if err != nil {
		return err
	}

	out := ui.NewWriter(stdout(cmd), noColor)
	out.Header("Master data check")
	out.Field("Workbook", cfg.Source.Workbook)
	out.Field("Price list", listName)
	table := out.NewTable("Catalog items", "Recipe lines", "Work items", "Price list rows").AlignRight(0, 1, 2, 3)
	table.AddRow(strconv.Itoa(result.CatalogItems), strconv.Itoa(result.RecipeLines), strconv.Itoa(result.WorkItems), strconv.Itoa(result.OverrideRows))
	table.Render()
	out.Field("Fingerprint", result.Checksum[:16])

	for _, w := range result.Warnings {
		out.Warning("%s", w)
	}
	for _, e := range result.Errors {
		out.Error("%s", e)
	}
	if !result.IsValid {
		return errors.Newf(errors.TypeInput, "master data check failed with %d errors", len(result.Errors))
	}
	out.Success("Master data is ready for quoting")
	return nil
}
