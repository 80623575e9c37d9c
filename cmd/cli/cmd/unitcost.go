// Package cmd - unit cost and trace commands (administrator)
package cmd

import (
	"github.com/spf13/cobra"

	"mixquote/core/cost"
	"mixquote/core/engine"
	"mixquote/core/output"
	"mixquote/core/types"
	"mixquote/internal/config"
	"mixquote/internal/errors"
)

var unitCostList string

var unitCostCmd = &cobra.Command{
	Use:   "unitcost",
	Short: "Show the unit cost per m³ of every work item (administrator)",
	Args:  cobra.NoArgs,
	RunE:  runUnitCost,
}

var traceCmd = &cobra.Command{
	Use:   "trace <work-item>",
	Short: "Show the recipe lines behind a work item's unit cost (administrator)",
	Long: `Show every recipe line of a work item with the price used, where the
price came from (active price, recipe price or unresolved) and its subtotal.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(unitCostCmd)
	rootCmd.AddCommand(traceCmd)

	for _, c := range []*cobra.Command{unitCostCmd, traceCmd} {
		c.Flags().StringVar(&unitCostList, "list", "", "price list to apply; default from config")
	}
}

func runUnitCost(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(); err != nil {
		return err
	}
	cfg := config.Get()

	eng, err := newEngine(cfg, unitCostList, nil)
	if err != nil {
		return err
	}
	var costing *engine.Costing
	err = withSpinner("Costing work items", func() error {
		costing, err = eng.Costing(cmd.Context())
		return err
	})
	if err != nil {
		return err
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	return formatter.RenderUnitCosts(stdout(cmd), &output.UnitCostReport{
		Result:      costing.Result,
		PriceList:   costing.Snapshot.ListName,
		Fingerprint: costing.Snapshot.Hash.Short(),
	})
}

func runTrace(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(); err != nil {
		return err
	}
	cfg := config.Get()
	id := types.WorkItemID(args[0])

	// unresolved lines are shown in the trace instead of failing the run
	traceCfg := *cfg
	traceCfg.Costing.Strictness = string(cost.StrictnessUndetermined)

	eng, err := newEngine(&traceCfg, unitCostList, nil)
	if err != nil {
		return err
	}
	costing, err := eng.Costing(cmd.Context())
	if err != nil {
		return err
	}

	report := output.NewTraceReport(costing.Result, id, cfg.Output.Currency)
	if len(report.Lines) == 0 {
		return errors.NotFound("work item", id.String())
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	return formatter.RenderTrace(stdout(cmd), report)
}
