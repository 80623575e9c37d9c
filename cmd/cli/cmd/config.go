// Package cmd - configuration commands
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mixquote/core/types"
	"mixquote/internal/config"
)

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (passwords are masked)",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the configuration file so the defaults apply (administrator)",
	Args:  cobra.NoArgs,
	RunE:  runConfigReset,
}

var configSetProductCmd = &cobra.Command{
	Use:   "set-product <MAC|MAF>",
	Short: "Map a product to its production and placement work items (administrator)",
	Long: `Map a product to the recipe work items that cost it.

Examples:
  mixquote config set-product MAC --production 01.01 --placement 02.01,02.02`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetProduct,
}

var configSetPricingCmd = &cobra.Command{
	Use:   "set-pricing",
	Short: "Change pricing parameters in percent (administrator)",
	Long: `Change pricing parameters. Only the given flags are changed.

Examples:
  mixquote config set-pricing --tax 18 --overhead 10 --risk 3
  mixquote config set-pricing --max-discount 7 --transport-mac 0.85`,
	Args: cobra.NoArgs,
	RunE: runConfigSetPricing,
}

var (
	configForce         bool
	productProduction   string
	productPlacement    []string
	pricingTax          float64
	pricingOverhead     float64
	pricingRisk         float64
	pricingBaseMargin   float64
	pricingCompetitive  float64
	pricingMaxDiscount  float64
	pricingTransportMAC float64
	pricingTransportMAF float64
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd, configResetCmd, configSetProductCmd, configSetPricingCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configSetProductCmd.Flags().StringVar(&productProduction, "production", "", "production work item [REQUIRED]")
	configSetProductCmd.Flags().StringSliceVar(&productPlacement, "placement", nil, "placement work items (comma separated)")
	configSetProductCmd.MarkFlagRequired("production")

	f := configSetPricingCmd.Flags()
	f.Float64Var(&pricingTax, "tax", 0, "sales tax %")
	f.Float64Var(&pricingOverhead, "overhead", 0, "overhead % over direct cost")
	f.Float64Var(&pricingRisk, "risk", 0, "risk % over base cost")
	f.Float64Var(&pricingBaseMargin, "base-margin", 0, "base margin %")
	f.Float64Var(&pricingCompetitive, "competitive-margin", 0, "competitive margin %")
	f.Float64Var(&pricingMaxDiscount, "max-discount", 0, "maximum discount % sales may grant")
	f.Float64Var(&pricingTransportMAC, "transport-mac", 0, "MAC transport rate per m³·km")
	f.Float64Var(&pricingTransportMAF, "transport-maf", 0, "MAF transport rate per m³·km")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := *config.Get()
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	cfg.Auth.AdminPassword = mask(cfg.Auth.AdminPassword)
	cfg.Auth.SalesPassword = mask(cfg.Auth.SalesPassword)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "# %s\n%s\n", configPath(), data)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, status, err := config.Load(path); err == nil && status == config.StatusLoaded && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Wrote default configuration to %s\n", path)
	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(); err != nil {
		return err
	}
	cfg, err := config.Reset(configPath())
	if err != nil {
		return err
	}
	config.Set(cfg)
	fmt.Fprintln(stdout(cmd), "Configuration reset to defaults")
	return nil
}

func runConfigSetProduct(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(); err != nil {
		return err
	}
	product, err := types.ParseProduct(args[0])
	if err != nil {
		return err
	}

	m := types.ProductMapping{
		Product:            product,
		ProductionWorkItem: types.WorkItemID(strings.TrimSpace(productProduction)),
	}
	for _, id := range productPlacement {
		if id = strings.TrimSpace(id); id != "" {
			m.PlacementWorkItems = append(m.PlacementWorkItems, types.WorkItemID(id))
		}
	}

	err = editConfigFile(func(cfg *config.Config) error {
		return cfg.SetProductMapping(m)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "%s: production %s, placement %v\n", product, m.ProductionWorkItem, m.PlacementWorkItems)
	return nil
}

func runConfigSetPricing(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(); err != nil {
		return err
	}
	flags := cmd.Flags()
	err := editConfigFile(func(cfg *config.Config) error {
		set := func(name string, dst *float64, value float64) {
			if flags.Changed(name) {
				*dst = value
			}
		}
		set("tax", &cfg.Pricing.TaxPct, pricingTax)
		set("overhead", &cfg.Pricing.OverheadPct, pricingOverhead)
		set("risk", &cfg.Pricing.RiskPct, pricingRisk)
		set("base-margin", &cfg.Pricing.BaseMarginPct, pricingBaseMargin)
		set("competitive-margin", &cfg.Pricing.CompetitiveMarginPct, pricingCompetitive)
		set("max-discount", &cfg.Pricing.MaxDiscountPct, pricingMaxDiscount)
		set("transport-mac", &cfg.Transport.MAC, pricingTransportMAC)
		set("transport-maf", &cfg.Transport.MAF, pricingTransportMAF)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout(cmd), "Pricing parameters saved")
	return nil
}

// editConfigFile applies edit to the stored configuration, without
// environment overrides, saves it and reloads the effective configuration
func editConfigFile(edit func(cfg *config.Config) error) error {
	path := configPath()
	cfg, _, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := edit(cfg); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	effective, _, err := config.Load(path)
	if err != nil {
		return err
	}
	config.Set(effective)
	return nil
}
