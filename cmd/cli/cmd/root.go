// Package cmd provides the CLI commands for mixquote.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mixquote/core/cost"
	"mixquote/core/engine"
	"mixquote/core/output"
	"mixquote/core/types"
	"mixquote/core/ui"
	"mixquote/db/ingestion"
	"mixquote/db/ledger"
	"mixquote/internal/config"
	"mixquote/internal/errors"
	"mixquote/internal/logging"
)

// Version is the CLI version
const Version = "0.1.0"

var (
	cfgFile      string
	verbose      bool
	outputFormat string
	noColor      bool
	authUser     string
	authPassword string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mixquote",
	Short: "Cost and quote asphalt mixes (MAC/MAF)",
	Long: `mixquote prices hot and cold asphalt mix orders from the master costing
workbook: catalog prices, named price lists and per-m³ recipes.

Examples:
  mixquote quote --client "Obras SAC" --product MAC --qty 120
  mixquote quote --product MAF --modality delivered --qty 80 --distance 35 --discount 4
  mixquote unitcost --user admin --password ...
  mixquote pricelist set CEM-01 32.50 --list Base_2026`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mixquote/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json, markdown)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&authUser, "user", "", "user name (or "+config.EnvPrefix+"_USER)")
	rootCmd.PersistentFlags().StringVar(&authPassword, "password", "", "password (or "+config.EnvPrefix+"_PASSWORD)")

	rootCmd.AddCommand(versionCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, status, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.Set(cfg)

	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	if err := logging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	if status == config.StatusDefaults {
		logging.Sugar.Debugf("no config file at %s, using defaults", configPath())
	}
	return nil
}

// authenticate checks the credentials and returns the caller's role
func authenticate() (config.Role, error) {
	user, password := authUser, authPassword
	if user == "" {
		user = os.Getenv(config.EnvPrefix + "_USER")
	}
	if password == "" {
		password = os.Getenv(config.EnvPrefix + "_PASSWORD")
	}
	return config.Get().Authenticate(user, password)
}

// requireAdmin fails unless the credentials belong to the administrator
func requireAdmin() error {
	role, err := authenticate()
	if err != nil {
		return err
	}
	if role != config.RoleAdmin {
		return errors.New(errors.TypeInput, "this command requires administrator credentials")
	}
	return nil
}

func newFormatter() (output.Formatter, error) {
	cfg := config.Get()
	name := outputFormat
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.New(format, output.Options{
		Locale:  cfg.Output.Locale,
		NoColor: noColor || !ui.IsTerminal(os.Stdout),
	})
}

func newWorkbookSource(cfg *config.Config) *ingestion.WorkbookSource {
	return ingestion.NewWorkbookSource(ingestion.WorkbookConfig{
		Path:           cfg.Source.Workbook,
		CatalogSheet:   cfg.Source.CatalogSheet,
		RecipeSheet:    cfg.Source.RecipeSheet,
		CatalogColumns: cfg.Source.CatalogColumns,
		RecipeColumns:  cfg.Source.RecipeColumns,
		DetectColumns:  cfg.Source.DetectColumns,
	}, logging.Named("workbook"))
}

func newOverrideStore(cfg *config.Config) *ingestion.OverrideStore {
	return ingestion.NewOverrideStore(cfg.Source.OverridesDir, logging.Named("overrides"))
}

// newEngine wires the costing engine from the configuration. listName
// overrides the configured price list when not empty.
func newEngine(cfg *config.Config, listName string, recorder engine.Recorder) (*engine.Engine, error) {
	strictness, err := cost.ParseStrictness(cfg.Costing.Strictness)
	if err != nil {
		return nil, errors.Config("costing.strictness", err)
	}
	if listName == "" {
		listName = cfg.Source.PriceList
	}
	if err := ingestion.ValidateListName(listName); listName != "" && err != nil {
		return nil, err
	}

	pipeline := ingestion.NewPipeline(newWorkbookSource(cfg), newOverrideStore(cfg), logging.Named("ingestion"))
	ec := engine.EngineConfig{
		PriceList:  listName,
		Strictness: strictness,
		Params:     cfg.PricingParameters(),
		Mappings:   productMappings(cfg),
	}
	return engine.NewEngine(pipeline, recorder, ec, logging.Named("engine")), nil
}

// openLedger opens the quote ledger when it is enabled
func openLedger(ctx context.Context, cfg *config.Config) (*ledger.Ledger, error) {
	if !cfg.Ledger.Enabled {
		return nil, nil
	}
	return ledger.Open(ctx, cfg.Ledger.Path)
}

func productMappings(cfg *config.Config) map[types.Product]types.ProductMapping {
	out := make(map[types.Product]types.ProductMapping, len(types.Products()))
	for _, p := range types.Products() {
		out[p] = cfg.ProductMapping(p)
	}
	return out
}

// withSpinner runs fn behind a spinner on stderr when it is a terminal
func withSpinner(label string, fn func() error) error {
	if noColor || !ui.IsTerminal(os.Stderr) {
		return fn()
	}
	s := ui.NewWriter(os.Stderr, false).NewSpinner(label)
	s.Start()
	err := fn()
	s.Stop(err == nil)
	return err
}

func stdout(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(stdout(cmd), "mixquote version %s\n", Version)
	},
}
