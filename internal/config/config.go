// Package config provides configuration management.
package config

import (
	"crypto/subtle"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"mixquote/core/cost"
	"mixquote/core/types"
	"mixquote/db/ingestion"
	"mixquote/internal/errors"
	"mixquote/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. MIXQUOTE_PRICING_TAX_PCT
const EnvPrefix = "MIXQUOTE"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" mapstructure:"version"`

	// Auth holds the two access roles
	Auth AuthConfig `json:"auth" mapstructure:"auth"`

	// Pricing contains the quotation rates, in percent
	Pricing PricingConfig `json:"pricing" mapstructure:"pricing"`

	// Transport contains the m3k transport rates
	Transport TransportConfig `json:"transport" mapstructure:"transport"`

	// Products maps each product to its work items
	Products ProductsConfig `json:"products" mapstructure:"products"`

	// Source locates the master workbook and price lists
	Source SourceConfig `json:"source" mapstructure:"source"`

	// Costing contains unit cost aggregation settings
	Costing CostingConfig `json:"costing" mapstructure:"costing"`

	// Output contains output configuration
	Output OutputConfig `json:"output" mapstructure:"output"`

	// Ledger contains quote history settings
	Ledger LedgerConfig `json:"ledger" mapstructure:"ledger"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" mapstructure:"logging"`
}

// AuthConfig holds the administrator and sales credentials
type AuthConfig struct {
	AdminUser     string `json:"admin_user" mapstructure:"admin_user"`
	AdminPassword string `json:"admin_password" mapstructure:"admin_password"`
	SalesUser     string `json:"sales_user" mapstructure:"sales_user"`
	SalesPassword string `json:"sales_password" mapstructure:"sales_password"`
}

// PricingConfig holds rates as percentages (18 means 18%)
type PricingConfig struct {
	TaxPct               float64 `json:"tax_pct" mapstructure:"tax_pct"`
	OverheadPct          float64 `json:"overhead_pct" mapstructure:"overhead_pct"`
	RiskPct              float64 `json:"risk_pct" mapstructure:"risk_pct"`
	BaseMarginPct        float64 `json:"base_margin_pct" mapstructure:"base_margin_pct"`
	CompetitiveMarginPct float64 `json:"competitive_margin_pct" mapstructure:"competitive_margin_pct"`

	// MaxDiscountPct is the largest discount sales may grant without approval
	MaxDiscountPct float64 `json:"max_discount_pct" mapstructure:"max_discount_pct"`
}

// TransportConfig holds the cost per m3 per km of each product
type TransportConfig struct {
	MAC float64 `json:"mac" mapstructure:"mac"`
	MAF float64 `json:"maf" mapstructure:"maf"`
}

// ProductConfig ties a product to work items of the recipe table
type ProductConfig struct {
	ProductionWorkItem string   `json:"production_work_item" mapstructure:"production_work_item"`
	PlacementWorkItems []string `json:"placement_work_items" mapstructure:"placement_work_items"`
}

// ProductsConfig has one entry per product
type ProductsConfig struct {
	MAC ProductConfig `json:"mac" mapstructure:"mac"`
	MAF ProductConfig `json:"maf" mapstructure:"maf"`
}

// SourceConfig locates pricing inputs
type SourceConfig struct {
	// Workbook is the master .xlsx file
	Workbook     string `json:"workbook" mapstructure:"workbook"`
	CatalogSheet string `json:"catalog_sheet" mapstructure:"catalog_sheet"`
	RecipeSheet  string `json:"recipe_sheet" mapstructure:"recipe_sheet"`

	CatalogColumns ingestion.CatalogColumns `json:"catalog_columns" mapstructure:"catalog_columns"`
	RecipeColumns  ingestion.RecipeColumns  `json:"recipe_columns" mapstructure:"recipe_columns"`

	// DetectColumns guesses headers instead of using the mappings above
	DetectColumns bool `json:"detect_columns" mapstructure:"detect_columns"`

	// OverridesDir holds the price list CSV files
	OverridesDir string `json:"overrides_dir" mapstructure:"overrides_dir"`

	// PriceList is the list used when none is named
	PriceList string `json:"price_list" mapstructure:"price_list"`
}

// CostingConfig contains unit cost settings
type CostingConfig struct {
	// Strictness is "fail" or "undetermined"
	Strictness string `json:"strictness" mapstructure:"strictness"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format" mapstructure:"default_format"`

	// Currency is the default quote currency
	Currency types.Currency `json:"currency" mapstructure:"currency"`

	// ShowTax shows tax-inclusive prices by default
	ShowTax bool `json:"show_tax" mapstructure:"show_tax"`

	// Locale is a BCP 47 tag used for number formatting
	Locale string `json:"locale" mapstructure:"locale"`
}

// LedgerConfig contains quote history settings
type LedgerConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// HomeDir returns the application data directory
func HomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".mixquote"
	}
	return filepath.Join(homeDir, ".mixquote")
}

// DefaultPath returns the default configuration file
func DefaultPath() string {
	return filepath.Join(HomeDir(), "config.json")
}

// Default returns a default configuration
func Default() *Config {
	home := HomeDir()

	return &Config{
		Version: "1.0",
		Auth: AuthConfig{
			AdminUser:     "admin",
			AdminPassword: "admin123",
			SalesUser:     "comercial",
			SalesPassword: "user123",
		},
		Pricing: PricingConfig{
			TaxPct:               18,
			OverheadPct:          10,
			RiskPct:              3,
			BaseMarginPct:        15,
			CompetitiveMarginPct: 12,
			MaxDiscountPct:       5,
		},
		Products: ProductsConfig{
			MAC: ProductConfig{PlacementWorkItems: []string{}},
			MAF: ProductConfig{PlacementWorkItems: []string{}},
		},
		Source: SourceConfig{
			Workbook:       filepath.Join(home, "Documento_Maestro_Costeo_2026.xlsx"),
			CatalogSheet:   ingestion.DefaultCatalogSheet,
			RecipeSheet:    ingestion.DefaultRecipeSheet,
			CatalogColumns: ingestion.DefaultCatalogColumns(),
			RecipeColumns:  ingestion.DefaultRecipeColumns(),
			OverridesDir:   filepath.Join(home, "overrides"),
			PriceList:      ingestion.DefaultPriceList,
		},
		Costing: CostingConfig{
			Strictness: string(cost.StrictnessFail),
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			Currency:      types.CurrencyPEN,
			ShowTax:       true,
			Locale:        "es-PE",
		},
		Ledger: LedgerConfig{
			Enabled: false,
			Path:    filepath.Join(home, "ledger.db"),
		},
		Logging: logging.DefaultConfig(),
	}
}

// LoadStatus tells where a loaded configuration came from
type LoadStatus string

const (
	// StatusLoaded means the file was read
	StatusLoaded LoadStatus = "loaded"

	// StatusDefaults means no file exists and defaults are in use
	StatusDefaults LoadStatus = "defaults"
)

// Load reads the configuration file on top of the defaults, then applies
// MIXQUOTE_* environment overrides. A missing file yields the defaults with
// StatusDefaults; a file that cannot be parsed or fails validation is a
// CONFIG_ERROR, never a silent fallback.
func Load(path string) (*Config, LoadStatus, error) {
	return load(path, true)
}

// LoadFile reads the configuration file on top of the defaults without
// environment overrides. Commands that edit and save the file start from
// this copy so temporary MIXQUOTE_* values are never persisted.
func LoadFile(path string) (*Config, LoadStatus, error) {
	return load(path, false)
}

func load(path string, withEnv bool) (*Config, LoadStatus, error) {
	v := viper.New()
	v.SetConfigType("json")

	if withEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if err := setDefaults(v, Default()); err != nil {
		return nil, "", errors.Internal("config defaults", err)
	}

	status := StatusDefaults
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errors.Config(fmt.Sprintf("read %s", path), err)
		}
		status = StatusLoaded
	} else if !stderrors.Is(err, fs.ErrNotExist) {
		return nil, "", errors.Config(fmt.Sprintf("stat %s", path), err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", errors.Config(fmt.Sprintf("decode %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, status, nil
}

// setDefaults registers every key of cfg so environment overrides apply
// even when the file omits the key
func setDefaults(v *viper.Viper, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return err
	}
	for key, value := range tree {
		v.SetDefault(key, value)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Reset removes the configuration file so the defaults apply again
func Reset(path string) (*Config, error) {
	if err := os.Remove(path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Config("reset", err)
	}
	return Default(), nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	var problems []string
	check := func(name string, value, max float64) {
		if value < 0 || value > max {
			problems = append(problems, fmt.Sprintf("%s must be between 0 and %g, got %g", name, max, value))
		}
	}

	check("pricing.tax_pct", c.Pricing.TaxPct, 30)
	check("pricing.overhead_pct", c.Pricing.OverheadPct, 200)
	check("pricing.risk_pct", c.Pricing.RiskPct, 200)
	check("pricing.base_margin_pct", c.Pricing.BaseMarginPct, 300)
	check("pricing.competitive_margin_pct", c.Pricing.CompetitiveMarginPct, 300)
	check("pricing.max_discount_pct", c.Pricing.MaxDiscountPct, 50)
	if c.Transport.MAC < 0 || c.Transport.MAF < 0 {
		problems = append(problems, "transport rates must not be negative")
	}

	if _, err := cost.ParseStrictness(c.Costing.Strictness); err != nil {
		problems = append(problems, "costing."+err.Error())
	}
	switch c.Output.DefaultFormat {
	case "", "cli", "json", "markdown":
	default:
		problems = append(problems, fmt.Sprintf("output.default_format %q is not cli, json or markdown", c.Output.DefaultFormat))
	}
	if c.Output.Currency != "" {
		if _, err := types.ParseCurrency(string(c.Output.Currency)); err != nil {
			problems = append(problems, "output."+err.Error())
		}
	}
	if c.Source.PriceList != "" {
		if err := ingestion.ValidateListName(c.Source.PriceList); err != nil {
			problems = append(problems, "source.price_list is not a valid list name")
		}
	}

	if len(problems) > 0 {
		return errors.Newf(errors.TypeConfig, "invalid configuration: %s", strings.Join(problems, "; ")).
			WithContext("problems", problems)
	}
	return nil
}

// percent converts a percentage to a fraction
func percent(pct float64) decimal.Decimal {
	return decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
}

// PricingParameters converts the configured percentages to fractions
func (c *Config) PricingParameters() types.PricingParameters {
	return types.PricingParameters{
		TaxRate:               percent(c.Pricing.TaxPct),
		OverheadRate:          percent(c.Pricing.OverheadPct),
		RiskRate:              percent(c.Pricing.RiskPct),
		BaseMarginRate:        percent(c.Pricing.BaseMarginPct),
		CompetitiveMarginRate: percent(c.Pricing.CompetitiveMarginPct),
		MaxDiscountRate:       percent(c.Pricing.MaxDiscountPct),
		TransportRates: map[types.Product]decimal.Decimal{
			types.ProductMAC: decimal.NewFromFloat(c.Transport.MAC),
			types.ProductMAF: decimal.NewFromFloat(c.Transport.MAF),
		},
	}
}

func (c *Config) product(p types.Product) *ProductConfig {
	switch p {
	case types.ProductMAC:
		return &c.Products.MAC
	case types.ProductMAF:
		return &c.Products.MAF
	}
	return nil
}

// ProductMapping returns the work items configured for a product
func (c *Config) ProductMapping(p types.Product) types.ProductMapping {
	m := types.ProductMapping{Product: p}
	pc := c.product(p)
	if pc == nil {
		return m
	}
	m.ProductionWorkItem = types.WorkItemID(strings.TrimSpace(pc.ProductionWorkItem))
	for _, id := range pc.PlacementWorkItems {
		if id = strings.TrimSpace(id); id != "" {
			m.PlacementWorkItems = append(m.PlacementWorkItems, types.WorkItemID(id))
		}
	}
	return m
}

// SetProductMapping replaces the work items of a product
func (c *Config) SetProductMapping(m types.ProductMapping) error {
	pc := c.product(m.Product)
	if pc == nil {
		return errors.Newf(errors.TypeInput, "unknown product %q", m.Product)
	}
	pc.ProductionWorkItem = m.ProductionWorkItem.String()
	pc.PlacementWorkItems = make([]string, 0, len(m.PlacementWorkItems))
	for _, id := range m.PlacementWorkItems {
		pc.PlacementWorkItems = append(pc.PlacementWorkItems, id.String())
	}
	return nil
}

// Role is an access level
type Role string

const (
	// RoleAdmin may edit prices, mappings and view recipe traces
	RoleAdmin Role = "admin"

	// RoleSales may quote
	RoleSales Role = "sales"
)

// Authenticate returns the role matching the credentials
func (c *Config) Authenticate(user, password string) (Role, error) {
	match := func(wantUser, wantPassword string) bool {
		u := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser))
		p := subtle.ConstantTimeCompare([]byte(password), []byte(wantPassword))
		return wantUser != "" && u&p == 1
	}
	switch {
	case match(c.Auth.AdminUser, c.Auth.AdminPassword):
		return RoleAdmin, nil
	case match(c.Auth.SalesUser, c.Auth.SalesPassword):
		return RoleSales, nil
	}
	return "", errors.New(errors.TypeInput, "invalid user or password")
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
