package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixquote/core/types"
	"mixquote/internal/errors"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, status, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, StatusDefaults, status)
	assert.Equal(t, Default().Pricing, cfg.Pricing)
	assert.Equal(t, "Base_2026", cfg.Source.PriceList)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := Default()
	cfg.Pricing.TaxPct = 0
	cfg.Transport.MAC = 0.35
	require.NoError(t, cfg.SetProductMapping(types.ProductMapping{
		Product:            types.ProductMAC,
		ProductionWorkItem: "01.01",
		PlacementWorkItems: []types.WorkItemID{"02.01", "02.02"},
	}))
	require.NoError(t, cfg.Save(path))

	loaded, status, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, status)
	assert.Equal(t, float64(0), loaded.Pricing.TaxPct, "an explicit zero is kept, not replaced by the default")
	assert.Equal(t, 0.35, loaded.Transport.MAC)

	m := loaded.ProductMapping(types.ProductMAC)
	assert.Equal(t, types.WorkItemID("01.01"), m.ProductionWorkItem)
	assert.Equal(t, []types.WorkItemID{"02.01", "02.02"}, m.PlacementWorkItems)
	assert.False(t, loaded.ProductMapping(types.ProductMAF).Configured())
}

func TestLoadPartialFileKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pricing": {"tax_pct": 16}}`), 0644))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16.0, cfg.Pricing.TaxPct)
	assert.Equal(t, 10.0, cfg.Pricing.OverheadPct)
	assert.Equal(t, "admin", cfg.Auth.AdminUser)
}

func TestLoadFileIgnoresEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pricing": {"tax_pct": 16}}`), 0644))
	t.Setenv("MIXQUOTE_PRICING_TAX_PCT", "0")

	effective, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, effective.Pricing.TaxPct)

	stored, status, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, status)
	assert.Equal(t, 16.0, stored.Pricing.TaxPct)
	assert.Equal(t, 10.0, stored.Pricing.OverheadPct)
}

func TestLoadCorruptFileFails(t *testing.T) {
	tests := map[string]string{
		"malformed json":     `{"pricing": `,
		"out of range":       `{"pricing": {"max_discount_pct": 80}}`,
		"unknown strictness": `{"costing": {"strictness": "lenient"}}`,
		"unknown format":     `{"output": {"default_format": "pdf"}}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			cfg, _, err := Load(path)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.IsType(err, errors.TypeConfig))
		})
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("MIXQUOTE_PRICING_RISK_PCT", "5")
	cfg, _, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Pricing.RiskPct)
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Pricing.BaseMarginPct = 40
	require.NoError(t, cfg.Save(path))

	reset, err := Reset(path)
	require.NoError(t, err)
	assert.Equal(t, 15.0, reset.Pricing.BaseMarginPct)

	_, status, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StatusDefaults, status)

	_, err = Reset(path)
	assert.NoError(t, err, "resetting twice is fine")
}

func TestPricingParametersAreFractions(t *testing.T) {
	cfg := Default()
	cfg.Transport.MAF = 0.4
	p := cfg.PricingParameters()

	assert.True(t, p.TaxRate.Equal(decimal.RequireFromString("0.18")))
	assert.True(t, p.OverheadRate.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, p.RiskRate.Equal(decimal.RequireFromString("0.03")))
	assert.True(t, p.MaxDiscountRate.Equal(decimal.RequireFromString("0.05")))
	maf, ok := p.TransportRate(types.ProductMAF)
	require.True(t, ok)
	assert.True(t, maf.Equal(decimal.RequireFromString("0.4")))
	mac, ok := p.TransportRate(types.ProductMAC)
	require.True(t, ok, "a configured zero rate is still a rate")
	assert.True(t, mac.IsZero())
}

func TestAuthenticate(t *testing.T) {
	cfg := Default()

	role, err := cfg.Authenticate("admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = cfg.Authenticate("comercial", "user123")
	require.NoError(t, err)
	assert.Equal(t, RoleSales, role)

	_, err = cfg.Authenticate("admin", "user123")
	assert.Error(t, err)

	cfg.Auth.SalesUser = ""
	cfg.Auth.SalesPassword = ""
	_, err = cfg.Authenticate("", "")
	assert.Error(t, err, "a blank user never matches")
}

func TestSetProductMappingRejectsUnknownProduct(t *testing.T) {
	err := Default().SetProductMapping(types.ProductMapping{Product: "XYZ"})
	assert.True(t, errors.IsType(err, errors.TypeInput))
}
