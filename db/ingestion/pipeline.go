// Package ingestion - Pricing data ingestion pipeline
// Strictly separated from costing: read sources → normalize → snapshot
package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mixquote/core/determinism"
	"mixquote/core/types"
	"mixquote/internal/logging"
)

// CatalogSource reads the item catalog and the recipe (ACU) table
type CatalogSource interface {
	// LoadCatalog returns catalog rows in source order
	LoadCatalog(ctx context.Context) ([]types.CatalogEntry, error)

	// LoadRecipe returns recipe lines in source order
	LoadRecipe(ctx context.Context) ([]types.RecipeLine, error)
}

// OverrideLoader reads named price lists
type OverrideLoader interface {
	// Load returns nil and no error when the list does not exist
	Load(ctx context.Context, name string) ([]types.PriceOverride, error)
}

// Snapshot is one consistent read of every pricing input
type Snapshot struct {
	Catalog   []types.CatalogEntry
	Overrides []types.PriceOverride
	Recipe    []types.RecipeLine

	// ListName is the price list the overrides came from
	ListName string

	// Hash fingerprints catalog, overrides and recipe together
	Hash determinism.ContentHash

	LoadedAt time.Time
}

// HasPriceList reports whether a price list was found
func (s *Snapshot) HasPriceList() bool {
	return s.Overrides != nil
}

// Pipeline loads pricing snapshots
type Pipeline struct {
	source    CatalogSource
	overrides OverrideLoader
	logger    *zap.Logger
}

// NewPipeline creates a new ingestion pipeline. overrides may be nil when
// price lists are not in use.
func NewPipeline(source CatalogSource, overrides OverrideLoader, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		source:    source,
		overrides: overrides,
		logger:    logging.OrDefault(logger, "ingestion"),
	}
}

// Load reads catalog, recipe and the named price list. An empty listName
// means no price list.
func (p *Pipeline) Load(ctx context.Context, listName string) (*Snapshot, error) {
	catalog, err := p.source.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog load failed: %w", err)
	}

	recipe, err := p.source.LoadRecipe(ctx)
	if err != nil {
		return nil, fmt.Errorf("recipe load failed: %w", err)
	}

	var overrides []types.PriceOverride
	if listName != "" && p.overrides != nil {
		overrides, err = p.overrides.Load(ctx, listName)
		if err != nil {
			return nil, fmt.Errorf("price list %q load failed: %w", listName, err)
		}
		if overrides == nil {
			p.logger.Info("price list not found, using base prices", zap.String("list", listName))
		}
	}

	snap := &Snapshot{
		Catalog:   catalog,
		Overrides: overrides,
		Recipe:    recipe,
		ListName:  listName,
		Hash:      determinism.Fingerprint(catalog, overrides, recipe),
		LoadedAt:  time.Now().UTC(),
	}

	p.logger.Debug("pricing snapshot loaded",
		zap.Int("catalog_rows", len(catalog)),
		zap.Int("recipe_lines", len(recipe)),
		zap.Int("override_rows", len(overrides)),
		zap.String("hash", snap.Hash.Short()),
	)
	return snap, nil
}

// ParsePrice parses an optional price cell. Blank cells are undefined
// prices, never zero.
func ParsePrice(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.NoPrice(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return types.NoPrice(), err
	}
	return types.Price(d), nil
}

// ParseQuantity parses a required quantity cell
func ParseQuantity(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("quantity is blank")
	}
	return decimal.NewFromString(s)
}
