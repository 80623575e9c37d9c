// Package engine provides the costing engine.
// CLI is a thin wrapper around this engine.
package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mixquote/core/cost"
	"mixquote/core/pricing"
	"mixquote/core/quote"
	"mixquote/core/types"
	"mixquote/db/ingestion"
	"mixquote/internal/logging"
)

// SnapshotLoader reads a pricing snapshot; implemented by ingestion.Pipeline
type SnapshotLoader interface {
	Load(ctx context.Context, listName string) (*ingestion.Snapshot, error)
}

// Recorder persists issued quotations; implemented by ledger.Ledger
type Recorder interface {
	Record(ctx context.Context, q *quote.Quotation) error
}

// EngineConfig configures the costing engine
type EngineConfig struct {
	// PriceList is the override list applied to catalog prices ("" = none)
	PriceList string

	// Strictness decides what happens to recipe lines without any price
	Strictness cost.Strictness

	Params   types.PricingParameters
	Mappings map[types.Product]types.ProductMapping
}

// Costing is the result of pricing and aggregating one snapshot
type Costing struct {
	Snapshot *ingestion.Snapshot
	Prices   *pricing.PriceTable
	Result   *cost.Result
}

// Fingerprint identifies the snapshot the costing was computed from
func (c *Costing) Fingerprint() string {
	return c.Snapshot.Hash.Hex()
}

// Engine is the primary API for costing and quoting.
// Unit costs are recomputed only when the snapshot fingerprint changes.
type Engine struct {
	loader   SnapshotLoader
	recorder Recorder
	config   EngineConfig
	logger   *zap.Logger

	resolver   *pricing.Resolver
	aggregator *cost.Aggregator
	quoter     *quote.Engine

	mu     sync.Mutex
	cached *Costing
}

// NewEngine creates a costing engine. recorder may be nil to skip the ledger.
func NewEngine(loader SnapshotLoader, recorder Recorder, config EngineConfig, logger *zap.Logger) *Engine {
	logger = logging.OrDefault(logger, "engine")
	if config.Strictness == "" {
		config.Strictness = cost.StrictnessFail
	}
	return &Engine{
		loader:     loader,
		recorder:   recorder,
		config:     config,
		logger:     logger,
		resolver:   pricing.NewResolver(logger),
		aggregator: cost.NewAggregator(config.Strictness, logger),
		quoter:     quote.NewEngine(logger),
	}
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Costing loads the current snapshot and returns its unit costs
func (e *Engine) Costing(ctx context.Context) (*Costing, error) {
	o := NewOrchestrator()
	if err := e.cost(ctx, o); err != nil {
		return nil, err
	}
	return o.Costing()
}

func (e *Engine) cost(ctx context.Context, o *Orchestrator) error {
	if err := o.LoadSnapshot(ctx, e.loader, e.config.PriceList); err != nil {
		return err
	}
	e.mu.Lock()
	cached := e.cached
	e.mu.Unlock()

	if cached != nil && cached.Snapshot.Hash == o.snapshot.Hash {
		e.logger.Debug("reusing unit costs", zap.String("fingerprint", cached.Snapshot.Hash.Short()))
		return o.Adopt(cached)
	}

	if err := o.ResolvePrices(e.resolver); err != nil {
		return err
	}
	if err := o.AggregateCosts(e.aggregator); err != nil {
		return err
	}

	fresh, err := o.Costing()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.cached = fresh
	e.mu.Unlock()

	e.logger.Info("unit costs computed",
		zap.Int("work_items", fresh.Result.UnitCosts.Len()),
		zap.Int("undetermined", len(fresh.Result.Undetermined)),
		zap.Int("overridden_items", fresh.Prices.OverrideCount()),
		zap.String("fingerprint", fresh.Snapshot.Hash.Short()),
	)
	return nil
}

// Quote prices a request and records it in the ledger when one is configured
func (e *Engine) Quote(ctx context.Context, req types.QuoteRequest) (*quote.Quotation, error) {
	if err := quote.ValidateRequest(req); err != nil {
		return nil, err
	}

	o := NewOrchestrator()
	if err := e.cost(ctx, o); err != nil {
		return nil, err
	}

	mapping := e.config.Mappings[req.Product]
	if err := o.Quote(e.quoter, req, mapping, e.config.Params); err != nil {
		return nil, err
	}
	q, err := o.Quotation()
	if err != nil {
		return nil, err
	}

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, q); err != nil {
			return nil, fmt.Errorf("record quotation %s: %w", q.ID, err)
		}
	}

	e.logger.Info("quotation issued",
		zap.String("id", q.ID),
		zap.String("client", req.ClientName),
		zap.String("product", req.Product.String()),
		zap.Bool("needs_approval", q.NeedsApproval()),
	)
	return q, nil
}

// Invalidate drops cached unit costs
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.cached = nil
	e.mu.Unlock()
}
