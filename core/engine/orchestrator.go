// Package engine - Costing orchestrator
// Enforces the execution flow of one costing run:
// 1. Pricing snapshot (catalog, price list, recipe)
// 2. Active prices (catalog overridden by the price list)
// 3. Unit costs per work item
// 4. Quotation
package engine

import (
	"context"
	"fmt"

	"mixquote/core/cost"
	"mixquote/core/pricing"
	"mixquote/core/quote"
	"mixquote/core/types"
	"mixquote/db/ingestion"
)

// OrchestrationPhase represents execution phases
type OrchestrationPhase int

const (
	PhaseUninitialized OrchestrationPhase = iota
	PhaseLoaded                           // Snapshot loaded
	PhasePriced                           // Active prices resolved
	PhaseCosted                           // Unit costs aggregated
	PhaseQuoted                           // Quotation built
)

// String returns the phase name
func (p OrchestrationPhase) String() string {
	names := []string{"uninitialized", "loaded", "priced", "costed", "quoted"}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// OrchestrationError is an error during orchestration
type OrchestrationError struct {
	Phase   OrchestrationPhase
	Message string
	Cause   error
}

// PhaseOrderError indicates phases executed out of order
type PhaseOrderError struct {
	Required OrchestrationPhase
	Current  OrchestrationPhase
}

func (e *PhaseOrderError) Error() string {
	return fmt.Sprintf("phase %s required, but current phase is %s", e.Required, e.Current)
}

// Orchestrator drives one costing run. Phases only move forward and each
// step requires the previous one.
type Orchestrator struct {
	phase OrchestrationPhase

	snapshot *ingestion.Snapshot
	prices   *pricing.PriceTable
	result   *cost.Result
	quote    *quote.Quotation

	errors []OrchestrationError
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{phase: PhaseUninitialized}
}

// Phase returns the current phase
func (o *Orchestrator) Phase() OrchestrationPhase {
	return o.phase
}

// PhaseGuard ensures a phase has been completed
func (o *Orchestrator) PhaseGuard(required OrchestrationPhase) error {
	if o.phase < required {
		return &PhaseOrderError{Required: required, Current: o.phase}
	}
	return nil
}

// LoadSnapshot reads source data and the price list
func (o *Orchestrator) LoadSnapshot(ctx context.Context, loader SnapshotLoader, listName string) error {
	if o.phase >= PhaseLoaded {
		return fmt.Errorf("snapshot already loaded")
	}
	snap, err := loader.Load(ctx, listName)
	if err != nil {
		o.recordError(PhaseLoaded, "failed to load pricing snapshot", err)
		return err
	}
	o.snapshot = snap
	o.phase = PhaseLoaded
	return nil
}

// ResolvePrices computes active prices from the loaded snapshot
func (o *Orchestrator) ResolvePrices(resolver *pricing.Resolver) error {
	if err := o.PhaseGuard(PhaseLoaded); err != nil {
		return err
	}
	if o.phase >= PhasePriced {
		return fmt.Errorf("prices already resolved")
	}
	o.prices = resolver.Resolve(o.snapshot.Catalog, o.snapshot.Overrides)
	o.phase = PhasePriced
	return nil
}

// AggregateCosts computes unit costs per work item
func (o *Orchestrator) AggregateCosts(aggregator *cost.Aggregator) error {
	if err := o.PhaseGuard(PhasePriced); err != nil {
		return err
	}
	if o.phase >= PhaseCosted {
		return fmt.Errorf("unit costs already aggregated")
	}
	result, err := aggregator.Aggregate(o.snapshot.Recipe, o.prices)
	if err != nil {
		o.recordError(PhaseCosted, "failed to aggregate unit costs", err)
		return err
	}
	o.result = result
	o.phase = PhaseCosted
	return nil
}

// Adopt skips pricing and aggregation with results computed earlier from a
// snapshot with the same fingerprint
func (o *Orchestrator) Adopt(prev *Costing) error {
	if err := o.PhaseGuard(PhaseLoaded); err != nil {
		return err
	}
	if o.phase >= PhasePriced {
		return fmt.Errorf("prices already resolved")
	}
	if prev.Snapshot.Hash != o.snapshot.Hash {
		return fmt.Errorf("cannot adopt costing from snapshot %s into %s", prev.Snapshot.Hash, o.snapshot.Hash)
	}
	o.prices = prev.Prices
	o.result = prev.Result
	o.phase = PhaseCosted
	return nil
}

// Quote prices a request against the aggregated unit costs
func (o *Orchestrator) Quote(quoter *quote.Engine, req types.QuoteRequest, mapping types.ProductMapping, params types.PricingParameters) error {
	if err := o.PhaseGuard(PhaseCosted); err != nil {
		return err
	}
	if o.phase >= PhaseQuoted {
		return fmt.Errorf("request already quoted")
	}
	q, err := quoter.Quote(req, mapping, o.result.UnitCosts, params)
	if err != nil {
		o.recordError(PhaseQuoted, "failed to quote request", err)
		return err
	}
	q.PriceList = o.snapshot.ListName
	q.Fingerprint = o.snapshot.Hash.Hex()
	o.quote = q
	o.phase = PhaseQuoted
	return nil
}

// Costing returns the costing computed so far
func (o *Orchestrator) Costing() (*Costing, error) {
	if err := o.PhaseGuard(PhaseCosted); err != nil {
		return nil, err
	}
	return &Costing{Snapshot: o.snapshot, Prices: o.prices, Result: o.result}, nil
}

// Quotation returns the built quotation
func (o *Orchestrator) Quotation() (*quote.Quotation, error) {
	if err := o.PhaseGuard(PhaseQuoted); err != nil {
		return nil, err
	}
	return o.quote, nil
}

// Errors returns errors recorded during the run
func (o *Orchestrator) Errors() []OrchestrationError {
	return o.errors
}

func (o *Orchestrator) recordError(phase OrchestrationPhase, msg string, cause error) {
	o.errors = append(o.errors, OrchestrationError{Phase: phase, Message: msg, Cause: cause})
}
