// Package ingestion - Snapshot governance and validation
package ingestion

import (
	"context"
	"fmt"
	"sort"

	"mixquote/core/types"
)

// Contract defines what a snapshot needs before it is used for quoting
type Contract struct {
	MinCatalogItems int
	MinRecipeLines  int

	// RequiredWorkItems are the work items referenced by product mappings
	RequiredWorkItems []types.WorkItemID
}

// DefaultContract requires a non-empty catalog and recipe
func DefaultContract() Contract {
	return Contract{MinCatalogItems: 1, MinRecipeLines: 1}
}

// ValidationResult contains the validation outcome. Errors make quotes
// fail or come out wrong; warnings point at data worth reviewing.
type ValidationResult struct {
	IsValid  bool
	Errors   []string
	Warnings []string

	CatalogItems int
	RecipeLines  int
	WorkItems    int
	OverrideRows int

	// Checksum is the snapshot fingerprint
	Checksum string
}

// SnapshotValidator validates snapshots against a contract
type SnapshotValidator struct {
	contract Contract
}

// NewSnapshotValidator creates a validator
func NewSnapshotValidator(contract Contract) *SnapshotValidator {
	return &SnapshotValidator{contract: contract}
}

// Validate checks a loaded snapshot
func (v *SnapshotValidator) Validate(s *Snapshot) *ValidationResult {
	result := &ValidationResult{
		IsValid:      true,
		CatalogItems: len(s.Catalog),
		RecipeLines:  len(s.Recipe),
		OverrideRows: len(s.Overrides),
		Checksum:     s.Hash.Hex(),
	}
	fail := func(format string, args ...interface{}) {
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
		result.IsValid = false
	}
	warn := func(format string, args ...interface{}) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(format, args...))
	}

	if len(s.Catalog) < v.contract.MinCatalogItems {
		fail("catalog: only %d items, need %d", len(s.Catalog), v.contract.MinCatalogItems)
	}
	if len(s.Recipe) < v.contract.MinRecipeLines {
		fail("recipe: only %d lines, need %d", len(s.Recipe), v.contract.MinRecipeLines)
	}

	catalog := make(map[types.ItemCode]bool, len(s.Catalog))
	var unpriced int
	for _, item := range s.Catalog {
		code := item.Code.Normalize()
		if catalog[code] {
			warn("catalog: item %s appears more than once, the first row is used", code)
			continue
		}
		catalog[code] = true
		if !item.BasePrice.Valid {
			unpriced++
		} else if item.BasePrice.Decimal.IsNegative() {
			fail("catalog: item %s has negative price %s", code, item.BasePrice.Decimal)
		}
	}
	if unpriced > 0 {
		warn("catalog: %d items have no base price", unpriced)
	}

	for _, ov := range s.Overrides {
		code := ov.Code.Normalize()
		if code != "" && !catalog[code] {
			warn("price list %s: item %s is not in the catalog and is ignored", s.ListName, code)
		}
		if ov.Price.Valid && ov.Price.Decimal.IsNegative() {
			fail("price list %s: item %s has negative price %s", s.ListName, code, ov.Price.Decimal)
		}
	}

	workItems := make(map[types.WorkItemID]bool)
	outside := make(map[types.ItemCode]bool)
	for _, line := range s.Recipe {
		workItems[line.WorkItem] = true
		if line.Quantity.IsNegative() {
			fail("recipe: work item %s item %s has negative quantity %s", line.WorkItem, line.ItemCode, line.Quantity)
		}
		if line.RecipePrice.Valid && line.RecipePrice.Decimal.IsNegative() {
			fail("recipe: work item %s item %s has negative price %s", line.WorkItem, line.ItemCode, line.RecipePrice.Decimal)
		}
		if code := line.ItemCode.Normalize(); !catalog[code] {
			outside[code] = true
		}
	}
	result.WorkItems = len(workItems)

	if len(outside) > 0 {
		codes := make([]string, 0, len(outside))
		for code := range outside {
			codes = append(codes, code.String())
		}
		sort.Strings(codes)
		warn("recipe: %d item codes are not in the catalog and rely on recipe prices: %v", len(codes), codes)
	}

	for _, id := range v.contract.RequiredWorkItems {
		if !workItems[id] {
			fail("recipe: work item %s is mapped to a product but has no recipe lines", id)
		}
	}

	return result
}

// GovernedPipeline wraps Pipeline with governance
type GovernedPipeline struct {
	*Pipeline
	validator *SnapshotValidator
}

// NewGovernedPipeline creates a governed pipeline
func NewGovernedPipeline(p *Pipeline, contract Contract) *GovernedPipeline {
	return &GovernedPipeline{Pipeline: p, validator: NewSnapshotValidator(contract)}
}

// LoadWithValidation loads a snapshot and validates it. The snapshot is
// returned even when validation fails so callers can report on it.
func (p *GovernedPipeline) LoadWithValidation(ctx context.Context, listName string) (*Snapshot, *ValidationResult, error) {
	snap, err := p.Load(ctx, listName)
	if err != nil {
		return nil, nil, err
	}
	return snap, p.validator.Validate(snap), nil
}
