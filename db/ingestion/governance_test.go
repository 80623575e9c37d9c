package ingestion

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mixquote/core/types"
)

func governedSnapshot() *Snapshot {
	return &Snapshot{
		Catalog: []types.CatalogEntry{
			{Code: "C1", BasePrice: types.Price(decimal.NewFromInt(10))},
			{Code: "C1", BasePrice: types.Price(decimal.NewFromInt(11))},
			{Code: "N1", BasePrice: types.NoPrice()},
		},
		Overrides: []types.PriceOverride{
			{Code: "ZZ", Price: types.Price(decimal.NewFromInt(1))},
		},
		Recipe: []types.RecipeLine{
			{WorkItem: "P1", ItemCode: "C1", Quantity: decimal.NewFromInt(2)},
			{WorkItem: "P1", ItemCode: "X9", Quantity: decimal.NewFromInt(1), RecipePrice: types.Price(decimal.NewFromInt(3))},
		},
		ListName: "Base_2026",
	}
}

func TestSnapshotValidatorWarnings(t *testing.T) {
	result := NewSnapshotValidator(Contract{
		MinCatalogItems:   1,
		MinRecipeLines:    1,
		RequiredWorkItems: []types.WorkItemID{"P1"},
	}).Validate(governedSnapshot())

	assert.True(t, result.IsValid, "errors: %v", result.Errors)
	assert.Equal(t, 3, result.CatalogItems)
	assert.Equal(t, 2, result.RecipeLines)
	assert.Equal(t, 1, result.WorkItems)
	assert.Len(t, result.Checksum, 64)

	require.Len(t, result.Warnings, 4)
	assert.Contains(t, result.Warnings[0], "C1 appears more than once")
	assert.Contains(t, result.Warnings[1], "1 items have no base price")
	assert.Contains(t, result.Warnings[2], "ZZ is not in the catalog")
	assert.Contains(t, result.Warnings[3], "[X9]")
}

func TestSnapshotValidatorErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Snapshot)
		want   string
	}{
		{
			name:   "empty catalog",
			mutate: func(s *Snapshot) { s.Catalog = nil },
			want:   "catalog: only 0 items",
		},
		{
			name:   "unmapped work item",
			mutate: func(s *Snapshot) { s.Recipe = s.Recipe[:0] },
			want:   "work item P1 is mapped",
		},
		{
			name:   "negative quantity",
			mutate: func(s *Snapshot) { s.Recipe[0].Quantity = decimal.NewFromInt(-1) },
			want:   "negative quantity",
		},
		{
			name:   "negative override",
			mutate: func(s *Snapshot) { s.Overrides[0].Price = types.Price(decimal.NewFromInt(-5)) },
			want:   "price list Base_2026: item ZZ has negative price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := governedSnapshot()
			tt.mutate(s)
			result := NewSnapshotValidator(Contract{
				MinCatalogItems:   1,
				RequiredWorkItems: []types.WorkItemID{"P1"},
			}).Validate(s)

			assert.False(t, result.IsValid)
			joined := ""
			for _, e := range result.Errors {
				joined += e + "\n"
			}
			assert.Contains(t, joined, tt.want)
		})
	}
}

func TestGovernedPipeline(t *testing.T) {
	src := NewWorkbookSource(WorkbookConfig{Path: writeWorkbook(t, masterSheets())}, zap.NewNop())
	p := NewGovernedPipeline(NewPipeline(src, nil, zap.NewNop()), DefaultContract())

	snap, result, err := p.LoadWithValidation(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, result.IsValid)
	assert.Equal(t, snap.Hash.Hex(), result.Checksum)
}
