package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTypeThroughWrapping(t *testing.T) {
	base := MissingWorkItemCost("placement", []string{"P2", "P3"})
	wrapped := fmt.Errorf("quote MAC: %w", base)

	assert.True(t, IsType(wrapped, TypeMissingWorkItemCost))
	assert.False(t, IsType(wrapped, TypeUnconfiguredProduct))
	assert.False(t, IsType(fmt.Errorf("plain"), TypeMissingWorkItemCost))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, []string{"P2", "P3"}, e.Context["work_items"])
	assert.Contains(t, e.Error(), "P2, P3")
}

func TestStandardIsMatchesIdentity(t *testing.T) {
	base := Input("bad quantity")
	other := Input("bad quantity")
	wrapped := fmt.Errorf("quote: %w", base)

	assert.True(t, stderrors.Is(wrapped, base))
	assert.False(t, stderrors.Is(wrapped, other), "same type is not the same error; use IsType")
	assert.True(t, IsType(wrapped, other.Type))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "schema detection",
			err:  SchemaDetection("Insumos_Limpio", []string{"code", "price"}),
			want: `[SCHEMA_DETECTION_FAILURE] sheet "Insumos_Limpio": no column found for code, price`,
		},
		{
			name: "unconfigured product",
			err:  UnconfiguredProduct("MAF"),
			want: "[UNCONFIGURED_PRODUCT] product MAF has no production work item configured",
		},
		{
			name: "unresolved price",
			err:  UnresolvedItemPrice([]string{"P1/X9"}),
			want: "[UNRESOLVED_ITEM_PRICE] no price for item(s): P1/X9",
		},
		{
			name: "wrapped cause",
			err:  Config("read config", fmt.Errorf("boom")),
			want: "[CONFIG_ERROR] read config: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
