package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.log")

	logger, err := New(Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Debug("unit cost", zap.String("work_item", "P1"), Decimal("cost", decimal.RequireFromString("40.50")))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"work_item":"P1"`)
	assert.Contains(t, string(data), `"cost":"40.5"`)
}

func TestOrDefault(t *testing.T) {
	own := zap.NewNop()
	assert.Same(t, own, OrDefault(own, "quote"))
	assert.NotNil(t, OrDefault(nil, "quote"))
}
