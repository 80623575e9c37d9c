package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("Código", "Precio").AlignRight(1)
	table.AddRow("C1", "10.00")
	table.AddRow("Añadido", "1,250.50")
	table.AddRow("X")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Código  │   Precio", lines[0])
	assert.Equal(t, "C1      │    10.00", lines[2])
	assert.Equal(t, "Añadido │ 1,250.50", lines[3])
	assert.Equal(t, "X       │", lines[4])
	assert.Equal(t, 3, table.Len())
}

func TestWriterWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Success("saved %d rows", 3)
	w.Warning("careful")
	w.Field("Client", "ACME")

	out := buf.String()
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "✓ saved 3 rows")
	assert.Contains(t, out, "⚠ careful")
	assert.Contains(t, out, "Client:")
}

func TestVerbosity(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Debug("hidden")
	w.SetVerbosity(0)
	w.Info("hidden too")
	assert.Empty(t, buf.String())

	w.SetVerbosity(2)
	w.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestPriceBox(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	box := w.NewPriceBox("Base")
	box.Price = "S/ 5,970.80"
	box.Subtitle = "incl. tax"
	box.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	for _, l := range lines[1:4] {
		assert.True(t, strings.HasPrefix(l, "│") && strings.HasSuffix(l, "│"), l)
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf, true).NewSpinner("loading")
	s.Start()
	s.Stop(true)
	s.Stop(false)
	assert.Contains(t, buf.String(), "✓ loading")
	assert.NotContains(t, buf.String(), "✗")
}
