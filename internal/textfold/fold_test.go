package textfold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Código", "codigo"},
		{"  DESCRIPCIÓN ", "descripcion"},
		{"precio_unitario", "precio_unitario"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Cemento Pórtland Tipo I", "portland"))
	assert.True(t, Contains("ASFALTO PEN 60/70", "pen 60"))
	assert.False(t, Contains("Arena gruesa", "piedra"))
}
