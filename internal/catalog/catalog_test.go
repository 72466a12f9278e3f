package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pós-Operatório", "posoperatorio"},
		{"posoperatorio", "posoperatorio"},
		{"POS OPERATORIO", "posoperatorio"},
		{"Limpeza de Pele", "limpezadepele"},
		{"Radiofrequência", "radiofrequencia"},
		{"3MH", "3mh"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"Pós-Operatório", "  Hiper  Slim ", "ÇÃO-ção", "Body-Shape", "ﬁne"} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)
	}
}

func TestCatalogSlugsAreNormalizedNames(t *testing.T) {
	for _, p := range All() {
		assert.Equal(t, p.Slug, Normalize(p.Name), p.Name)
	}
}

func TestResolve(t *testing.T) {
	p, ok := Resolve("LIMPEZADEPELE")
	require.True(t, ok)
	assert.Equal(t, "Limpeza de Pele", p.Name)

	p, ok = Resolve("pós operatório")
	require.True(t, ok)
	assert.Equal(t, "posoperatorio", p.Slug)

	_, ok = Resolve("botox")
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Hiper Slim", DisplayName("hiperslim"))
	assert.Equal(t, "BOTOX", DisplayName("botox"))
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Name = "changed"
	assert.Equal(t, "Radiofrequência", All()[0].Name)
}

func TestIsAllowedPrice(t *testing.T) {
	assert.True(t, IsAllowedPrice(decimal.NewFromInt(15)))
	assert.True(t, IsAllowedPrice(decimal.RequireFromString("20.00")))
	assert.False(t, IsAllowedPrice(decimal.RequireFromString("10.5")))
	assert.False(t, IsAllowedPrice(decimal.NewFromInt(25)))
}
