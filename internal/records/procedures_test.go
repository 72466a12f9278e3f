package records

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEncodeProcedures(t *testing.T) {
	assert.Equal(t, "detox, spa", EncodeProcedures([]string{"spa", "DETOX", "spa", " "}))
	assert.Equal(t, "", EncodeProcedures(nil))
}

func TestDecodeProceduresLegacyForms(t *testing.T) {
	tests := []struct {
		name   string
		column string
		want   []string
	}{
		{"canonical", "detox, spa", []string{"detox", "spa"}},
		{"upper slugs", "LIMPEZADEPELE, POSOPERATORIO", []string{"limpezadepele", "posoperatorio"}},
		{"display names", "Limpeza de Pele, Pós Operatório", []string{"limpezadepele", "posoperatorio"}},
		{"unknown kept", "Botox,detox", []string{"botox", "detox"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeProcedures(tt.column))
		})
	}
}

func TestDisplayProcedures(t *testing.T) {
	assert.Equal(t, "Detox, BOTOX", DisplayProcedures([]string{"detox", "botox"}))
	assert.Equal(t, "N/A", DisplayProcedures(nil))
}

func TestSameContent(t *testing.T) {
	a := Record{
		Date:       time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Patient:    "ANA",
		Procedures: []string{"spa", "detox"},
		Price:      decimal.NewFromInt(10),
		Position:   3,
	}
	b := a
	b.Patient = "ana"
	b.Procedures = []string{"detox", "spa"}
	b.Price = decimal.RequireFromString("10.00")
	b.Position = 7
	assert.True(t, a.SameContent(b))

	b.Price = decimal.NewFromInt(15)
	assert.False(t, a.SameContent(b))
}
