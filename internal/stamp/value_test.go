package stamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.250,00", 1250},
		{"1,250.00", 1250},
		{"42,50", 42.5},
		{"", 0},
		{"abc", 0},
		{"€500", 500},
		{"0.00 €", 0},
		{"ca. 12,50 EUR", 12.5},
		{"1.234.567,89 €", 1234567.89},
		{"$1,234,567.89", 1234567.89},
		{"-3,5", -3.5},
		{"15.5", 15.5},
		{"-", 0},
		{"1.2.3", 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseValue(tt.in), 1e-9)
		})
	}
}

func TestEffectiveValue(t *testing.T) {
	s := Stamp{EstimatedValue: "10 €"}
	assert.Equal(t, "10 €", EffectiveValue(s))

	s.ExpertValuation = "   "
	assert.Equal(t, "10 €", EffectiveValue(s), "blank expert valuation is ignored")

	s.ExpertValuation = "€500"
	assert.Equal(t, "€500", EffectiveValue(s))
}

func TestFormatEuro(t *testing.T) {
	assert.Equal(t, "€0,00", FormatEuro(0))
	assert.Equal(t, "€1.234,50", FormatEuro(1234.5))
}
