package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatEnglish(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"10", "$10.00"},
		{"0", "$0.00"},
		{"6.5", "$6.50"},
		{"1234.5", "$1,234.50"},
		{"1000000", "$1,000,000.00"},
		{"0.005", "$0.01"},
		{"-3.25", "-$3.25"},
	}
	for _, tt := range tests {
		got := Format(decimal.RequireFromString(tt.amount), LangEnglish)
		assert.Equal(t, tt.want, got, "Format(%s, en)", tt.amount)
	}
}

func TestFormatUnknownLocaleFallsBackToDollars(t *testing.T) {
	assert.Equal(t, "$10.00", Format(decimal.NewFromInt(10), "fr"))
	assert.Equal(t, "$10.00", Format(decimal.NewFromInt(10), ""))
}

func TestFormatArabicConvertsAtFixedRate(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"10", "٥٠٠٫٠٠\u00a0ج.م.\u200f"},
		{"0", "٠٫٠٠\u00a0ج.م.\u200f"},
		{"6.5", "٣٢٥٫٠٠\u00a0ج.م.\u200f"},
		{"1234.5", "٦١٬٧٢٥٫٠٠\u00a0ج.م.\u200f"},
		{"0.005", "٠٫٢٥\u00a0ج.م.\u200f"},
	}
	for _, tt := range tests {
		got := Format(decimal.RequireFromString(tt.amount), LangArabic)
		assert.Equal(t, tt.want, got, "Format(%s, ar)", tt.amount)
		assert.NotContains(t, got, "$")
		assert.NotRegexp(t, "[0-9.,]", got, "Latin digits or separators left in %q", got)
	}
}

func TestFormatIsDeterministic(t *testing.T) {
	amount := decimal.RequireFromString("7.25")
	for _, locale := range []string{LangEnglish, LangArabic} {
		assert.Equal(t, Format(amount, locale), Format(amount, locale))
	}
}
