// Package currency renders prices for the two supported display languages.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Rate is the fixed USD to EGP conversion used for Arabic display.
const Rate = 50

const (
	LangEnglish = "en"
	LangArabic  = "ar"

	egpSymbol = "ج.م.\u200f"
)

var usPrinter = message.NewPrinter(language.AmericanEnglish)

// arabicDigits rewrites US-formatted output into ar-EG digits and separators.
// The ar-EG printer in x/text keeps Latin digits, so the mapping is explicit.
var arabicDigits = strings.NewReplacer(
	"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
	"5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
	".", "٫", ",", "٬",
)

// Format renders amount for locale. "ar" converts to EGP at Rate and uses
// Arabic-Egyptian digits and separators; any other locale renders US dollars.
func Format(amount decimal.Decimal, locale string) string {
	if locale == LangArabic {
		converted := amount.Mul(decimal.NewFromInt(Rate)).Round(2)
		return arabicDigits.Replace(grouped(converted)) + "\u00a0" + egpSymbol
	}

	rounded := amount.Round(2)
	s := "$" + grouped(rounded.Abs())
	if rounded.IsNegative() {
		return "-" + s
	}
	return s
}

// grouped formats d with US grouping and exactly two decimals.
func grouped(d decimal.Decimal) string {
	f, _ := d.Float64()
	return usPrinter.Sprint(number.Decimal(f, number.Scale(2)))
}
