package domain

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders a metric value for tooltips and legend ticks.
type Formatter func(v float64) string

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders whole dollars with grouping, e.g. "$90,337".
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-" + FormatCurrency(-v)
	}
	return printer.Sprintf("$%v", number.Decimal(math.Round(v), number.MaxFractionDigits(0)))
}

// FormatCurrencyShort renders thousands of dollars, e.g. "$40k". Values
// under one thousand fall back to FormatCurrency.
func FormatCurrencyShort(v float64) string {
	if math.Abs(v) < 1000 {
		return FormatCurrency(v)
	}
	return FormatCurrency(v/1000) + "k"
}

// FormatPercent renders a value that is already a percentage with one
// decimal place, e.g. "38.2%".
func FormatPercent(v float64) string {
	return printer.Sprintf("%v%%", number.Decimal(v, number.MinFractionDigits(1), number.MaxFractionDigits(1)))
}

// FormatDecimal renders a plain number with grouping and up to two
// decimals.
func FormatDecimal(v float64) string {
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

// NamedFormatter resolves a formatter by catalog name: "currency",
// "currency_short", "percent" or "decimal". An empty name selects
// "decimal".
func NamedFormatter(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "currency":
		return FormatCurrency, nil
	case "currency_short":
		return FormatCurrencyShort, nil
	case "percent":
		return FormatPercent, nil
	case "", "decimal":
		return FormatDecimal, nil
	default:
		return nil, fmt.Errorf("unknown formatter %q", name)
	}
}
