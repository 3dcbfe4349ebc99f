package report

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency renders USD with thousands separators: $15,420.00, -$3.50.
func Currency(v float64) string {
	if v < 0 {
		return "-" + printer.Sprintf("$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

func Count(n int) string { return printer.Sprintf("%d", n) }

func Percent(v float64) string { return printer.Sprintf("%.2f%%", v) }

func Multiplier(v float64) string { return printer.Sprintf("%.2fx", v) }

// Change renders a signed percentage delta; invalid deltas render "n/a".
func Change(v float64, valid bool) string {
	if !valid {
		return "n/a"
	}
	if v > 0 {
		return "+" + Percent(v)
	}
	return Percent(v)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
