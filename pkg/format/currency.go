// Package format renders monetary values for display.
package format

import (
	"github.com/iwvelando/qslp-calculator/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Dollars returns a whole-dollar currency string with thousands separators
// (e.g., "-$1,235"). Amounts are rounded half away from zero.
func Dollars(amount float64) string {
	rounded := int64(mathutil.RoundWhole(amount))
	if rounded < 0 {
		return printer.Sprintf("-$%d", -rounded)
	}
	return printer.Sprintf("$%d", rounded)
}

// Percent renders an integer percentage (e.g., "13%").
func Percent(value int) string {
	return printer.Sprintf("%d%%", value)
}

// Thousands renders an amount as a rounded count of thousands, the way chart
// axes label it (e.g., "$656k").
func Thousands(amount float64) string {
	return printer.Sprintf("$%dk", int64(mathutil.RoundWhole(amount/1000)))
}
