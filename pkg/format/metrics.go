package format

import (
	"fmt"
	"strconv"

	"github.com/iwvelando/invoice-roi/pkg/mathutil"
)

// Percent renders a percentage-scaled value with one decimal (e.g., "5282.0%").
func Percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// RatePercent renders a ratio in [0,1] as a percentage with two decimals (e.g., "5.00%").
func RatePercent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", mathutil.RatioToPercent(ratio))
}

// Months renders a duration in months with one decimal (e.g., "0.2 months").
func Months(value float64) string {
	return fmt.Sprintf("%.1f months", value)
}

// Number renders a plain input value without trailing zeros (e.g., "0.5", "1000").
func Number(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// PlainCurrency renders an input amount the way it was entered (e.g., "$25", "$0.5").
func PlainCurrency(value float64) string {
	return "$" + Number(value)
}
