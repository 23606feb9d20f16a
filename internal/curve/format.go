package curve

import (
	"strconv"
)

// FormatSol renders a SOL amount with a fixed number of decimals.
func FormatSol(amount float64, decimals int) string {
	return strconv.FormatFloat(amount, 'f', decimals, 64)
}

// FormatPercent renders a fraction (0.1) as a percentage ("10.00%").
func FormatPercent(value float64, decimals int) string {
	return strconv.FormatFloat(value*100, 'f', decimals, 64) + "%"
}

// PercentChange returns the change from old to current in percent, 0 when old is 0.
func PercentChange(old, current float64) float64 {
	if old == 0 {
		return 0
	}
	return (current - old) / old * 100
}
