package exporter

import (
	"fmt"
)

// formatRate formats a completeness or missing rate for CSV output with
// exactly 4 decimal places so identical inputs produce identical bytes.
func formatRate(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
