package exporter

import (
	"fmt"
	"math"
	"strconv"
)

// formatValue renders one table cell. Missing values and NaN become empty cells.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	default:
		return fmt.Sprint(x)
	}
}

// formatFloat uses the shortest representation that round-trips
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
