package exporter

import (
	"math"
	"strconv"
)

// formatFloat writes the shortest representation that round-trips.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatProbability rounds to four decimals.
func formatProbability(p float64) float64 {
	return math.Round(p*1e4) / 1e4
}
