// internal/models/money.go
package models

import (
	"fmt"
	"math"
)

// Monetary amounts are stored and aggregated as int64 minor units (pesewas).
// Floats only appear at the JSON boundary.

// ToMinorUnits converts a cedi amount from a JSON body into pesewas.
func ToMinorUnits(cedis float64) int64 {
	return int64(math.Round(cedis * 100))
}

// FromMinorUnits converts pesewas back to cedis for JSON responses.
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// FormatCedis renders an amount for human-readable messages, e.g. "120.00".
func FormatCedis(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
