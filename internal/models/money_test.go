// internal/models/money_test.go
package models

import "testing"

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name  string
		cedis float64
		want  int64
	}{
		{"whole cedis", 120.0, 12000},
		{"with pesewas", 45.67, 4567},
		{"rounds half up", 0.005, 1},
		{"float artifact", 19.99, 1999},
		{"zero", 0, 0},
		{"negative", -3.5, -350},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToMinorUnits(tt.cedis); got != tt.want {
				t.Errorf("ToMinorUnits(%v) = %d, want %d", tt.cedis, got, tt.want)
			}
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	if got := FromMinorUnits(4567); got != 45.67 {
		t.Errorf("FromMinorUnits(4567) = %v, want 45.67", got)
	}
	if got := FromMinorUnits(0); got != 0 {
		t.Errorf("FromMinorUnits(0) = %v, want 0", got)
	}
}

func TestFormatCedis(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{12000, "120.00"},
		{4567, "45.67"},
		{5, "0.05"},
		{0, "0.00"},
		{-350, "-3.50"},
	}
	for _, tt := range tests {
		if got := FormatCedis(tt.minor); got != tt.want {
			t.Errorf("FormatCedis(%d) = %q, want %q", tt.minor, got, tt.want)
		}
	}
}
