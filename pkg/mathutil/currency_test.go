package mathutil

import (
	"math"
	"testing"
)

func TestRoundWhole(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 2.5, 3},
		{"Round down below midpoint", 2.49, 2},
		{"No rounding needed", 250, 250},
		{"Monthly split of annual match", 11500.0 / 12, 958},
		{"Large number", 656206.7, 656207},
		{"Negative midpoint rounds away from zero", -2.5, -3},
		{"Zero", 0, 0},
		{"NaN", math.NaN(), 0},
		{"Positive infinity", math.Inf(1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundWhole(tt.input)
			if result != tt.expected {
				t.Errorf("RoundWhole(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		val1      float64
		val2      float64
		tolerance float64
		expected  bool
	}{
		{"Exactly equal", 1.0, 1.0, 0.1, true},
		{"Within tolerance", 1.0, 1.05, 0.1, true},
		{"Outside tolerance", 1.0, 1.15, 0.1, false},
		{"Zero tolerance no match", 1.0, 1.001, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WithinTolerance(tt.val1, tt.val2, tt.tolerance)
			if result != tt.expected {
				t.Errorf("WithinTolerance(%v, %v, %v) = %v, expected %v",
					tt.val1, tt.val2, tt.tolerance, result, tt.expected)
			}
		})
	}
}

func TestMinMax(t *testing.T) {
	if got := Min(1, 2); got != 1 {
		t.Errorf("Min(1, 2) = %v", got)
	}
	if got := Min(-2, -1); got != -2 {
		t.Errorf("Min(-2, -1) = %v", got)
	}
	if got := Max(1, 2); got != 2 {
		t.Errorf("Max(1, 2) = %v", got)
	}
	if got := Max(0, -1); got != 0 {
		t.Errorf("Max(0, -1) = %v", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		val      float64
		lo       float64
		hi       float64
		expected float64
	}{
		{"Inside range", 5, 0, 10, 5},
		{"Below range", -5, 0, 10, 0},
		{"Above range", 15, 0, 10, 10},
		{"Inverted bounds favour lower", 5, 0, -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.val, tt.lo, tt.hi); got != tt.expected {
				t.Errorf("Clamp(%v, %v, %v) = %v, expected %v", tt.val, tt.lo, tt.hi, got, tt.expected)
			}
		})
	}
}

func TestNonNegative(t *testing.T) {
	if got := NonNegative(-3); got != 0 {
		t.Errorf("NonNegative(-3) = %v", got)
	}
	if got := NonNegative(math.NaN()); got != 0 {
		t.Errorf("NonNegative(NaN) = %v", got)
	}
	if got := NonNegative(42); got != 42 {
		t.Errorf("NonNegative(42) = %v", got)
	}
}

func TestCalculatePercentage(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		total    float64
		expected float64
	}{
		{"Quarter", 25, 100, 25},
		{"Zero total", 10, 0, 0},
		{"Match against standard limit", 3000, 23500, 12.765957446808510},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculatePercentage(tt.value, tt.total)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("CalculatePercentage(%v, %v) = %v, expected %v", tt.value, tt.total, result, tt.expected)
			}
		})
	}
}
