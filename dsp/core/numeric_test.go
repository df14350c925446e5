package core

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNextPowerOf2(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {110, 128}, {128, 128}, {129, 256}, {2205, 4096},
	}
	for _, tt := range tests {
		if got := NextPowerOf2(tt.in); got != tt.want {
			t.Fatalf("NextPowerOf2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsPowerOf2(t *testing.T) {
	for _, n := range []int{1, 2, 64, 1 << 20} {
		if !IsPowerOf2(n) {
			t.Fatalf("IsPowerOf2(%d) = false", n)
		}
	}
	for _, n := range []int{-4, 0, 3, 96, 1000} {
		if IsPowerOf2(n) {
			t.Fatalf("IsPowerOf2(%d) = true", n)
		}
	}
}

func TestNextEven(t *testing.T) {
	if NextEven(7) != 8 || NextEven(8) != 8 || NextEven(0) != 0 {
		t.Fatalf("NextEven: got %d %d %d", NextEven(7), NextEven(8), NextEven(0))
	}
}
