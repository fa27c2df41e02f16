package floatutils

import "testing"

func TestClip(t *testing.T) {
	tests := []struct {
		value, min, max, expected float64
	}{
		{0.5, 0.0, 1.0, 0.5},
		{-0.5, 0.0, 1.0, 0.0},
		{1.5, 0.0, 1.0, 1.0},
		{1.0, 1.0, 1.0, 1.0},
	}

	for _, test := range tests {
		if got := Clip(test.value, test.min, test.max); got != test.expected {
			t.Errorf("clip(%v, %v, %v) = %v, expected %v", test.value,
				test.min, test.max, got, test.expected)
		}
	}
}

func TestArgMax(t *testing.T) {
	if got := ArgMax(1.0, 3.0, 2.0); got != 1 {
		t.Errorf("expected index 1, got %v", got)
	}

	// Ties should break toward the lowest index
	if got := ArgMax(3.0, 1.0, 3.0); got != 0 {
		t.Errorf("expected index 0, got %v", got)
	}
}

func TestMean(t *testing.T) {
	if got := Mean(1.0, 2.0, 3.0, 4.0); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
}
