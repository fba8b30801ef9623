package service

import (
	"math"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v      float64
		digits int
		want   string
	}{
		{0, 0, "0"},
		{1234.5, 1, "1,234.5"},
		{1234.5, 2, "1,234.50"},
		{1234567.891, 2, "1,234,567.89"},
		{999, 0, "999"},
		{-4321.26, 1, "-4,321.3"},
		{0.126, 2, "0.13"},
		{42, -1, "42"},
		{2.5, 0, "3"},
		{0.5, 0, "1"},
		{-2.5, 0, "-3"},
		{1.25, 1, "1.3"},
		{-0.4, 0, "0"},
		{math.NaN(), 2, ""},
		{math.Inf(1), 2, ""},
	}
	for _, tc := range tests {
		if got := FormatNumber(tc.v, tc.digits); got != tc.want {
			t.Errorf("FormatNumber(%v, %d) = %q, want %q", tc.v, tc.digits, got, tc.want)
		}
	}
}

func TestFormatNumberRoundTrip(t *testing.T) {
	values := []float64{0, 1, 12.34, 1234.56, 98765.43, 1000000, -2500.75}
	for _, v := range values {
		s := FormatNumber(v, 2)
		got, err := ParseNumber(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if math.Abs(got-v) > 0.005 {
			t.Errorf("round trip %v -> %q -> %v", v, s, got)
		}
	}
}

func TestFormatCellMissing(t *testing.T) {
	if got := FormatCell(12, false, 0); got != "" {
		t.Errorf("missing cell = %q, want empty", got)
	}
	if _, err := ParseNumber(""); err == nil {
		t.Error("expected error for empty input")
	}
}
