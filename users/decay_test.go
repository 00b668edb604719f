package users

import (
	"testing"
	"time"
)

func TestDecayAmount_FibonacciRamp(t *testing.T) {
	cases := []struct {
		idleDays int
		want     int
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 3},
		{5, 5},
		{6, 8},
		{7, 13},
		{8, 21},
		{9, 21}, // capped
		{30, 21},
	}
	for _, c := range cases {
		if got := decayAmount(c.idleDays); got != c.want {
			t.Fatalf("idle %d day(s): got %d, want %d", c.idleDays, got, c.want)
		}
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC)
	b := time.Date(2026, 3, 1, 23, 55, 0, 0, time.UTC)
	c := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	if !sameDay(a, b) {
		t.Fatal("same calendar day should match")
	}
	if sameDay(b, c) {
		t.Fatal("adjacent days should not match")
	}
}
