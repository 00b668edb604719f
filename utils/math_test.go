package utils

import "testing"

func TestCeilDiv_RoundsInParticipantsFavor(t *testing.T) {
	cases := []struct {
		pool, n, want int
	}{
		{100, 3, 34}, // 3 x 34 = 102, over-distributes by 2
		{100, 4, 25},
		{7, 4, 2}, // 4 x 2 = 8
		{1, 3, 1},
		{0, 3, 0},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := CeilDiv(c.pool, c.n); got != c.want {
			t.Fatalf("CeilDiv(%d, %d): got %d, want %d", c.pool, c.n, got, c.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 10, 20); got != 10 {
		t.Fatalf("below range: got %d", got)
	}
	if got := Clamp(15, 10, 20); got != 15 {
		t.Fatalf("inside range: got %d", got)
	}
	if got := Clamp(25, 10, 20); got != 20 {
		t.Fatalf("above range: got %d", got)
	}
}
