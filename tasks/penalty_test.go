package tasks

import (
	"testing"

	"github.com/0zheermao0/lockup-sub002/models"
)

func TestPenaltyMinutes_FirstAttemptIsBase(t *testing.T) {
	for _, d := range []models.Difficulty{models.DifficultyEasy, models.DifficultyNormal, models.DifficultyHard, models.DifficultyHell} {
		if got := penaltyMinutes(1, d); got != penaltyBaseMinutes {
			t.Fatalf("difficulty %s attempt 1: got %d, want %d", d, got, penaltyBaseMinutes)
		}
	}
}

func TestPenaltyMinutes_MonotonicAndCapped(t *testing.T) {
	for _, d := range []models.Difficulty{models.DifficultyEasy, models.DifficultyNormal, models.DifficultyHard, models.DifficultyHell} {
		prev := 0
		for attempt := 1; attempt <= 20; attempt++ {
			got := penaltyMinutes(attempt, d)
			if got < prev {
				t.Fatalf("difficulty %s attempt %d: %d < previous %d", d, attempt, got, prev)
			}
			if got < penaltyBaseMinutes || got > penaltyMaxMinutes {
				t.Fatalf("difficulty %s attempt %d: %d outside [%d, %d]", d, attempt, got, penaltyBaseMinutes, penaltyMaxMinutes)
			}
			prev = got
		}
		if prev != penaltyMaxMinutes {
			t.Fatalf("difficulty %s: repeated attempts should reach the cap, got %d", d, prev)
		}
	}
}

func TestPenaltyMinutes_HarderEscalatesFaster(t *testing.T) {
	easy := penaltyMinutes(3, models.DifficultyEasy)
	hell := penaltyMinutes(3, models.DifficultyHell)
	if hell <= easy {
		t.Fatalf("attempt 3: hell (%d) should exceed easy (%d)", hell, easy)
	}
}

func TestVoteFailPenaltyMinutes_Defaults(t *testing.T) {
	cases := []struct {
		difficulty models.Difficulty
		want       int
	}{
		{models.DifficultyEasy, 10},
		{models.DifficultyNormal, 20},
		{models.DifficultyHard, 30},
		{models.DifficultyHell, 60},
	}
	for _, c := range cases {
		task := models.Task{Difficulty: c.difficulty}
		if got := task.VoteFailPenaltyMinutes(); got != c.want {
			t.Fatalf("difficulty %s: got %d, want %d", c.difficulty, got, c.want)
		}
	}

	override := models.Task{Difficulty: models.DifficultyHell, VoteFailPenaltyMin: 15}
	if got := override.VoteFailPenaltyMinutes(); got != 15 {
		t.Fatalf("override: got %d, want 15", got)
	}
}
