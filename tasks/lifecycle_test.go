package tasks

import (
	"testing"

	"github.com/0zheermao0/lockup-sub002/models"
)

func TestCanTransition_LockPath(t *testing.T) {
	steps := []struct {
		from  models.TaskStatus
		event Event
		want  models.TaskStatus
	}{
		{models.StatusPending, EventStart, models.StatusActive},
		{models.StatusActive, EventVoteOpen, models.StatusVoting},
		{models.StatusVoting, EventVotePass, models.StatusVotePassed},
		{models.StatusVotePassed, EventComplete, models.StatusCompleted},
	}
	for _, s := range steps {
		got, ok := CanTransition(s.from, s.event)
		if !ok {
			t.Fatalf("%s + %s: expected legal transition", s.from, s.event)
		}
		if got != s.want {
			t.Fatalf("%s + %s: got %s, want %s", s.from, s.event, got, s.want)
		}
	}
}

func TestCanTransition_VoteFailReturnsToActive(t *testing.T) {
	got, ok := CanTransition(models.StatusVoting, EventVoteFail)
	if !ok || got != models.StatusActive {
		t.Fatalf("voting + vote_fail: got %s ok=%v, want active", got, ok)
	}
}

func TestCanTransition_IllegalPairs(t *testing.T) {
	illegal := []struct {
		from  models.TaskStatus
		event Event
	}{
		{models.StatusPending, EventComplete},
		{models.StatusOpen, EventStart},
		{models.StatusCompleted, EventStart},
		{models.StatusCompleted, EventComplete},
		{models.StatusFailed, EventClaim},
		{models.StatusVoting, EventComplete},
		{models.StatusActive, EventClaim},
	}
	for _, s := range illegal {
		if _, ok := CanTransition(s.from, s.event); ok {
			t.Fatalf("%s + %s: expected illegal transition", s.from, s.event)
		}
	}
}

func TestCanTransition_SchedulerEvents(t *testing.T) {
	steps := []struct {
		from  models.TaskStatus
		event Event
		want  models.TaskStatus
	}{
		{models.StatusActive, EventVoteOpen, models.StatusVoting},
		{models.StatusActive, EventExpire, models.StatusCompleted},
		{models.StatusVotePassed, EventExpire, models.StatusCompleted},
		{models.StatusOpen, EventSettle, models.StatusFailed},
		{models.StatusTaken, EventSettle, models.StatusFailed},
		{models.StatusSubmitted, EventSettle, models.StatusCompleted},
	}
	for _, s := range steps {
		got, ok := CanTransition(s.from, s.event)
		if !ok {
			t.Fatalf("%s + %s: expected legal transition", s.from, s.event)
		}
		if got != s.want {
			t.Fatalf("%s + %s: got %s, want %s", s.from, s.event, got, s.want)
		}
	}
	if _, ok := CanTransition(models.StatusVoting, EventExpire); ok {
		t.Fatal("voting + expire: expected illegal transition")
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for status := range transitions {
		if status.Terminal() {
			t.Fatalf("terminal status %s must not appear in the transition table", status)
		}
	}
}
