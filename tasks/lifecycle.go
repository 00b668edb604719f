package tasks

import (
	"github.com/0zheermao0/lockup-sub002/models"
)

// Event is something that can happen to a task: a user action, a vote
// outcome, or the clock running out.
type Event string

const (
	EventStart    Event = "start"     // owner starts a pending lock task
	EventClaim    Event = "claim"     // user joins a board task
	EventSubmit   Event = "submit"    // participant submits proof
	EventVoteOpen Event = "vote_open" // end time passed on a vote-unlock task
	EventVotePass Event = "vote_pass" // voting window closed, vote carried
	EventVoteFail Event = "vote_fail" // voting window closed, vote failed
	EventComplete Event = "complete"  // owner completes a lock task
	EventEndEarly Event = "end_early" // owner stops a task before its time
	EventExpire   Event = "expire"    // end time passed, time unlock
	EventSettle   Event = "settle"    // board task reconciled at deadline
)

// transitions is the full legality table. A (status, event) pair absent
// from the table is an invalid transition; guards beyond pure status
// legality (ownership, capacity, timing) live with each operation.
//
// Multi-participant board tasks stay claimable in taken and submitted as
// long as they are not full; single-participant tasks are claimable only
// while open. The capacity guard enforces the difference.
var transitions = map[models.TaskStatus]map[Event]models.TaskStatus{
	models.StatusPending: {
		EventStart: models.StatusActive,
	},
	models.StatusOpen: {
		EventClaim:  models.StatusTaken,
		EventSettle: models.StatusFailed,
	},
	models.StatusTaken: {
		EventClaim:    models.StatusTaken,
		EventSubmit:   models.StatusSubmitted,
		EventEndEarly: models.StatusTaken, // settles in place, settle event finishes it
		EventSettle:   models.StatusFailed,
	},
	models.StatusSubmitted: {
		EventClaim:    models.StatusSubmitted,
		EventSubmit:   models.StatusSubmitted,
		EventEndEarly: models.StatusSubmitted,
		EventSettle:   models.StatusCompleted, // or failed with zero approvals
	},
	models.StatusActive: {
		EventVoteOpen: models.StatusVoting,
		EventComplete: models.StatusCompleted,
		EventEndEarly: models.StatusFailed,
		EventExpire:   models.StatusCompleted,
	},
	models.StatusVoting: {
		EventVotePass: models.StatusVotePassed,
		EventVoteFail: models.StatusActive,
		EventEndEarly: models.StatusFailed,
	},
	models.StatusVotePassed: {
		EventComplete: models.StatusCompleted,
		EventExpire:   models.StatusCompleted,
		EventEndEarly: models.StatusFailed,
	},
}

// CanTransition reports whether event is legal in the given status and,
// if so, the resulting status.
func CanTransition(status models.TaskStatus, event Event) (models.TaskStatus, bool) {
	next, ok := transitions[status][event]
	return next, ok
}
