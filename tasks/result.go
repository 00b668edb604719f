package tasks

import (
	"errors"
	"fmt"

	"github.com/0zheermao0/lockup-sub002/models"
)

// RefusalCode classifies why an operation did not change state. Refusals
// are results, not errors: callers render them to the end user, batch
// jobs treat AlreadyProcessed as success.
type RefusalCode string

const (
	RefusalInvalidTransition RefusalCode = "invalid_transition"
	RefusalAlreadyProcessed  RefusalCode = "already_processed"
	RefusalPenaltyApplied    RefusalCode = "penalty_applied"
)

// PenaltyInfo accompanies a RefusalPenaltyApplied result so the caller
// can explain what just happened to the user's end time.
type PenaltyInfo struct {
	PenaltyMinutes   int `json:"penalty_minutes"`
	AttemptCount     int `json:"attempt_count"`
	RemainingSeconds int `json:"remaining_seconds"`
}

// Result is the discriminated outcome of a lifecycle operation. Exactly
// one of OK or Code is meaningful; Task carries the post-operation row
// on success.
type Result struct {
	OK      bool         `json:"ok"`
	Code    RefusalCode  `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Penalty *PenaltyInfo `json:"penalty,omitempty"`
	Task    *models.Task `json:"task,omitempty"`
}

func ok(task *models.Task) *Result {
	return &Result{OK: true, Task: task}
}

func refuse(code RefusalCode, format string, args ...interface{}) *Result {
	return &Result{OK: false, Code: code, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) *Result {
	return refuse(RefusalInvalidTransition, format, args...)
}

// ErrConcurrencyConflict marks a lost row-lock race or a stale read
// detected inside a transaction. The scheduler retries on its next run;
// user-facing callers map it to "try again".
var ErrConcurrencyConflict = errors.New("concurrency conflict")
