package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskKind distinguishes single-owner lock tasks from multi-participant
// board tasks. The two kinds share one table like the original data model.
type TaskKind string

const (
	KindLock  TaskKind = "lock"
	KindBoard TaskKind = "board"
)

// TaskStatus is a closed enumeration. Transitions between statuses are
// validated against the transition table in the tasks package; nothing
// else may assign a status.
type TaskStatus string

const (
	// Lock task statuses.
	StatusPending     TaskStatus = "pending"
	StatusActive      TaskStatus = "active"
	StatusVoting      TaskStatus = "voting"
	StatusVotePassed  TaskStatus = "voting_passed"
	// Board task statuses.
	StatusOpen      TaskStatus = "open"
	StatusTaken     TaskStatus = "taken"
	StatusSubmitted TaskStatus = "submitted"
	// Terminal statuses.
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// Terminal reports whether a task in this status can never move again.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type UnlockMode string

const (
	UnlockTime   UnlockMode = "time"
	UnlockVote   UnlockMode = "vote"
	UnlockManual UnlockMode = "manual"
)

type DurationKind string

const (
	DurationFixed  DurationKind = "fixed"
	DurationRandom DurationKind = "random"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
	DifficultyHell   Difficulty = "hell"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Owner       User       `gorm:"foreignKey:OwnerID" json:"-"`
	Kind        TaskKind   `gorm:"type:varchar(10);not null" json:"kind"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// Lock task configuration.
	DurationKind       DurationKind `gorm:"type:varchar(10)" json:"duration_kind,omitempty"`
	DurationMinutes    int          `json:"duration_minutes,omitempty"`
	DurationMaxMinutes int          `json:"duration_max_minutes,omitempty"`
	Difficulty         Difficulty   `gorm:"type:varchar(10)" json:"difficulty,omitempty"`
	UnlockMode         UnlockMode   `gorm:"type:varchar(10)" json:"unlock_mode,omitempty"`

	// Vote unlock configuration and window state.
	VoteThreshold       int        `json:"vote_threshold,omitempty"`
	VoteAgreementRatio  float64    `json:"vote_agreement_ratio,omitempty"`
	VotingDurationMin   int        `gorm:"default:10" json:"voting_duration_min"`
	VotingStartAt       *time.Time `json:"voting_start_at,omitempty"`
	VotingEndAt         *time.Time `json:"voting_end_at,omitempty"`
	VoteFailPenaltyMin  int        `json:"vote_fail_penalty_min,omitempty"`

	// Board task configuration.
	Reward          int        `gorm:"not null;default:0" json:"reward"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	MaxParticipants int        `gorm:"not null;default:1" json:"max_participants"`

	// Hidden-time mode conceals the countdown from the owner and arms
	// premature-completion violation detection.
	HiddenTime bool `gorm:"not null;default:false" json:"hidden_time"`

	// Runtime state.
	StartAt            *time.Time `json:"start_at,omitempty"`
	EndAt              *time.Time `json:"end_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	OvertimeMinutes    int        `gorm:"not null;default:0" json:"overtime_minutes"`
	LastAccrualAt      *time.Time `json:"last_accrual_at,omitempty"`
	TotalAccrualsGiven int        `gorm:"not null;default:0" json:"total_accruals_given"`

	// Freeze state. A frozen task accrues nothing and cannot complete.
	IsFrozen    bool       `gorm:"not null;default:false" json:"is_frozen"`
	FrozenAt    *time.Time `json:"frozen_at,omitempty"`
	FrozenEndAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// VoteFailPenaltyMinutes returns the overtime added when a vote round
// fails, preferring the per-task override over the difficulty default.
func (t *Task) VoteFailPenaltyMinutes() int {
	if t.VoteFailPenaltyMin > 0 {
		return t.VoteFailPenaltyMin
	}
	switch t.Difficulty {
	case DifficultyEasy:
		return 10
	case DifficultyHard:
		return 30
	case DifficultyHell:
		return 60
	default:
		return 20
	}
}
