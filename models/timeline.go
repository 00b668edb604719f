package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Timeline event types. Every engine and lifecycle operation appends one
// of these as a side effect; rows are never updated or deleted.
const (
	EventTaskCreated    = "task_created"
	EventTaskStarted    = "task_started"
	EventTaskCompleted  = "task_completed"
	EventTaskStopped    = "task_stopped"
	EventTaskFailed     = "task_failed"
	EventBoardTaskTaken = "board_task_taken"
	EventTaskSubmitted  = "task_submitted"
	EventTaskReviewed   = "task_reviewed"
	EventTaskVoted      = "task_voted"
	EventVotingStarted  = "voting_started"
	EventVotePassed     = "vote_passed"
	EventVoteFailed     = "vote_failed"
	EventTaskFrozen     = "task_frozen"
	EventTaskUnfrozen   = "task_unfrozen"
	EventHourlyReward   = "hourly_reward"
	EventViolation      = "violation_penalty"
	EventTaskSettled    = "task_settled"
)

type TimelineEvent struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:char(36);not null;index:idx_task_created" json:"task_id"`
	EventType string    `gorm:"size:30;not null;index" json:"event_type"`
	// UserID is nil for system events (scheduled passes).
	UserID *uint `json:"user_id,omitempty"`

	TimeChangeMinutes *int       `json:"time_change_minutes,omitempty"`
	PreviousEndAt     *time.Time `json:"previous_end_at,omitempty"`
	NewEndAt          *time.Time `json:"new_end_at,omitempty"`

	Description string          `gorm:"type:text" json:"description"`
	Metadata    json.RawMessage `gorm:"type:json" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_task_created" json:"created_at"`
}

func (TimelineEvent) TableName() string {
	return "timeline_events"
}
