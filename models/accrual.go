package models

import (
	"time"

	"github.com/google/uuid"
)

// AccrualRecord is one hourly reward grant. Rows are append-only and the
// (task, hour index) pair is unique, so a duplicate grant fails at the
// database even if the counter bookkeeping is ever wrong.
type AccrualRecord struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	TaskID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_task_hour" json:"task_id"`
	UserID uint      `gorm:"not null;index" json:"user_id"`

	Amount    int `gorm:"not null" json:"amount"`
	HourIndex int `gorm:"not null;uniqueIndex:idx_task_hour" json:"hour_index"`

	CreatedAt time.Time `json:"created_at"`
}

func (AccrualRecord) TableName() string {
	return "accrual_records"
}

// ViolationAttempt records a premature completion attempt against a
// hidden-time task. Append-only; the count of prior rows for a
// (task, user) pair drives penalty escalation.
type ViolationAttempt struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	TaskID uuid.UUID `gorm:"type:char(36);not null;index" json:"task_id"`
	UserID uint      `gorm:"not null;index" json:"user_id"`

	PenaltyMinutes   int `gorm:"not null" json:"penalty_minutes"`
	RemainingSeconds int `gorm:"not null" json:"remaining_seconds"`

	AttemptedAt time.Time `gorm:"autoCreateTime" json:"attempted_at"`
}

func (ViolationAttempt) TableName() string {
	return "violation_attempts"
}
