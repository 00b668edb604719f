package models

import (
	"encoding/json"
	"time"
)

// Notification rows are written by the engines and picked up by a
// delivery worker elsewhere; a failed delivery never rolls back the
// state change that produced the row.
type Notification struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	RecipientID uint            `gorm:"not null;index" json:"recipient_id"`
	Type        string          `gorm:"size:50;not null" json:"type"`
	Title       string          `gorm:"size:200" json:"title"`
	Message     string          `gorm:"type:text" json:"message"`
	RelatedType string          `gorm:"size:30" json:"related_type,omitempty"`
	RelatedID   string          `gorm:"size:64" json:"related_id,omitempty"`
	ExtraData   json.RawMessage `gorm:"type:json" json:"extra_data,omitempty"`
	Priority    string          `gorm:"size:10;default:'normal'" json:"priority"`
	ReadAt      *time.Time      `json:"read_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ActivityLog records every change to a user's activity score, including
// the daily time decay.
type ActivityLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	ActionType   string          `gorm:"size:30;not null" json:"action_type"`
	PointsChange int             `gorm:"not null" json:"points_change"`
	NewTotal     int             `gorm:"not null" json:"new_total"`
	Metadata     json.RawMessage `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
