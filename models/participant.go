package models

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantStatus tracks one user's progress on a board task
// independently of the task's own status.
type ParticipantStatus string

const (
	ParticipantJoined    ParticipantStatus = "joined"
	ParticipantSubmitted ParticipantStatus = "submitted"
	ParticipantApproved  ParticipantStatus = "approved"
	ParticipantRejected  ParticipantStatus = "rejected"
)

type TaskParticipant struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	TaskID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_task_user" json:"task_id"`
	UserID uint      `gorm:"not null;uniqueIndex:idx_task_user" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID" json:"-"`

	Status ParticipantStatus `gorm:"type:varchar(20);not null;default:'joined';index" json:"status"`

	SubmissionText string     `gorm:"type:text" json:"submission_text,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`

	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewComment string     `gorm:"type:text" json:"review_comment,omitempty"`
	// RewardAmount is filled by settlement for approved participants.
	RewardAmount *int `json:"reward_amount,omitempty"`

	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt time.Time `json:"-"`
}

func (TaskParticipant) TableName() string {
	return "task_participants"
}

type TaskVote struct {
	ID      uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	TaskID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_task_voter" json:"task_id"`
	VoterID uint      `gorm:"not null;uniqueIndex:idx_task_voter" json:"voter_id"`
	Agree   bool      `gorm:"not null;default:true" json:"agree"`

	CreatedAt time.Time `json:"created_at"`
}

func (TaskVote) TableName() string {
	return "task_votes"
}
