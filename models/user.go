package models

import "time"

type User struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Username            string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Balance             int        `gorm:"not null;default:0" json:"balance"`
	Level               int        `gorm:"not null;default:1" json:"level"`
	ActivityScore       int        `gorm:"not null;default:0" json:"activity_score"`
	LastActiveAt        time.Time  `gorm:"not null" json:"last_active_at"`
	LastDecayAt         *time.Time `json:"last_decay_at,omitempty"`
	TotalTasksCompleted int        `gorm:"not null;default:0" json:"total_tasks_completed"`
	Status              string     `gorm:"type:enum('Active','Inactive','Suspend');default:'Active'" json:"status"`
	CreatedAt           time.Time  `json:"-"`
	UpdatedAt           time.Time  `json:"-"`
}

func (User) TableName() string {
	return "users"
}
