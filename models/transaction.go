package models

import (
	"time"

	"github.com/google/uuid"
)

// PointTransaction is the ledger row written alongside every balance
// mutation that is not an hourly accrual (settlement payouts, manual
// adjustments). Balance and ledger always move in the same transaction.
type PointTransaction struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	TaskID      *uuid.UUID `gorm:"type:char(36);index" json:"task_id,omitempty"`
	Amount      int        `gorm:"not null" json:"amount"`
	ReferenceID string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"reference_id"`
	Flow        string     `gorm:"type:enum('debit','credit');not null" json:"flow"`
	Kind        string     `gorm:"type:varchar(50);not null" json:"kind"`
	Message     *string    `gorm:"type:text" json:"message,omitempty"`
	CreatedAt   time.Time  `json:"-"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}
