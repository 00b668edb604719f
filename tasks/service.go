package tasks

import (
	"encoding/json"
	"errors"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/0zheermao0/lockup-sub002/models"
)

// Service carries the lifecycle operations and the scheduled engines.
// All multi-step mutations run inside one gorm transaction with the task
// row locked FOR UPDATE, so overlapping scheduler runs and user actions
// serialize per task.
type Service struct {
	db     *gorm.DB
	now    func() time.Time
	policy NotifyPolicy
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now, policy: DefaultNotifyPolicy}
}

// WithNotifyPolicy overrides the accrual notification cadence. The
// cadence is a product decision, not a structural one.
func (s *Service) WithNotifyPolicy(p NotifyPolicy) *Service {
	s.policy = p
	return s
}

// WithClock replaces the time source. Tests use this; production code
// never should.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// lockTask loads a task row under an exclusive row lock. Must be called
// inside a transaction.
func lockTask(tx *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		if isLockConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}
	return &task, nil
}

func lockUser(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
		if isLockConflict(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}
	return &user, nil
}

// isLockConflict reports a lost row-lock race: MySQL 1205 (lock wait
// timeout) or 1213 (deadlock victim). The whole transaction rolls back
// and the next scheduled run retries.
func isLockConflict(err error) bool {
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1205 || me.Number == 1213
	}
	return false
}

func metaJSON(m map[string]interface{}) json.RawMessage {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return b
}

func appendTimeline(tx *gorm.DB, ev *models.TimelineEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	return tx.Create(ev).Error
}

// notify inserts a notification row. Delivery happens out of process;
// an insert failure is logged by the caller but never rolls back the
// state change it describes.
func notify(tx *gorm.DB, n *models.Notification) error {
	return tx.Create(n).Error
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }
