package users

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/0zheermao0/lockup-sub002/models"
)

// DecayEngine shaves activity score off users who have gone quiet. The
// daily loss follows a fibonacci curve over consecutive idle days, so a
// short break costs little and a long absence accelerates.
type DecayEngine struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDecayEngine(db *gorm.DB) *DecayEngine {
	return &DecayEngine{db: db, now: time.Now}
}

// WithClock replaces the time source for tests.
func (e *DecayEngine) WithClock(now func() time.Time) *DecayEngine {
	e.now = now
	return e
}

// decayAmount returns the score loss for the n-th consecutive idle day
// (1-based): 1, 1, 2, 3, 5, 8, ... capped so one pass can never erase
// more than a fixed chunk.
func decayAmount(idleDays int) int {
	if idleDays < 1 {
		return 0
	}
	const maxLoss = 21
	a, b := 1, 1
	for i := 2; i <= idleDays; i++ {
		a, b = b, a+b
		if b >= maxLoss {
			return maxLoss
		}
	}
	return b
}

// RunActivityDecay applies one day of decay to every eligible user and
// returns how many users were decayed. A user already decayed today is
// skipped, so the pass is idempotent within a calendar day. Per-user
// failures are logged and do not stop the batch.
func (e *DecayEngine) RunActivityDecay(ctx context.Context) (int, error) {
	now := e.now()
	cutoff := now.Add(-24 * time.Hour)

	var ids []uint
	err := e.db.WithContext(ctx).Model(&models.User{}).
		Where("activity_score > 0 AND last_active_at <= ?", cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	affected := 0
	for _, id := range ids {
		changed, err := e.decayUser(ctx, id)
		if err != nil {
			log.Printf("[decay] user %d: %v", id, err)
			continue
		}
		if changed {
			affected++
		}
	}
	return affected, nil
}

func (e *DecayEngine) decayUser(ctx context.Context, userID uint) (bool, error) {
	changed := false
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed = false
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}

		now := e.now()
		if user.ActivityScore <= 0 || now.Sub(user.LastActiveAt) < 24*time.Hour {
			return nil
		}
		if user.LastDecayAt != nil && sameDay(*user.LastDecayAt, now) {
			return nil
		}

		idleDays := int(now.Sub(user.LastActiveAt) / (24 * time.Hour))
		loss := decayAmount(idleDays)
		if loss > user.ActivityScore {
			loss = user.ActivityScore
		}
		if loss == 0 {
			return nil
		}

		user.ActivityScore -= loss
		user.LastDecayAt = &now
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		entry := models.ActivityLog{
			UserID:       user.ID,
			ActionType:   "time_decay",
			PointsChange: -loss,
			NewTotal:     user.ActivityScore,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if loss >= 5 {
			n := models.Notification{
				RecipientID: user.ID,
				Type:        "activity_decay",
				Title:       "Activity is fading",
				Message:     fmt.Sprintf("You lost %d activity point(s) after %d idle day(s). Come back!", loss, idleDays),
			}
			if err := tx.Create(&n).Error; err != nil {
				log.Printf("[decay] user %d: notification insert failed: %v", user.ID, err)
			}
		}
		changed = true
		return nil
	})
	return changed, err
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
