package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/0zheermao0/lockup-sub002/models"
)

// difficultyBonus is the one-time extra granted with the first hourly
// reward of a lock.
func difficultyBonus(d models.Difficulty) int {
	switch d {
	case models.DifficultyEasy:
		return 1
	case models.DifficultyNormal:
		return 2
	case models.DifficultyHard:
		return 3
	case models.DifficultyHell:
		return 4
	default:
		return 0
	}
}

// owedHours returns how many hourly rewards a task has earned but not
// yet been granted. Partial hours never count: 59 minutes in, nothing
// is owed. The running counter makes the calculation idempotent across
// overlapping or delayed scheduler runs.
func owedHours(start, now time.Time, totalGiven int) int {
	if !now.After(start) {
		return 0
	}
	elapsed := int(now.Sub(start) / time.Hour)
	owed := elapsed - totalGiven
	if owed < 0 {
		return 0
	}
	return owed
}

// RunHourlyAccrual grants pending hourly rewards to every running lock
// task and returns how many tasks received at least one grant. Each
// task is handled in its own transaction; one failing task is logged
// and skipped without touching the rest of the batch.
func (s *Service) RunHourlyAccrual(ctx context.Context) (int, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("kind = ? AND status IN ? AND is_frozen = ? AND start_at IS NOT NULL",
			models.KindLock,
			[]models.TaskStatus{models.StatusActive, models.StatusVoting, models.StatusVotePassed},
			false).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	affected := 0
	for _, id := range ids {
		granted, err := s.accrueTask(ctx, id)
		if err != nil {
			log.Printf("[accrual] task %s: %v", id, err)
			continue
		}
		if granted > 0 {
			affected++
		}
	}
	return affected, nil
}

// accrueTask grants every owed hour for one task inside a single
// transaction. It returns the number of hours granted.
func (s *Service) accrueTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	granted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		granted = 0
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		// Re-check under the lock; the candidate scan was unlocked.
		if task.Kind != models.KindLock || task.IsFrozen || task.StartAt == nil {
			return nil
		}
		switch task.Status {
		case models.StatusActive, models.StatusVoting, models.StatusVotePassed:
		default:
			return nil
		}

		now := s.now()
		owed := owedHours(*task.StartAt, now, task.TotalAccrualsGiven)
		if owed == 0 {
			return nil
		}

		owner, err := lockUser(tx, task.OwnerID)
		if err != nil {
			return err
		}

		total := 0
		firstHour := task.TotalAccrualsGiven + 1
		for i := 0; i < owed; i++ {
			hour := firstHour + i
			amount := 1
			if hour == 1 {
				amount += difficultyBonus(task.Difficulty)
			}
			record := models.AccrualRecord{
				ID:        uuid.New(),
				TaskID:    task.ID,
				UserID:    owner.ID,
				Amount:    amount,
				HourIndex: hour,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			total += amount

			if notifyNow, batch := s.policy(hour); notifyNow {
				n := models.Notification{
					RecipientID: owner.ID,
					Type:        "hourly_reward",
					Title:       "Lock reward",
					Message:     fmt.Sprintf("Hour %d of %q: points credited for the last %d hour(s).", hour, task.Title, batch),
					RelatedType: "task",
					RelatedID:   task.ID.String(),
					ExtraData:   metaJSON(map[string]interface{}{"hour": hour, "batch": batch}),
				}
				if err := notify(tx, &n); err != nil {
					log.Printf("[accrual] task %s hour %d: notification insert failed: %v", task.ID, hour, err)
				}
			}
		}

		owner.Balance += total
		if err := tx.Save(owner).Error; err != nil {
			return err
		}

		task.TotalAccrualsGiven += owed
		task.LastAccrualAt = &now
		if err := tx.Save(task).Error; err != nil {
			return err
		}

		lastHour := task.TotalAccrualsGiven
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventHourlyReward,
			Description: fmt.Sprintf("%d point(s) accrued through hour %d", total, lastHour),
			Metadata:    metaJSON(map[string]interface{}{"hours": owed, "points": total, "through_hour": lastHour}),
		}); err != nil {
			return err
		}

		granted = owed
		return nil
	})
	return granted, err
}
