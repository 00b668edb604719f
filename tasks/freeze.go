package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/0zheermao0/lockup-sub002/models"
)

// Freeze pauses a running lock task. A frozen task accrues nothing,
// takes no penalties, and never auto-completes; the end time captured
// here is restored with the frozen duration added back on unfreeze.
func (s *Service) Freeze(ctx context.Context, taskID uuid.UUID, actorID uint) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != actorID {
			result = invalid("only the task owner can freeze it")
			return nil
		}
		if task.Kind != models.KindLock {
			result = invalid("only lock tasks can be frozen")
			return nil
		}
		if task.Status.Terminal() {
			result = refuse(RefusalAlreadyProcessed, "task already finished")
			return nil
		}
		if task.IsFrozen {
			result = refuse(RefusalAlreadyProcessed, "task is already frozen")
			return nil
		}

		now := s.now()
		task.IsFrozen = true
		task.FrozenAt = &now
		task.FrozenEndAt = task.EndAt
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventTaskFrozen,
			UserID:      &actorID,
			Description: "clock frozen, accrual and penalties paused",
		}); err != nil {
			return err
		}
		result = ok(task)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Unfreeze resumes a frozen task. The time spent frozen is added to the
// end time so the owner serves the full remaining duration.
func (s *Service) Unfreeze(ctx context.Context, taskID uuid.UUID, actorID uint) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != actorID {
			result = invalid("only the task owner can unfreeze it")
			return nil
		}
		if !task.IsFrozen || task.FrozenAt == nil {
			result = invalid("task is not frozen")
			return nil
		}

		now := s.now()
		frozenFor := now.Sub(*task.FrozenAt)
		prevEnd := task.EndAt
		if task.FrozenEndAt != nil {
			prevEnd = task.FrozenEndAt
		}
		var newEnd *time.Time
		if prevEnd != nil {
			e := prevEnd.Add(frozenFor)
			newEnd = &e
		}

		task.IsFrozen = false
		task.FrozenAt = nil
		task.FrozenEndAt = nil
		task.EndAt = newEnd
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:            task.ID,
			EventType:         models.EventTaskUnfrozen,
			UserID:            &actorID,
			TimeChangeMinutes: intPtr(int(frozenFor.Minutes())),
			PreviousEndAt:     prevEnd,
			NewEndAt:          newEnd,
			Description:       fmt.Sprintf("clock resumed after %d frozen minute(s)", int(frozenFor.Minutes())),
		}); err != nil {
			return err
		}
		result = ok(task)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
