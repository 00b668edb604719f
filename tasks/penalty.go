package tasks

import (
	"time"

	"gorm.io/gorm"

	"github.com/0zheermao0/lockup-sub002/models"
	"github.com/0zheermao0/lockup-sub002/utils"
)

const (
	penaltyBaseMinutes = 30
	penaltyMaxMinutes  = 180
)

// penaltyStep is how much each further violation adds on top of the
// base, scaled by how punishing the task is meant to be.
func penaltyStep(d models.Difficulty) int {
	switch d {
	case models.DifficultyEasy:
		return 10
	case models.DifficultyHard:
		return 30
	case models.DifficultyHell:
		return 60
	default:
		return 20
	}
}

// penaltyMinutes computes the overtime for the attempt-th premature
// completion attempt (1-based). The curve starts at the base, grows
// with every repeat, and is capped so a streak of attempts cannot push
// a task out indefinitely.
func penaltyMinutes(attempt int, d models.Difficulty) int {
	if attempt < 1 {
		attempt = 1
	}
	return utils.Clamp(penaltyBaseMinutes+(attempt-1)*penaltyStep(d), penaltyBaseMinutes, penaltyMaxMinutes)
}

// recordViolation persists a premature completion attempt against a
// hidden-time lock and pushes the end time out. The caller holds the
// task row lock; the violation commits even though the completion
// itself is refused.
func (s *Service) recordViolation(tx *gorm.DB, task *models.Task, actorID uint, now time.Time) (*PenaltyInfo, error) {
	var prior int64
	if err := tx.Model(&models.ViolationAttempt{}).
		Where("task_id = ? AND user_id = ?", task.ID, actorID).
		Count(&prior).Error; err != nil {
		return nil, err
	}
	attempt := int(prior) + 1
	penalty := penaltyMinutes(attempt, task.Difficulty)

	prevEnd := *task.EndAt
	newEnd := prevEnd.Add(time.Duration(penalty) * time.Minute)
	remaining := int(newEnd.Sub(now).Seconds())

	violation := models.ViolationAttempt{
		TaskID:           task.ID,
		UserID:           actorID,
		PenaltyMinutes:   penalty,
		RemainingSeconds: remaining,
	}
	if err := tx.Create(&violation).Error; err != nil {
		return nil, err
	}

	task.EndAt = &newEnd
	task.OvertimeMinutes += penalty
	if err := tx.Save(task).Error; err != nil {
		return nil, err
	}

	if err := appendTimeline(tx, &models.TimelineEvent{
		TaskID:            task.ID,
		EventType:         models.EventViolation,
		UserID:            &actorID,
		TimeChangeMinutes: intPtr(penalty),
		PreviousEndAt:     &prevEnd,
		NewEndAt:          &newEnd,
		Description:       "premature completion attempt on a hidden countdown",
		Metadata:          metaJSON(map[string]interface{}{"attempt": attempt, "penalty_minutes": penalty}),
	}); err != nil {
		return nil, err
	}

	return &PenaltyInfo{
		PenaltyMinutes:   penalty,
		AttemptCount:     attempt,
		RemainingSeconds: remaining,
	}, nil
}
