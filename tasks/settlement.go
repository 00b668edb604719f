package tasks

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/0zheermao0/lockup-sub002/models"
	"github.com/0zheermao0/lockup-sub002/utils"
)

// Settle reconciles a board task: approved participants split the
// reward pool, everyone else gets nothing. Calling it on an already
// settled task is an AlreadyProcessed no-op.
func (s *Service) Settle(ctx context.Context, taskID uuid.UUID) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		outcome, err := s.settle(tx, task, nil)
		if err != nil {
			return err
		}
		result = outcome
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// settle does the work inside the caller's transaction; the caller
// already holds the task row lock. actorID is the owner when the
// settlement was triggered by an early end, nil when by the sweep.
func (s *Service) settle(tx *gorm.DB, task *models.Task, actorID *uint) (*Result, error) {
	if task.Kind != models.KindBoard {
		return invalid("only board tasks settle"), nil
	}
	if task.Status.Terminal() {
		return refuse(RefusalAlreadyProcessed, "task already settled"), nil
	}
	if _, legal := CanTransition(task.Status, EventSettle); !legal {
		return invalid("task cannot settle now (status %s)", task.Status), nil
	}

	var participants []models.TaskParticipant
	if err := tx.Where("task_id = ?", task.ID).Find(&participants).Error; err != nil {
		return nil, err
	}

	var approved []models.TaskParticipant
	submissions := 0
	for _, p := range participants {
		if p.SubmittedAt != nil {
			submissions++
		}
		if p.Status == models.ParticipantApproved {
			approved = append(approved, p)
		}
	}

	now := s.now()
	if len(approved) == 0 {
		summary := "no submissions were approved"
		if submissions == 0 {
			summary = "no submissions were made"
		}
		task.Status = models.StatusFailed
		task.CompletedAt = &now
		if err := tx.Save(task).Error; err != nil {
			return nil, err
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventTaskSettled,
			UserID:      actorID,
			Description: fmt.Sprintf("task failed at settlement: %s", summary),
			Metadata:    metaJSON(map[string]interface{}{"pool": task.Reward, "approved": 0, "submissions": submissions}),
		}); err != nil {
			return nil, err
		}
		n := models.Notification{
			RecipientID: task.OwnerID,
			Type:        "task_settled",
			Title:       "Board task failed",
			Message:     fmt.Sprintf("%q closed without a payout: %s.", task.Title, summary),
			RelatedType: "task",
			RelatedID:   task.ID.String(),
		}
		if err := notify(tx, &n); err != nil {
			log.Printf("[settlement] task %s: notification insert failed: %v", task.ID, err)
		}
		return ok(task), nil
	}

	// The pool splits by ceiling division: every approved participant
	// gets the same whole number of points and a non-divisible pool
	// rounds in their favor, never the owner's.
	per := utils.CeilDiv(task.Reward, len(approved))
	for i := range approved {
		p := &approved[i]
		winner, err := lockUser(tx, p.UserID)
		if err != nil {
			return nil, err
		}
		winner.Balance += per
		if err := tx.Save(winner).Error; err != nil {
			return nil, err
		}
		entry := models.PointTransaction{
			UserID:      winner.ID,
			TaskID:      &task.ID,
			Amount:      per,
			ReferenceID: fmt.Sprintf("settle-%s-%d", task.ID, winner.ID),
			Flow:        "credit",
			Kind:        "board_settlement",
			Message:     strPtr(fmt.Sprintf("reward for %q", task.Title)),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return nil, err
		}
		p.RewardAmount = intPtr(per)
		if err := tx.Save(p).Error; err != nil {
			return nil, err
		}
		n := models.Notification{
			RecipientID: winner.ID,
			Type:        "task_settled",
			Title:       "Board task reward",
			Message:     fmt.Sprintf("You earned %d point(s) for %q.", per, task.Title),
			RelatedType: "task",
			RelatedID:   task.ID.String(),
		}
		if err := notify(tx, &n); err != nil {
			log.Printf("[settlement] task %s: notification insert failed: %v", task.ID, err)
		}
	}

	task.Status = models.StatusCompleted
	task.CompletedAt = &now
	if err := tx.Save(task).Error; err != nil {
		return nil, err
	}
	if err := appendTimeline(tx, &models.TimelineEvent{
		TaskID:      task.ID,
		EventType:   models.EventTaskSettled,
		UserID:      actorID,
		Description: fmt.Sprintf("pool of %d split among %d participant(s), %d each", task.Reward, len(approved), per),
		Metadata: metaJSON(map[string]interface{}{
			"pool":     task.Reward,
			"approved": len(approved),
			"per_head": per,
			"paid_out": per * len(approved),
		}),
	}); err != nil {
		return nil, err
	}
	return ok(task), nil
}
