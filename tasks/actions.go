package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/0zheermao0/lockup-sub002/models"
)

// Create validates a new task and persists it in its initial status:
// pending for lock tasks, open for board tasks.
func (s *Service) Create(ctx context.Context, task *models.Task) (*Result, error) {
	switch task.Kind {
	case models.KindLock:
		if task.DurationKind == models.DurationFixed && task.DurationMinutes <= 0 {
			return invalid("fixed duration tasks need a positive duration"), nil
		}
		if task.DurationKind == models.DurationRandom && (task.DurationMinutes <= 0 || task.DurationMaxMinutes < task.DurationMinutes) {
			return invalid("random duration tasks need a valid duration range"), nil
		}
		task.Status = models.StatusPending
	case models.KindBoard:
		if task.Reward < 0 {
			return invalid("reward pool cannot be negative"), nil
		}
		if task.MaxParticipants <= 0 {
			task.MaxParticipants = 1
		}
		task.Status = models.StatusOpen
	default:
		return invalid("unknown task kind %q", task.Kind), nil
	}

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventTaskCreated,
			UserID:      &task.OwnerID,
			Description: fmt.Sprintf("task %q created", task.Title),
		})
	})
	if err != nil {
		return nil, err
	}
	return ok(task), nil
}

// Start moves a pending lock task to active and fixes its end time. For
// random-duration tasks the actual duration is drawn once here and the
// countdown may then be hidden from the owner.
func (s *Service) Start(ctx context.Context, taskID uuid.UUID, actorID uint) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != actorID {
			result = invalid("only the task owner can start it")
			return nil
		}
		if _, legal := CanTransition(task.Status, EventStart); !legal {
			result = invalid("task is not waiting to start (status %s)", task.Status)
			return nil
		}

		now := s.now()
		minutes := task.DurationMinutes
		if task.DurationKind == models.DurationRandom && task.DurationMaxMinutes > task.DurationMinutes {
			minutes = task.DurationMinutes + rand.Intn(task.DurationMaxMinutes-task.DurationMinutes+1)
		}
		end := now.Add(time.Duration(minutes) * time.Minute)

		task.Status = models.StatusActive
		task.StartAt = &now
		task.EndAt = &end
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventTaskStarted,
			UserID:      &actorID,
			NewEndAt:    &end,
			Description: fmt.Sprintf("lock started for %d minutes", minutes),
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

// Claim joins a user to a board task. Multi-participant tasks remain
// claimable while taken or submitted as long as a seat is free;
// single-participant tasks only while open.
func (s *Service) Claim(ctx context.Context, taskID uuid.UUID, actorID uint) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.Kind != models.KindBoard {
			result = invalid("only board tasks can be claimed")
			return nil
		}
		if task.OwnerID == actorID {
			result = invalid("cannot claim your own task")
			return nil
		}
		if _, legal := CanTransition(task.Status, EventClaim); !legal {
			result = invalid("task is not claimable (status %s)", task.Status)
			return nil
		}
		if task.MaxParticipants <= 1 && task.Status != models.StatusOpen {
			result = invalid("task has already been taken")
			return nil
		}
		if task.Deadline != nil && !s.now().Before(*task.Deadline) {
			result = invalid("task deadline has passed")
			return nil
		}

		var existing int64
		if err := tx.Model(&models.TaskParticipant{}).
			Where("task_id = ? AND user_id = ?", task.ID, actorID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			result = invalid("you already joined this task")
			return nil
		}
		var count int64
		if err := tx.Model(&models.TaskParticipant{}).
			Where("task_id = ?", task.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(task.MaxParticipants) {
			result = invalid("task is full (%d/%d participants)", count, task.MaxParticipants)
			return nil
		}

		participant := models.TaskParticipant{
			ID:     uuid.New(),
			TaskID: task.ID,
			UserID: actorID,
			Status: models.ParticipantJoined,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}
		if task.Status == models.StatusOpen {
			task.Status = models.StatusTaken
			if err := tx.Save(task).Error; err != nil {
				return err
			}
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventBoardTaskTaken,
			UserID:      &actorID,
			Description: fmt.Sprintf("participant joined (%d/%d)", count+1, task.MaxParticipants),
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

// Submit records a participant's completion proof and moves the task to
// submitted, awaiting the owner's review.
func (s *Service) Submit(ctx context.Context, taskID uuid.UUID, actorID uint, proof string) (*Result, error) {
	if proof == "" {
		return invalid("completion proof is required"), nil
	}
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if _, legal := CanTransition(task.Status, EventSubmit); !legal {
			result = invalid("task does not accept submissions (status %s)", task.Status)
			return nil
		}

		var participant models.TaskParticipant
		err = tx.Where("task_id = ? AND user_id = ?", task.ID, actorID).First(&participant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = invalid("only participants can submit")
			return nil
		}
		if err != nil {
			return err
		}
		if participant.Status != models.ParticipantJoined {
			result = invalid("submission already recorded (status %s)", participant.Status)
			return nil
		}

		now := s.now()
		participant.Status = models.ParticipantSubmitted
		participant.SubmissionText = proof
		participant.SubmittedAt = &now
		if err := tx.Save(&participant).Error; err != nil {
			return err
		}
		if task.Status != models.StatusSubmitted {
			task.Status = models.StatusSubmitted
			if err := tx.Save(task).Error; err != nil {
				return err
			}
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventTaskSubmitted,
			UserID:      &actorID,
			Description: "completion proof submitted, awaiting review",
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

// Review approves or rejects one participant's submission. The task
// itself stays in submitted until settlement reconciles the outcome.
func (s *Service) Review(ctx context.Context, taskID uuid.UUID, actorID, participantUserID uint, approve bool, comment string) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != actorID {
			result = invalid("only the task owner can review submissions")
			return nil
		}
		if task.Status.Terminal() {
			result = refuse(RefusalAlreadyProcessed, "task already settled")
			return nil
		}

		var participant models.TaskParticipant
		err = tx.Where("task_id = ? AND user_id = ?", task.ID, participantUserID).First(&participant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = invalid("no such participant")
			return nil
		}
		if err != nil {
			return err
		}
		if participant.Status != models.ParticipantSubmitted {
			result = invalid("participant has no pending submission (status %s)", participant.Status)
			return nil
		}

		now := s.now()
		verdict := models.ParticipantRejected
		if approve {
			verdict = models.ParticipantApproved
		}
		participant.Status = verdict
		participant.ReviewedAt = &now
		participant.ReviewComment = comment
		if err := tx.Save(&participant).Error; err != nil {
			return err
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventTaskReviewed,
			UserID:      &actorID,
			Description: fmt.Sprintf("submission %s", verdict),
			Metadata:    metaJSON(map[string]interface{}{"participant_id": participantUserID, "verdict": verdict}),
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

// Vote casts one vote inside an open voting window. Votes are tallied
// when the window closes; a pass never completes the task early.
func (s *Service) Vote(ctx context.Context, taskID uuid.UUID, voterID uint, agree bool) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.UnlockMode != models.UnlockVote {
			result = invalid("task does not unlock by vote")
			return nil
		}
		if task.OwnerID == voterID {
			result = invalid("cannot vote on your own task")
			return nil
		}
		if task.Status != models.StatusVoting {
			result = invalid("no voting window is open (status %s)", task.Status)
			return nil
		}
		now := s.now()
		if task.VotingEndAt != nil && !now.Before(*task.VotingEndAt) {
			result = invalid("voting window has closed")
			return nil
		}

		var existing int64
		if err := tx.Model(&models.TaskVote{}).
			Where("task_id = ? AND voter_id = ?", task.ID, voterID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			result = invalid("you already voted on this task")
			return nil
		}
		vote := models.TaskVote{ID: uuid.New(), TaskID: task.ID, VoterID: voterID, Agree: agree}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}

		total, agreeCount, err := countVotes(tx, task.ID)
		if err != nil {
			return err
		}
		verdict := "against"
		if agree {
			verdict = "in favor"
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventTaskVoted,
			UserID:      &voterID,
			Description: fmt.Sprintf("vote cast %s (%d/%d in favor)", verdict, agreeCount, total),
			Metadata:    metaJSON(map[string]interface{}{"agree": agree, "total_votes": total, "agree_votes": agreeCount}),
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

// Complete finishes a lock task by its owner. Before the countdown has
// elapsed this is a premature attempt: on a hidden-time task it records
// a violation and extends the clock, otherwise it is plainly refused.
func (s *Service) Complete(ctx context.Context, taskID uuid.UUID, actorID uint) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.Kind != models.KindLock {
			result = invalid("board tasks finish through settlement")
			return nil
		}
		if task.OwnerID != actorID {
			result = invalid("only the task owner can complete it")
			return nil
		}
		if task.Status.Terminal() {
			result = refuse(RefusalAlreadyProcessed, "task already finished")
			return nil
		}
		if task.IsFrozen {
			result = invalid("task is frozen")
			return nil
		}
		if _, legal := CanTransition(task.Status, EventComplete); !legal {
			result = invalid("task cannot be completed now (status %s)", task.Status)
			return nil
		}
		if task.UnlockMode == models.UnlockVote && task.Status != models.StatusVotePassed {
			result = invalid("vote unlock has not passed yet")
			return nil
		}

		now := s.now()
		if task.EndAt != nil && now.Before(*task.EndAt) {
			if task.HiddenTime {
				// Premature attempt against a hidden countdown:
				// record the violation and keep the task running.
				penalty, err := s.recordViolation(tx, task, actorID, now)
				if err != nil {
					return err
				}
				result = &Result{
					OK:      false,
					Code:    RefusalPenaltyApplied,
					Message: fmt.Sprintf("premature completion attempt, %d minutes added", penalty.PenaltyMinutes),
					Penalty: penalty,
					Task:    task,
				}
				return nil
			}
			result = invalid("the countdown has not finished yet")
			return nil
		}

		task.Status = models.StatusCompleted
		task.CompletedAt = &now
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", task.OwnerID).
			Update("total_tasks_completed", gorm.Expr("total_tasks_completed + 1")).Error; err != nil {
			return err
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventTaskCompleted,
			UserID:      &actorID,
			Description: "task completed by owner",
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

// EndEarly stops a task before its time. A lock task is marked failed;
// a board task is settled immediately with whatever approvals exist.
func (s *Service) EndEarly(ctx context.Context, taskID uuid.UUID, actorID uint) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != actorID {
			result = invalid("only the task owner can end it")
			return nil
		}
		if task.Status.Terminal() {
			result = refuse(RefusalAlreadyProcessed, "task already finished")
			return nil
		}

		if task.Kind == models.KindBoard {
			outcome, err := s.settle(tx, task, &actorID)
			if err != nil {
				return err
			}
			result = outcome
			return nil
		}

		if _, legal := CanTransition(task.Status, EventEndEarly); !legal {
			result = invalid("task cannot be stopped now (status %s)", task.Status)
			return nil
		}

		now := s.now()
		task.Status = models.StatusFailed
		task.EndAt = &now
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if err := appendTimeline(tx, &models.TimelineEvent{
			TaskID:      task.ID,
			EventType:   models.EventTaskStopped,
			UserID:      &actorID,
			Description: "task stopped before its time and marked failed",
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

func countVotes(tx *gorm.DB, taskID uuid.UUID) (total, agree int, err error) {
	var t, a int64
	if err := tx.Model(&models.TaskVote{}).Where("task_id = ?", taskID).Count(&t).Error; err != nil {
		return 0, 0, err
	}
	if err := tx.Model(&models.TaskVote{}).Where("task_id = ? AND agree = ?", taskID, true).Count(&a).Error; err != nil {
		return 0, 0, err
	}
	return int(t), int(a), nil
}
