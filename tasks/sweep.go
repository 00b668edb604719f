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

// RunExpirySweep advances every task whose clock has run out: expired
// time-unlock locks complete, expired vote-unlock locks open a voting
// window, closed voting windows are tallied, and board tasks past their
// deadline settle. Returns how many tasks changed state. Failures are
// isolated per task.
func (s *Service) RunExpirySweep(ctx context.Context) (int, error) {
	now := s.now()
	affected := 0

	var lockIDs []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("kind = ? AND status IN ? AND is_frozen = ? AND end_at IS NOT NULL AND end_at <= ?",
			models.KindLock,
			[]models.TaskStatus{models.StatusActive, models.StatusVotePassed},
			false, now).
		Pluck("id", &lockIDs).Error
	if err != nil {
		return affected, err
	}
	for _, id := range lockIDs {
		changed, err := s.expireLock(ctx, id)
		if err != nil {
			log.Printf("[sweep] expire task %s: %v", id, err)
			continue
		}
		if changed {
			affected++
		}
	}

	var votingIDs []uuid.UUID
	err = s.db.WithContext(ctx).Model(&models.Task{}).
		Where("status = ? AND is_frozen = ? AND voting_end_at IS NOT NULL AND voting_end_at <= ?", models.StatusVoting, false, now).
		Pluck("id", &votingIDs).Error
	if err != nil {
		return affected, err
	}
	for _, id := range votingIDs {
		changed, err := s.closeVoting(ctx, id)
		if err != nil {
			log.Printf("[sweep] close voting %s: %v", id, err)
			continue
		}
		if changed {
			affected++
		}
	}

	var boardIDs []uuid.UUID
	err = s.db.WithContext(ctx).Model(&models.Task{}).
		Where("kind = ? AND status IN ? AND deadline IS NOT NULL AND deadline <= ?",
			models.KindBoard,
			[]models.TaskStatus{models.StatusOpen, models.StatusTaken, models.StatusSubmitted},
			now).
		Pluck("id", &boardIDs).Error
	if err != nil {
		return affected, err
	}
	for _, id := range boardIDs {
		changed, err := s.settleExpiredBoard(ctx, id)
		if err != nil {
			log.Printf("[sweep] settle task %s: %v", id, err)
			continue
		}
		if changed {
			affected++
		}
	}

	return affected, nil
}

// expireLock handles one lock task whose end time has passed. Time
// unlock completes it; vote unlock opens a voting window; manual unlock
// waits for the owner and is left alone.
func (s *Service) expireLock(ctx context.Context, taskID uuid.UUID) (bool, error) {
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed = false
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		now := s.now()
		if task.IsFrozen || task.EndAt == nil || now.Before(*task.EndAt) {
			return nil
		}

		switch {
		case task.Status == models.StatusActive && task.UnlockMode == models.UnlockVote:
			next, legal := CanTransition(task.Status, EventVoteOpen)
			if !legal {
				return nil
			}
			votingEnd := now.Add(time.Duration(task.VotingDurationMin) * time.Minute)
			task.Status = next
			task.VotingStartAt = &now
			task.VotingEndAt = &votingEnd
			if err := tx.Save(task).Error; err != nil {
				return err
			}
			if err := appendTimeline(tx, &models.TimelineEvent{
				TaskID:      task.ID,
				EventType:   models.EventVotingStarted,
				Description: fmt.Sprintf("lock time is up, voting open for %d minutes", task.VotingDurationMin),
			}); err != nil {
				return err
			}
			changed = true

		case task.Status == models.StatusActive && task.UnlockMode == models.UnlockManual:
			// Manual unlock waits for the owner indefinitely.
			return nil

		case task.Status == models.StatusActive || task.Status == models.StatusVotePassed:
			next, legal := CanTransition(task.Status, EventExpire)
			if !legal {
				return nil
			}
			task.Status = next
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
				Description: "lock time is up, task completed",
			}); err != nil {
				return err
			}
			changed = true
		}
		return nil
	})
	return changed, err
}

// closeVoting tallies a finished voting window. The vote carries when
// enough people voted and enough of them agreed; otherwise the lock is
// extended and the ballots are cleared for the next round.
func (s *Service) closeVoting(ctx context.Context, taskID uuid.UUID) (bool, error) {
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed = false
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		now := s.now()
		if task.Status != models.StatusVoting || task.IsFrozen || task.VotingEndAt == nil || now.Before(*task.VotingEndAt) {
			return nil
		}

		total, agree, err := countVotes(tx, task.ID)
		if err != nil {
			return err
		}
		passed := votePassed(total, agree, task.VoteThreshold, task.VoteAgreementRatio)

		event := EventVoteFail
		if passed {
			event = EventVotePass
		}
		next, legal := CanTransition(task.Status, event)
		if !legal {
			return nil
		}

		if passed {
			task.Status = next
			if err := tx.Save(task).Error; err != nil {
				return err
			}
			if err := appendTimeline(tx, &models.TimelineEvent{
				TaskID:      task.ID,
				EventType:   models.EventVotePassed,
				Description: fmt.Sprintf("vote carried with %d/%d in favor", agree, total),
				Metadata:    metaJSON(map[string]interface{}{"total": total, "agree": agree}),
			}); err != nil {
				return err
			}
		} else {
			penalty := task.VoteFailPenaltyMinutes()
			prevEnd := task.EndAt
			newEnd := now.Add(time.Duration(penalty) * time.Minute)
			if prevEnd != nil && prevEnd.After(now) {
				newEnd = prevEnd.Add(time.Duration(penalty) * time.Minute)
			}
			task.Status = next
			task.EndAt = &newEnd
			task.OvertimeMinutes += penalty
			task.VotingStartAt = nil
			task.VotingEndAt = nil
			if err := tx.Save(task).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskVote{}).Error; err != nil {
				return err
			}
			if err := appendTimeline(tx, &models.TimelineEvent{
				TaskID:            task.ID,
				EventType:         models.EventVoteFailed,
				TimeChangeMinutes: intPtr(penalty),
				PreviousEndAt:     prevEnd,
				NewEndAt:          &newEnd,
				Description:       fmt.Sprintf("vote failed (%d/%d in favor), %d minutes added", agree, total, penalty),
				Metadata:          metaJSON(map[string]interface{}{"total": total, "agree": agree, "penalty_minutes": penalty}),
			}); err != nil {
				return err
			}
			n := models.Notification{
				RecipientID: task.OwnerID,
				Type:        "vote_failed",
				Title:       "Unlock vote failed",
				Message:     fmt.Sprintf("The unlock vote on %q did not pass; %d minutes were added.", task.Title, penalty),
				RelatedType: "task",
				RelatedID:   task.ID.String(),
			}
			if err := notify(tx, &n); err != nil {
				log.Printf("[sweep] task %s: notification insert failed: %v", task.ID, err)
			}
		}
		changed = true
		return nil
	})
	return changed, err
}

// votePassed applies the pass rule: the turnout must reach the
// threshold and the agreeing share must reach the configured ratio.
func votePassed(total, agree, threshold int, ratio float64) bool {
	if total == 0 || total < threshold {
		return false
	}
	return float64(agree)/float64(total) >= ratio
}

func (s *Service) settleExpiredBoard(ctx context.Context, taskID uuid.UUID) (bool, error) {
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed = false
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		now := s.now()
		if task.Status.Terminal() || task.Deadline == nil || now.Before(*task.Deadline) {
			return nil
		}
		outcome, err := s.settle(tx, task, nil)
		if err != nil {
			return err
		}
		changed = outcome.OK
		return nil
	})
	return changed, err
}
