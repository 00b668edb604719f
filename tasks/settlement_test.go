package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/0zheermao0/lockup-sub002/models"
)

func boardTaskRow(id uuid.UUID, ownerID uint, status models.TaskStatus, reward int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "kind", "status", "reward"}).
		AddRow(id.String(), ownerID, string(models.KindBoard), string(status), reward)
}

func TestSettle_NoApprovalsFailsWithoutPayout(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	submitted := time.Now().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(boardTaskRow(taskID, 7, models.StatusSubmitted, 50))
	mock.ExpectQuery("SELECT .* FROM `task_participants` WHERE task_id = .*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_id", "user_id", "status", "submitted_at"}).
			AddRow(uuid.New().String(), taskID.String(), 21, string(models.ParticipantSubmitted), submitted).
			AddRow(uuid.New().String(), taskID.String(), 22, string(models.ParticipantSubmitted), submitted))
	// Only the task row, a timeline entry and the owner notification may
	// change: no user updates, no ledger rows.
	mock.ExpectExec("UPDATE `tasks` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `timeline_events`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `notifications`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := svc.Settle(context.Background(), taskID)

	assert.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, models.StatusFailed, result.Task.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettle_PaysApprovedParticipantsCeilingShare(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	submitted := time.Now().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(boardTaskRow(taskID, 7, models.StatusSubmitted, 7))
	mock.ExpectQuery("SELECT .* FROM `task_participants` WHERE task_id = .*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_id", "user_id", "status", "submitted_at"}).
			AddRow(uuid.New().String(), taskID.String(), 21, string(models.ParticipantApproved), submitted).
			AddRow(uuid.New().String(), taskID.String(), 22, string(models.ParticipantApproved), submitted))

	// Pool of 7 across 2 approved: 4 each, over-distributing by 1.
	for _, userID := range []uint{21, 22} {
		mock.ExpectQuery("SELECT .* FROM `users` WHERE .*").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "balance"}).
				AddRow(userID, "user", 10))
		mock.ExpectExec("UPDATE `users` SET").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO `point_transactions`").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE `task_participants` SET").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO `notifications`").WillReturnResult(sqlmock.NewResult(1, 1))
	}

	mock.ExpectExec("UPDATE `tasks` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `timeline_events`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := svc.Settle(context.Background(), taskID)

	assert.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, models.StatusCompleted, result.Task.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettle_RefusesLockTask(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(taskRow(taskID, 7, models.KindLock, models.StatusActive))
	mock.ExpectCommit()

	result, err := svc.Settle(context.Background(), taskID)

	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, RefusalInvalidTransition, result.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
