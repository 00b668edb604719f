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

func TestFreeze_AlreadyFrozenIsNoOp(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	frozenAt := time.Now().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "kind", "status", "is_frozen", "frozen_at"}).
			AddRow(taskID.String(), 7, string(models.KindLock), string(models.StatusActive), true, frozenAt))
	mock.ExpectCommit()

	result, err := svc.Freeze(context.Background(), taskID, 7)

	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, RefusalAlreadyProcessed, result.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFreeze_RefusesBoardTask(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(taskRow(taskID, 7, models.KindBoard, models.StatusOpen))
	mock.ExpectCommit()

	result, err := svc.Freeze(context.Background(), taskID, 7)

	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, RefusalInvalidTransition, result.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnfreeze_RefusesWhenNotFrozen(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "kind", "status", "is_frozen"}).
			AddRow(taskID.String(), 7, string(models.KindLock), string(models.StatusActive), false))
	mock.ExpectCommit()

	result, err := svc.Unfreeze(context.Background(), taskID, 7)

	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, RefusalInvalidTransition, result.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnfreeze_AddsFrozenDurationToEndTime(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc = svc.WithClock(func() time.Time { return base })

	taskID := uuid.New()
	frozenAt := base.Add(-90 * time.Minute)
	frozenEnd := base.Add(2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "kind", "status", "is_frozen", "frozen_at", "frozen_end_at", "end_at"}).
			AddRow(taskID.String(), 7, string(models.KindLock), string(models.StatusActive), true, frozenAt, frozenEnd, frozenEnd))
	mock.ExpectExec("UPDATE `tasks` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `timeline_events`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := svc.Unfreeze(context.Background(), taskID, 7)

	assert.NoError(t, err)
	assert.True(t, result.OK)
	assert.False(t, result.Task.IsFrozen)
	assert.Nil(t, result.Task.FrozenAt)
	if assert.NotNil(t, result.Task.EndAt) {
		// 90 frozen minutes are served back: the end time moves out by
		// exactly the frozen duration.
		assert.Equal(t, frozenEnd.Add(90*time.Minute), *result.Task.EndAt)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
