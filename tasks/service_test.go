package tasks

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/0zheermao0/lockup-sub002/models"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	assert.NoError(t, err)

	return gormDB, mock
}

func taskRow(id uuid.UUID, ownerID uint, kind models.TaskKind, status models.TaskStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "kind", "status"}).
		AddRow(id.String(), ownerID, string(kind), string(status))
}

func TestSettle_AlreadySettledIsNoOp(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(taskRow(taskID, 7, models.KindBoard, models.StatusCompleted))
	mock.ExpectCommit()

	result, err := svc.Settle(context.Background(), taskID)

	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, RefusalAlreadyProcessed, result.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStart_RefusesNonOwner(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(taskRow(taskID, 7, models.KindLock, models.StatusPending))
	mock.ExpectCommit()

	result, err := svc.Start(context.Background(), taskID, 9)

	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, RefusalInvalidTransition, result.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStart_RefusesWrongStatus(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(taskRow(taskID, 7, models.KindLock, models.StatusCompleted))
	mock.ExpectCommit()

	result, err := svc.Start(context.Background(), taskID, 7)

	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, RefusalInvalidTransition, result.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStart_MissingTaskIsError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	result, err := svc.Start(context.Background(), taskID, 7)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaim_RefusesWhenAllSeatsTaken(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "kind", "status", "max_participants"}).
			AddRow(taskID.String(), 7, string(models.KindBoard), string(models.StatusTaken), 3))
	mock.ExpectQuery("SELECT count(.*) FROM `task_participants`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT count(.*) FROM `task_participants`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	result, err := svc.Claim(context.Background(), taskID, 9)

	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, RefusalInvalidTransition, result.Code)
	assert.Contains(t, result.Message, "full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplete_RefusesBoardTask(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(taskRow(taskID, 7, models.KindBoard, models.StatusSubmitted))
	mock.ExpectCommit()

	result, err := svc.Complete(context.Background(), taskID, 7)

	assert.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, RefusalInvalidTransition, result.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
