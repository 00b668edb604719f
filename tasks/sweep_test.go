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

func TestVotePassed(t *testing.T) {
	cases := []struct {
		name      string
		total     int
		agree     int
		threshold int
		ratio     float64
		want      bool
	}{
		{"no votes", 0, 0, 0, 0.5, false},
		{"below threshold", 2, 2, 3, 0.5, false},
		{"at threshold, unanimous", 3, 3, 3, 0.5, true},
		{"at threshold, exact ratio", 4, 2, 3, 0.5, true},
		{"at threshold, under ratio", 5, 2, 3, 0.5, false},
		{"high ratio required", 10, 8, 5, 0.9, false},
		{"high ratio met", 10, 9, 5, 0.9, true},
	}
	for _, c := range cases {
		if got := votePassed(c.total, c.agree, c.threshold, c.ratio); got != c.want {
			t.Fatalf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCloseVoting_LeavesFrozenTaskUntouched(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	past := time.Now().Add(-10 * time.Minute)

	// The window has closed, but the clock is frozen: no tally, no
	// penalty, no status change.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "kind", "status", "is_frozen", "voting_end_at"}).
			AddRow(taskID.String(), 7, string(models.KindLock), string(models.StatusVoting), true, past))
	mock.ExpectCommit()

	changed, err := svc.closeVoting(context.Background(), taskID)

	assert.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseVoting_SkipsUnexpiredWindow(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB)

	taskID := uuid.New()
	future := time.Now().Add(30 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tasks` WHERE id = .*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "kind", "status", "is_frozen", "voting_end_at"}).
			AddRow(taskID.String(), 7, string(models.KindLock), string(models.StatusVoting), false, future))
	mock.ExpectCommit()

	changed, err := svc.closeVoting(context.Background(), taskID)

	assert.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
