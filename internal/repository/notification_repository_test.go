package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgms/grievance-api/internal/models"
)

func TestNotificationCreateAndList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(int64(7), models.RoleFaculty, "Grievance #1 has been assigned to you").
		WillReturnRows(sqlmock.NewRows([]string{"notification_id", "created_at"}).AddRow(1, now))

	n := &models.Notification{UserID: 7, UserRole: models.RoleFaculty, Message: "Grievance #1 has been assigned to you"}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.Equal(t, int64(1), n.ID)

	rows := sqlmock.NewRows([]string{"notification_id", "user_id", "user_type", "message", "is_read", "created_at"}).
		AddRow(1, 7, "faculty", "Grievance #1 has been assigned to you", false, now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(int64(7), "faculty", 50).
		WillReturnRows(rows)

	notifications, err := repo.ListForUser(context.Background(), 7, models.RoleFaculty, 50)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].Read)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkReadOwnerScoped(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE notification_id = $1 AND user_id = $2 AND user_type = $3")).
		WithArgs(int64(1), int64(7), "faculty").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkRead(context.Background(), 1, 7, models.RoleFaculty))

	// someone else's notification never matches
	mock.ExpectExec("UPDATE notifications SET is_read = TRUE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkRead(context.Background(), 1, 8, models.RoleFaculty), sql.ErrNoRows)
}

func TestNotificationCountUnread(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("is_read = FALSE")).
		WithArgs(int64(5), "student").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountUnread(context.Background(), 5, models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
