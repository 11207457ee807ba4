package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgms/grievance-api/internal/models"
)

func TestMessageListByGrievance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"message_id", "grievance_id", "sender_id", "sender_type", "message_text", "is_read", "created_at", "sender_name"}).
		AddRow(1, 1, 5, "student", "any update?", true, now, "Asha").
		AddRow(2, 1, 7, "faculty", "checking it today", false, now, "Dr. Rao")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY m.created_at ASC")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	messages, err := repo.ListByGrievance(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleStudent, messages[0].SenderRole)
	require.NotNil(t, messages[1].SenderName)
	assert.Equal(t, "Dr. Rao", *messages[1].SenderName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(int64(1), int64(5), models.RoleStudent, "any update?").
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "created_at"}).AddRow(3, now))

	m := &models.Message{GrievanceID: 1, SenderID: 5, SenderRole: models.RoleStudent, Text: "any update?"}
	require.NoError(t, repo.Create(context.Background(), m))
	assert.Equal(t, int64(3), m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageMarkReadFromSenders(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE messages SET is_read = TRUE WHERE grievance_id = $1 AND sender_type IN ($2, $3) AND is_read = FALSE")).
		WithArgs(int64(1), "faculty", "admin").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.MarkReadFromSenders(context.Background(), 1, []models.Role{models.RoleFaculty, models.RoleAdmin})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageMarkReadNoRolesIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	require.NoError(t, repo.MarkReadFromSenders(context.Background(), 1, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
