package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/models"
)

// MessageRepository manages the per-grievance conversation threads.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListByGrievance returns the full thread for a grievance in chronological
// order, resolving sender names from the role-specific account tables.
func (r *MessageRepository) ListByGrievance(ctx context.Context, grievanceID int64) ([]models.MessageDetail, error) {
	const query = `SELECT m.message_id, m.grievance_id, m.sender_id, m.sender_type, m.message_text, m.is_read, m.created_at,
               CASE m.sender_type
                   WHEN 'student' THEN (SELECT name FROM students WHERE student_id = m.sender_id)
                   WHEN 'faculty' THEN (SELECT name FROM faculty WHERE faculty_id = m.sender_id)
                   WHEN 'admin' THEN (SELECT name FROM admins WHERE admin_id = m.sender_id)
               END AS sender_name
        FROM messages m
        WHERE m.grievance_id = $1
        ORDER BY m.created_at ASC`
	var messages []models.MessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, grievanceID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// Create inserts a message and fills in the generated id and timestamp.
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	const query = `INSERT INTO messages (grievance_id, sender_id, sender_type, message_text)
        VALUES ($1, $2, $3, $4)
        RETURNING message_id, created_at`
	if err := r.db.QueryRowxContext(ctx, query,
		m.GrievanceID, m.SenderID, m.SenderRole, m.Text,
	).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// MarkReadFromSenders flags unread messages on a grievance as read when
// they were sent by any of the given roles.
func (r *MessageRepository) MarkReadFromSenders(ctx context.Context, grievanceID int64, senderRoles []models.Role) error {
	if len(senderRoles) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(senderRoles))
	args := []interface{}{grievanceID}
	for _, role := range senderRoles {
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, string(role))
	}
	query := fmt.Sprintf(`UPDATE messages SET is_read = TRUE WHERE grievance_id = $1 AND sender_type IN (%s) AND is_read = FALSE`,
		strings.Join(placeholders, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}
