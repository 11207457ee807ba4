package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/models"
)

// NotificationRepository manages per-user notification rows.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	const query = `INSERT INTO notifications (user_id, user_type, message)
        VALUES ($1, $2, $3)
        RETURNING notification_id, created_at`
	if err := r.db.QueryRowxContext(ctx, query,
		n.UserID, n.UserRole, n.Message,
	).Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListForUser returns the most recent notifications for a user, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, role models.Role, limit int) ([]models.Notification, error) {
	const query = `SELECT notification_id, user_id, user_type, message, is_read, created_at
        FROM notifications
        WHERE user_id = $1 AND user_type = $2
        ORDER BY created_at DESC
        LIMIT $3`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID, string(role), limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64, role models.Role) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND user_type = $2 AND is_read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, string(role)); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags a single notification as read, scoped to its owner.
// Returns sql.ErrNoRows when the notification does not belong to the user.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID int64, role models.Role) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE notification_id = $1 AND user_id = $2 AND user_type = $3`
	res, err := r.db.ExecContext(ctx, query, notificationID, userID, string(role))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flags every unread notification for a user as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, role models.Role) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND user_type = $2 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, string(role)); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
