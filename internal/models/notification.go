package models

import "time"

// Notification is produced as a side effect of lifecycle transitions and
// delivered to exactly one user in one identity space.
type Notification struct {
	ID        int64     `db:"notification_id" json:"notification_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	UserRole  Role      `db:"user_type" json:"user_type"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
