package models

import "time"

// Message belongs to exactly one grievance thread. Append-only; the read
// flag flips false→true when the counterpart role views the thread.
type Message struct {
	ID          int64     `db:"message_id" json:"message_id"`
	GrievanceID int64     `db:"grievance_id" json:"grievance_id"`
	SenderID    int64     `db:"sender_id" json:"sender_id"`
	SenderRole  Role      `db:"sender_type" json:"sender_type"`
	Text        string    `db:"message_text" json:"message_text"`
	Read        bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MessageDetail resolves the sender name across the three identity tables.
type MessageDetail struct {
	Message
	SenderName *string `db:"sender_name" json:"sender_name,omitempty"`
}
