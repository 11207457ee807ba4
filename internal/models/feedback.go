package models

import "time"

// Feedback rates a resolved grievance. At most one row exists per grievance.
type Feedback struct {
	ID          int64     `db:"feedback_id" json:"feedback_id"`
	GrievanceID int64     `db:"grievance_id" json:"grievance_id"`
	StudentID   int64     `db:"student_id" json:"student_id"`
	Rating      int       `db:"rating" json:"rating"`
	Comments    *string   `db:"comments" json:"comments,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
