package models

import "time"

// Category classifies grievances. Categories are only ever deactivated,
// never removed.
type Category struct {
	ID          int64     `db:"category_id" json:"category_id"`
	Name        string    `db:"category_name" json:"category_name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Department  *string   `db:"department" json:"department,omitempty"`
	Active      bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CategoryUpdate is a partial update request; nil fields are untouched.
type CategoryUpdate struct {
	Name        *string
	Description *string
	Department  *string
	Active      *bool
}

// Empty reports whether no field was supplied.
func (u CategoryUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Department == nil && u.Active == nil
}
