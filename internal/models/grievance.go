package models

import "time"

// Priority levels for grievances.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether the value is one of the three levels.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Grievance is a student-submitted complaint tracked through the resolution
// workflow. assigned_to stays NULL until an admin assigns a faculty member;
// resolved_at is stamped when the status transitions to Resolved.
type Grievance struct {
	ID              int64      `db:"grievance_id" json:"grievance_id"`
	StudentID       int64      `db:"student_id" json:"student_id"`
	CategoryID      int64      `db:"category_id" json:"category_id"`
	StatusID        int64      `db:"status_id" json:"status_id"`
	AssignedTo      *int64     `db:"assigned_to" json:"assigned_to,omitempty"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	AttachmentPath  *string    `db:"attachment_path" json:"attachment_path,omitempty"`
	Priority        string     `db:"priority" json:"priority"`
	ResolutionNotes *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// GrievanceDetail joins category, status, student, and faculty projections
// for list and detail views.
type GrievanceDetail struct {
	Grievance
	CategoryName         *string `db:"category_name" json:"category_name,omitempty"`
	StatusName           *string `db:"status_name" json:"status_name,omitempty"`
	ColorCode            *string `db:"color_code" json:"color_code,omitempty"`
	StudentName          *string `db:"student_name" json:"student_name,omitempty"`
	StudentEmail         *string `db:"student_email" json:"student_email,omitempty"`
	StudentDepartment    *string `db:"student_department" json:"student_department,omitempty"`
	EnrollmentNo         *string `db:"enrollment_no" json:"enrollment_no,omitempty"`
	AssignedFacultyName  *string `db:"assigned_faculty_name" json:"assigned_faculty_name,omitempty"`
	AssignedFacultyEmail *string `db:"assigned_faculty_email" json:"assigned_faculty_email,omitempty"`
}

// GrievanceFilter captures the shared list predicates. The same set drives
// the data query and its COUNT companion.
type GrievanceFilter struct {
	Status     string
	CategoryID int64
	Priority   string
	Department string
	Search     string
	Page       int
	Limit      int
}

// GrievanceUpdate is a partial update request; nil fields are untouched.
type GrievanceUpdate struct {
	StatusID        *int64
	ResolutionNotes *string
	Priority        *string
}

// Empty reports whether no field was supplied.
func (u GrievanceUpdate) Empty() bool {
	return u.StatusID == nil && u.ResolutionNotes == nil && u.Priority == nil
}
