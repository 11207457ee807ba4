package dto

import "time"

// StudentStats summarises a student's own grievances.
type StudentStats struct {
	Total          int `db:"total" json:"total"`
	Pending        int `db:"pending" json:"pending"`
	InProgress     int `db:"in_progress" json:"in_progress"`
	Resolved       int `db:"resolved" json:"resolved"`
	HighPriority   int `db:"high_priority" json:"high_priority"`
	MediumPriority int `db:"medium_priority" json:"medium_priority"`
	LowPriority    int `db:"low_priority" json:"low_priority"`
}

// FacultyStats summarises a faculty member's assigned workload.
type FacultyStats struct {
	TotalAssigned     int      `db:"total_assigned" json:"total_assigned"`
	Pending           int      `db:"pending" json:"pending"`
	InProgress        int      `db:"in_progress" json:"in_progress"`
	Resolved          int      `db:"resolved" json:"resolved"`
	HighPriority      int      `db:"high_priority" json:"high_priority"`
	AvgResolutionDays *float64 `db:"avg_resolution_days" json:"avg_resolution_days,omitempty"`
}

// DashboardTotals carries the headline admin counters.
type DashboardTotals struct {
	TotalStudents        int `db:"total_students" json:"total_students"`
	TotalFaculty         int `db:"total_faculty" json:"total_faculty"`
	TotalGrievances      int `db:"total_grievances" json:"total_grievances"`
	PendingGrievances    int `db:"pending_grievances" json:"pending_grievances"`
	InProgressGrievances int `db:"in_progress_grievances" json:"in_progress_grievances"`
	ResolvedGrievances   int `db:"resolved_grievances" json:"resolved_grievances"`
}

// StatusCount groups grievances by workflow status.
type StatusCount struct {
	StatusName string `db:"status_name" json:"status_name"`
	ColorCode  string `db:"color_code" json:"color_code"`
	Count      int    `db:"count" json:"count"`
}

// CategoryCount groups grievances by category.
type CategoryCount struct {
	CategoryName string `db:"category_name" json:"category_name"`
	Count        int    `db:"count" json:"count"`
}

// PriorityCount groups grievances by priority.
type PriorityCount struct {
	Priority string `db:"priority" json:"priority"`
	Count    int    `db:"count" json:"count"`
}

// MonthlyCount is one bucket of the rolling recent-months trend.
type MonthlyCount struct {
	Month    string `db:"month" json:"month"`
	Total    int    `db:"total" json:"total"`
	Resolved int    `db:"resolved" json:"resolved"`
}

// RecentGrievance is one entry of the bounded recent feed.
type RecentGrievance struct {
	GrievanceID int64     `db:"grievance_id" json:"grievance_id"`
	Title       string    `db:"title" json:"title"`
	Priority    string    `db:"priority" json:"priority"`
	StatusName  string    `db:"status_name" json:"status_name"`
	ColorCode   string    `db:"color_code" json:"color_code"`
	StudentName string    `db:"student_name" json:"student_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FacultyWorkload counts assignments per faculty member.
type FacultyWorkload struct {
	FacultyID     int64   `db:"faculty_id" json:"faculty_id"`
	Name          string  `db:"name" json:"name"`
	Department    *string `db:"department" json:"department,omitempty"`
	TotalAssigned int     `db:"total_assigned" json:"total_assigned"`
	Pending       int     `db:"pending" json:"pending"`
	InProgress    int     `db:"in_progress" json:"in_progress"`
	Resolved      int     `db:"resolved" json:"resolved"`
}

// DashboardStats is the composed admin dashboard payload.
type DashboardStats struct {
	Totals           DashboardTotals   `json:"totals"`
	ByStatus         []StatusCount     `json:"by_status"`
	ByCategory       []CategoryCount   `json:"by_category"`
	ByPriority       []PriorityCount   `json:"by_priority"`
	Monthly          []MonthlyCount    `json:"monthly"`
	RecentGrievances []RecentGrievance `json:"recent_grievances"`
}
