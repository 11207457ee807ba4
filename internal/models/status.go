package models

// Canonical status names. The engine looks statuses up by name to drive
// transitions; Closed and Reopened are recognized reference data with no
// codified transition rule.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
	StatusReopened   = "Reopened"
)

// Status is a row of the fixed workflow vocabulary.
type Status struct {
	ID        int64  `db:"status_id" json:"status_id"`
	Name      string `db:"status_name" json:"status_name"`
	ColorCode string `db:"color_code" json:"color_code"`
}
