package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/dto"
)

// StatsRepository runs the aggregate queries behind the role dashboards.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs a StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// StudentStats aggregates a student's own grievances by status and priority.
func (r *StatsRepository) StudentStats(ctx context.Context, studentID int64) (*dto.StudentStats, error) {
	const query = `SELECT
            COUNT(*) AS total,
            COUNT(*) FILTER (WHERE s.status_name = 'Pending') AS pending,
            COUNT(*) FILTER (WHERE s.status_name = 'In Progress') AS in_progress,
            COUNT(*) FILTER (WHERE s.status_name = 'Resolved') AS resolved,
            COUNT(*) FILTER (WHERE g.priority = 'high') AS high_priority,
            COUNT(*) FILTER (WHERE g.priority = 'medium') AS medium_priority,
            COUNT(*) FILTER (WHERE g.priority = 'low') AS low_priority
        FROM grievances g
        LEFT JOIN status s ON s.status_id = g.status_id
        WHERE g.student_id = $1`
	var stats dto.StudentStats
	if err := r.db.GetContext(ctx, &stats, query, studentID); err != nil {
		return nil, fmt.Errorf("student stats: %w", err)
	}
	return &stats, nil
}

// FacultyStats aggregates a faculty member's assigned grievances, including
// the average days from submission to resolution.
func (r *StatsRepository) FacultyStats(ctx context.Context, facultyID int64) (*dto.FacultyStats, error) {
	const query = `SELECT
            COUNT(*) AS total_assigned,
            COUNT(*) FILTER (WHERE s.status_name = 'Pending') AS pending,
            COUNT(*) FILTER (WHERE s.status_name = 'In Progress') AS in_progress,
            COUNT(*) FILTER (WHERE s.status_name = 'Resolved') AS resolved,
            COUNT(*) FILTER (WHERE g.priority = 'high') AS high_priority,
            AVG(EXTRACT(EPOCH FROM (g.resolved_at - g.created_at)) / 86400)
                FILTER (WHERE g.resolved_at IS NOT NULL) AS avg_resolution_days
        FROM grievances g
        LEFT JOIN status s ON s.status_id = g.status_id
        WHERE g.assigned_to = $1`
	var stats dto.FacultyStats
	if err := r.db.GetContext(ctx, &stats, query, facultyID); err != nil {
		return nil, fmt.Errorf("faculty stats: %w", err)
	}
	return &stats, nil
}

// DashboardTotals returns the headline admin counters.
func (r *StatsRepository) DashboardTotals(ctx context.Context) (*dto.DashboardTotals, error) {
	const query = `SELECT
            (SELECT COUNT(*) FROM students WHERE is_active = TRUE) AS total_students,
            (SELECT COUNT(*) FROM faculty WHERE is_active = TRUE) AS total_faculty,
            (SELECT COUNT(*) FROM grievances) AS total_grievances,
            (SELECT COUNT(*) FROM grievances g JOIN status s ON s.status_id = g.status_id WHERE s.status_name = 'Pending') AS pending_grievances,
            (SELECT COUNT(*) FROM grievances g JOIN status s ON s.status_id = g.status_id WHERE s.status_name = 'In Progress') AS in_progress_grievances,
            (SELECT COUNT(*) FROM grievances g JOIN status s ON s.status_id = g.status_id WHERE s.status_name = 'Resolved') AS resolved_grievances`
	var totals dto.DashboardTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}
	return &totals, nil
}

// CountByStatus groups grievances by workflow status.
func (r *StatsRepository) CountByStatus(ctx context.Context) ([]dto.StatusCount, error) {
	const query = `SELECT s.status_name, s.color_code, COUNT(g.grievance_id) AS count
        FROM status s
        LEFT JOIN grievances g ON g.status_id = s.status_id
        GROUP BY s.status_id, s.status_name, s.color_code
        ORDER BY s.status_id`
	var counts []dto.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	return counts, nil
}

// CountByCategory groups grievances by active category, top ten only.
func (r *StatsRepository) CountByCategory(ctx context.Context) ([]dto.CategoryCount, error) {
	const query = `SELECT c.category_name, COUNT(g.grievance_id) AS count
        FROM categories c
        LEFT JOIN grievances g ON g.category_id = c.category_id
        WHERE c.is_active = TRUE
        GROUP BY c.category_id, c.category_name
        ORDER BY count DESC
        LIMIT 10`
	var counts []dto.CategoryCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	return counts, nil
}

// CountByPriority groups grievances by priority.
func (r *StatsRepository) CountByPriority(ctx context.Context) ([]dto.PriorityCount, error) {
	const query = `SELECT priority, COUNT(*) AS count
        FROM grievances
        GROUP BY priority
        ORDER BY count DESC`
	var counts []dto.PriorityCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("priority counts: %w", err)
	}
	return counts, nil
}

// MonthlyTrend buckets submissions and resolutions over the last six months.
func (r *StatsRepository) MonthlyTrend(ctx context.Context) ([]dto.MonthlyCount, error) {
	const query = `SELECT TO_CHAR(DATE_TRUNC('month', g.created_at), 'YYYY-MM') AS month,
               COUNT(*) AS total,
               COUNT(*) FILTER (WHERE s.status_name = 'Resolved') AS resolved
        FROM grievances g
        LEFT JOIN status s ON s.status_id = g.status_id
        WHERE g.created_at >= DATE_TRUNC('month', NOW()) - INTERVAL '5 months'
        GROUP BY DATE_TRUNC('month', g.created_at)
        ORDER BY month`
	var trend []dto.MonthlyCount
	if err := r.db.SelectContext(ctx, &trend, query); err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	return trend, nil
}

// RecentGrievances returns the newest submissions for the admin feed.
func (r *StatsRepository) RecentGrievances(ctx context.Context, limit int) ([]dto.RecentGrievance, error) {
	const query = `SELECT g.grievance_id, g.title, g.priority, s.status_name, s.color_code, st.name AS student_name, g.created_at
        FROM grievances g
        LEFT JOIN status s ON s.status_id = g.status_id
        LEFT JOIN students st ON st.student_id = g.student_id
        ORDER BY g.created_at DESC
        LIMIT $1`
	var recent []dto.RecentGrievance
	if err := r.db.SelectContext(ctx, &recent, query, limit); err != nil {
		return nil, fmt.Errorf("recent grievances: %w", err)
	}
	return recent, nil
}

// FacultyWorkloads counts current assignments per active faculty member.
func (r *StatsRepository) FacultyWorkloads(ctx context.Context) ([]dto.FacultyWorkload, error) {
	const query = `SELECT f.faculty_id, f.name, f.department,
               COUNT(g.grievance_id) AS total_assigned,
               COUNT(g.grievance_id) FILTER (WHERE s.status_name = 'Pending') AS pending,
               COUNT(g.grievance_id) FILTER (WHERE s.status_name = 'In Progress') AS in_progress,
               COUNT(g.grievance_id) FILTER (WHERE s.status_name = 'Resolved') AS resolved
        FROM faculty f
        LEFT JOIN grievances g ON g.assigned_to = f.faculty_id
        LEFT JOIN status s ON s.status_id = g.status_id
        WHERE f.is_active = TRUE
        GROUP BY f.faculty_id, f.name, f.department
        ORDER BY total_assigned DESC`
	var workloads []dto.FacultyWorkload
	if err := r.db.SelectContext(ctx, &workloads, query); err != nil {
		return nil, fmt.Errorf("faculty workloads: %w", err)
	}
	return workloads, nil
}
