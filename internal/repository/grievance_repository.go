package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/models"
)

// GrievanceRepository manages persistence for grievance rows and the joined
// detail projections backing the dashboards.
type GrievanceRepository struct {
	db *sqlx.DB
}

// NewGrievanceRepository constructs a GrievanceRepository.
func NewGrievanceRepository(db *sqlx.DB) *GrievanceRepository {
	return &GrievanceRepository{db: db}
}

// GrievanceScope narrows a list query to the requesting actor's view.
// Exactly one of StudentID/FacultyID is set for the role-scoped views;
// Admin widens search columns and enables the department predicate.
type GrievanceScope struct {
	StudentID int64
	FacultyID int64
	Admin     bool
}

const grievanceDetailColumns = `g.grievance_id, g.student_id, g.category_id, g.status_id, g.assigned_to, g.title, g.description, g.attachment_path, g.priority, g.resolution_notes, g.created_at, g.resolved_at,
        c.category_name, s.status_name, s.color_code,
        st.name AS student_name, st.email AS student_email, st.department AS student_department, st.enrollment_no,
        f.name AS assigned_faculty_name, f.email AS assigned_faculty_email`

const grievanceJoins = `FROM grievances g
        LEFT JOIN categories c ON c.category_id = g.category_id
        LEFT JOIN status s ON s.status_id = g.status_id
        LEFT JOIN students st ON st.student_id = g.student_id
        LEFT JOIN faculty f ON f.faculty_id = g.assigned_to`

// List returns grievances matching the scope and filters together with the
// unpaginated total. The data and COUNT queries share the same predicate
// set and arguments.
func (r *GrievanceRepository) List(ctx context.Context, scope GrievanceScope, filter models.GrievanceFilter) ([]models.GrievanceDetail, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if scope.StudentID > 0 {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, scope.StudentID)
	}
	if scope.FacultyID > 0 {
		conditions = append(conditions, fmt.Sprintf("g.assigned_to = $%d", len(args)+1))
		args = append(args, scope.FacultyID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.status_name) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.CategoryID > 0 {
		conditions = append(conditions, fmt.Sprintf("g.category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("g.priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if scope.Admin && filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("st.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		n := len(args) + 1
		if scope.Admin {
			conditions = append(conditions, fmt.Sprintf("(g.title ILIKE $%d OR g.description ILIKE $%d OR st.name ILIKE $%d OR st.email ILIKE $%d OR st.enrollment_no ILIKE $%d)", n, n, n, n, n))
		} else {
			conditions = append(conditions, fmt.Sprintf("(g.title ILIKE $%d OR g.description ILIKE $%d)", n, n))
		}
		args = append(args, "%"+filter.Search+"%")
	}

	base := fmt.Sprintf("%s WHERE %s", grievanceJoins, strings.Join(conditions, " AND "))

	orderBy := "g.priority DESC, g.created_at DESC"
	if scope.StudentID > 0 {
		orderBy = "g.created_at DESC"
	}
	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", grievanceDetailColumns, base, orderBy, filter.Limit, offset)

	var rows []models.GrievanceDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grievances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grievances: %w", err)
	}
	return rows, total, nil
}

// FindDetailByID fetches a fully joined grievance by id.
func (r *GrievanceRepository) FindDetailByID(ctx context.Context, id int64) (*models.GrievanceDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE g.grievance_id = $1", grievanceDetailColumns, grievanceJoins)
	var detail models.GrievanceDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a grievance and fills in the generated id and timestamp.
func (r *GrievanceRepository) Create(ctx context.Context, g *models.Grievance) error {
	const query = `INSERT INTO grievances (student_id, category_id, status_id, title, description, attachment_path, priority)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING grievance_id, created_at`
	if err := r.db.QueryRowxContext(ctx, query,
		g.StudentID, g.CategoryID, g.StatusID, g.Title, g.Description, g.AttachmentPath, g.Priority,
	).Scan(&g.ID, &g.CreatedAt); err != nil {
		return fmt.Errorf("create grievance: %w", err)
	}
	return nil
}

// Assign sets the assigned faculty and forces the supplied status. Returns
// sql.ErrNoRows when the grievance does not exist.
func (r *GrievanceRepository) Assign(ctx context.Context, grievanceID, facultyID, statusID int64) error {
	const query = `UPDATE grievances SET assigned_to = $1, status_id = $2 WHERE grievance_id = $3`
	res, err := r.db.ExecContext(ctx, query, facultyID, statusID, grievanceID)
	if err != nil {
		return fmt.Errorf("assign grievance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign grievance: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Update applies a partial update, only touching supplied fields. When
// markResolved is true the resolution timestamp is stamped alongside.
// Returns sql.ErrNoRows when the grievance does not exist.
func (r *GrievanceRepository) Update(ctx context.Context, id int64, upd models.GrievanceUpdate, markResolved bool) error {
	sets := []string{}
	args := []interface{}{}

	if upd.StatusID != nil {
		sets = append(sets, fmt.Sprintf("status_id = $%d", len(args)+1))
		args = append(args, *upd.StatusID)
	}
	if upd.ResolutionNotes != nil {
		sets = append(sets, fmt.Sprintf("resolution_notes = $%d", len(args)+1))
		args = append(args, *upd.ResolutionNotes)
	}
	if upd.Priority != nil {
		sets = append(sets, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, *upd.Priority)
	}
	if markResolved {
		sets = append(sets, "resolved_at = NOW()")
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE grievances SET %s WHERE grievance_id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update grievance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update grievance: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a grievance row. Returns sql.ErrNoRows when absent.
func (r *GrievanceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grievances WHERE grievance_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete grievance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete grievance: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
