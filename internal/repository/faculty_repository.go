package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/models"
)

// FacultyRepository manages faculty accounts.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

const facultyColumns = `faculty_id, name, email, password, department, contact, designation, employee_id, is_active, created_at`

// FindByEmail fetches a faculty member by email, including the password hash.
func (r *FacultyRepository) FindByEmail(ctx context.Context, email string) (*models.Faculty, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty WHERE LOWER(email) = LOWER($1)", facultyColumns)
	var f models.Faculty
	if err := r.db.GetContext(ctx, &f, query, email); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindByID fetches a faculty member by primary key.
func (r *FacultyRepository) FindByID(ctx context.Context, id int64) (*models.Faculty, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty WHERE faculty_id = $1", facultyColumns)
	var f models.Faculty
	if err := r.db.GetContext(ctx, &f, query, id); err != nil {
		return nil, err
	}
	return &f, nil
}

// ExistsByEmailOrEmployeeID reports whether a faculty member already holds
// the given email or employee id.
func (r *FacultyRepository) ExistsByEmailOrEmployeeID(ctx context.Context, email, employeeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM faculty WHERE LOWER(email) = LOWER($1) OR employee_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, email, employeeID); err != nil {
		return false, fmt.Errorf("check faculty uniqueness: %w", err)
	}
	return count > 0, nil
}

// Create inserts a faculty member and fills in the generated id and timestamp.
func (r *FacultyRepository) Create(ctx context.Context, f *models.Faculty) error {
	const query = `INSERT INTO faculty (name, email, password, department, contact, designation, employee_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING faculty_id, created_at`
	if err := r.db.QueryRowxContext(ctx, query,
		f.Name, f.Email, f.PasswordHash, f.Department, f.Contact, f.Designation, f.EmployeeID,
	).Scan(&f.ID, &f.CreatedAt); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// List returns faculty matching the filter with the unpaginated total.
func (r *FacultyRepository) List(ctx context.Context, filter models.UserFilter) ([]models.Faculty, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR employee_id ILIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	base := fmt.Sprintf("FROM faculty WHERE %s", strings.Join(conditions, " AND "))
	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", facultyColumns, base, filter.Limit, offset)

	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}
	return faculty, total, nil
}

// Update applies a partial faculty update. Returns sql.ErrNoRows when the
// faculty member does not exist.
func (r *FacultyRepository) Update(ctx context.Context, id int64, upd models.FacultyUpdate) error {
	sets := []string{}
	args := []interface{}{}
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)+1))
		args = append(args, *upd.Name)
	}
	if upd.Department != nil {
		sets = append(sets, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, *upd.Department)
	}
	if upd.Contact != nil {
		sets = append(sets, fmt.Sprintf("contact = $%d", len(args)+1))
		args = append(args, *upd.Contact)
	}
	if upd.Designation != nil {
		sets = append(sets, fmt.Sprintf("designation = $%d", len(args)+1))
		args = append(args, *upd.Designation)
	}
	if upd.Active != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *upd.Active)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE faculty SET %s WHERE faculty_id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *FacultyRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE faculty SET password = $1 WHERE faculty_id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("update faculty password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update faculty password: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
