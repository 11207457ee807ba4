package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/models"
)

// StudentRepository manages student accounts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `student_id, name, email, password, department, contact, enrollment_no, is_active, created_at`

// FindByEmail fetches a student by email, including the password hash.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE LOWER(email) = LOWER($1)", studentColumns)
	var s models.Student
	if err := r.db.GetContext(ctx, &s, query, email); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByID fetches a student by primary key.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE student_id = $1", studentColumns)
	var s models.Student
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// ExistsByEmailOrEnrollment reports whether a student already holds the
// given email or enrollment number.
func (r *StudentRepository) ExistsByEmailOrEnrollment(ctx context.Context, email, enrollmentNo string) (bool, error) {
	const query = `SELECT COUNT(*) FROM students WHERE LOWER(email) = LOWER($1) OR enrollment_no = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, email, enrollmentNo); err != nil {
		return false, fmt.Errorf("check student uniqueness: %w", err)
	}
	return count > 0, nil
}

// Create inserts a student and fills in the generated id and timestamp.
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	const query = `INSERT INTO students (name, email, password, department, contact, enrollment_no)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING student_id, created_at`
	if err := r.db.QueryRowxContext(ctx, query,
		s.Name, s.Email, s.PasswordHash, s.Department, s.Contact, s.EnrollmentNo,
	).Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// List returns students matching the filter with the unpaginated total.
func (r *StudentRepository) List(ctx context.Context, filter models.UserFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR enrollment_no ILIKE $%d)", n, n, n))
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

	base := fmt.Sprintf("FROM students WHERE %s", strings.Join(conditions, " AND "))
	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", studentColumns, base, filter.Limit, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Update applies a partial student update. Returns sql.ErrNoRows when the
// student does not exist.
func (r *StudentRepository) Update(ctx context.Context, id int64, upd models.StudentUpdate) error {
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
	if upd.Active != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *upd.Active)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE students SET %s WHERE student_id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE students SET password = $1 WHERE student_id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("update student password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student password: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
