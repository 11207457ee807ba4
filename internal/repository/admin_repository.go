package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/models"
)

// AdminRepository manages administrator accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

const adminColumns = `admin_id, name, email, password, is_active, created_at`

// FindByEmail fetches an admin by email, including the password hash.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE LOWER(email) = LOWER($1)", adminColumns)
	var a models.Admin
	if err := r.db.GetContext(ctx, &a, query, email); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByID fetches an admin by primary key.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE admin_id = $1", adminColumns)
	var a models.Admin
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListActiveIDs returns the ids of all active admins, used for
// notification fan-out.
func (r *AdminRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT admin_id FROM admins WHERE is_active = TRUE`); err != nil {
		return nil, fmt.Errorf("list active admins: %w", err)
	}
	return ids, nil
}

// Update applies a partial profile update.
func (r *AdminRepository) Update(ctx context.Context, id int64, upd models.AdminUpdate) error {
	if upd.Empty() {
		return nil
	}
	res, err := r.db.ExecContext(ctx, `UPDATE admins SET name = $1 WHERE admin_id = $2`, *upd.Name, id)
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE admins SET password = $1 WHERE admin_id = $2`, hash, id); err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return nil
}
