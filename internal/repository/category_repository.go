package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/models"
)

// CategoryRepository manages grievance categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `category_id, category_name, description, department, is_active, created_at`

// List returns categories ordered by name. When activeOnly is set, only
// active categories are returned.
func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM categories", categoryColumns)
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY category_name"

	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID fetches a single category.
func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM categories WHERE category_id = $1", categoryColumns)
	var c models.Category
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a category and fills in the generated id and timestamp.
func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	const query = `INSERT INTO categories (category_name, description, department)
        VALUES ($1, $2, $3)
        RETURNING category_id, is_active, created_at`
	if err := r.db.QueryRowxContext(ctx, query, c.Name, c.Description, c.Department).
		Scan(&c.ID, &c.Active, &c.CreatedAt); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update applies a partial category update. Returns sql.ErrNoRows when the
// category does not exist.
func (r *CategoryRepository) Update(ctx context.Context, id int64, upd models.CategoryUpdate) error {
	sets := []string{}
	args := []interface{}{}
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("category_name = $%d", len(args)+1))
		args = append(args, *upd.Name)
	}
	if upd.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)+1))
		args = append(args, *upd.Description)
	}
	if upd.Department != nil {
		sets = append(sets, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, *upd.Department)
	}
	if upd.Active != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *upd.Active)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE categories SET %s WHERE category_id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-disables a category so existing grievances keep their
// reference. Returns sql.ErrNoRows when absent.
func (r *CategoryRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET is_active = FALSE WHERE category_id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
