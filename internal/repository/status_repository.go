package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/models"
)

// StatusRepository resolves workflow status rows by name and id.
type StatusRepository struct {
	db *sqlx.DB
}

// NewStatusRepository constructs a StatusRepository.
func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// FindByName looks a status up by its case-insensitive name.
func (r *StatusRepository) FindByName(ctx context.Context, name string) (*models.Status, error) {
	const query = `SELECT status_id, status_name, color_code FROM status WHERE LOWER(status_name) = LOWER($1)`
	var s models.Status
	if err := r.db.GetContext(ctx, &s, query, name); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByID looks a status up by primary key.
func (r *StatusRepository) FindByID(ctx context.Context, id int64) (*models.Status, error) {
	const query = `SELECT status_id, status_name, color_code FROM status WHERE status_id = $1`
	var s models.Status
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns every status ordered by id.
func (r *StatusRepository) List(ctx context.Context) ([]models.Status, error) {
	const query = `SELECT status_id, status_name, color_code FROM status ORDER BY status_id`
	var statuses []models.Status
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}
