package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sgms/grievance-api/internal/models"
)

// FeedbackRepository manages post-resolution feedback rows.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs a FeedbackRepository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// FindByGrievance fetches the feedback for a grievance, if any.
func (r *FeedbackRepository) FindByGrievance(ctx context.Context, grievanceID int64) (*models.Feedback, error) {
	const query = `SELECT feedback_id, grievance_id, student_id, rating, comments, created_at FROM feedback WHERE grievance_id = $1`
	var fb models.Feedback
	if err := r.db.GetContext(ctx, &fb, query, grievanceID); err != nil {
		return nil, err
	}
	return &fb, nil
}

// ExistsForGrievance reports whether feedback was already submitted for a
// grievance.
func (r *FeedbackRepository) ExistsForGrievance(ctx context.Context, grievanceID int64) (bool, error) {
	const query = `SELECT COUNT(*) FROM feedback WHERE grievance_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, grievanceID); err != nil {
		return false, fmt.Errorf("check feedback existence: %w", err)
	}
	return count > 0, nil
}

// Create inserts a feedback row and fills in the generated id and timestamp.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	const query = `INSERT INTO feedback (grievance_id, student_id, rating, comments)
        VALUES ($1, $2, $3, $4)
        RETURNING feedback_id, created_at`
	if err := r.db.QueryRowxContext(ctx, query,
		fb.GrievanceID, fb.StudentID, fb.Rating, fb.Comments,
	).Scan(&fb.ID, &fb.CreatedAt); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}
