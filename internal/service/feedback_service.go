package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

type feedbackRepository interface {
	FindByGrievance(ctx context.Context, grievanceID int64) (*models.Feedback, error)
	ExistsForGrievance(ctx context.Context, grievanceID int64) (bool, error)
	Create(ctx context.Context, fb *models.Feedback) error
}

// FeedbackService accepts post-resolution feedback. At most one feedback
// row ever exists per grievance.
type FeedbackService struct {
	repo       feedbackRepository
	grievances grievanceAccessRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewFeedbackService constructs the service.
func NewFeedbackService(repo feedbackRepository, grievances grievanceAccessRepository, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{repo: repo, grievances: grievances, validator: validate, logger: logger}
}

// SubmitFeedbackRequest is the feedback payload.
type SubmitFeedbackRequest struct {
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Comments *string `json:"comments" validate:"omitempty,max=500"`
}

// Submit records feedback from the owning student on a resolved grievance.
func (s *FeedbackService) Submit(ctx context.Context, actor models.Actor, grievanceID int64, req SubmitFeedbackRequest) (*models.Feedback, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit feedback")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	detail, err := s.grievances.FindDetailByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grievance")
	}
	if detail.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "feedback is limited to your own grievances")
	}
	if detail.StatusName == nil || *detail.StatusName != models.StatusResolved {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback requires a resolved grievance")
	}

	exists, err := s.repo.ExistsForGrievance(ctx, grievanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check feedback")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "feedback already submitted for this grievance")
	}

	feedback := &models.Feedback{
		GrievanceID: grievanceID,
		StudentID:   actor.ID,
		Rating:      req.Rating,
		Comments:    req.Comments,
	}
	if err := s.repo.Create(ctx, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create feedback")
	}

	s.logger.Info("feedback submitted",
		zap.Int64("grievance_id", grievanceID),
		zap.Int("rating", req.Rating),
	)
	return feedback, nil
}

// Get returns the feedback for a grievance the actor can see.
func (s *FeedbackService) Get(ctx context.Context, actor models.Actor, grievanceID int64) (*models.Feedback, error) {
	detail, err := s.grievances.FindDetailByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grievance")
	}
	if err := authorizeGrievanceView(actor, detail); err != nil {
		return nil, err
	}

	feedback, err := s.repo.FindByGrievance(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no feedback for this grievance")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch feedback")
	}
	return feedback, nil
}
