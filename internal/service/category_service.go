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

type categoryRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, id int64, upd models.CategoryUpdate) error
	Deactivate(ctx context.Context, id int64) error
}

type statusLister interface {
	List(ctx context.Context) ([]models.Status, error)
}

// CategoryService manages the grievance reference vocabularies: categories
// and workflow statuses. Reads are open to every authenticated role; category
// writes are admin only and enforced at the routing layer.
type CategoryService struct {
	repo      categoryRepository
	statuses  statusLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs the service.
func NewCategoryService(repo categoryRepository, statuses statusLister, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, statuses: statuses, validator: validate, logger: logger}
}

// CreateCategoryRequest is the admin category payload.
type CreateCategoryRequest struct {
	Name        string  `json:"category_name" validate:"required,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
}

// UpdateCategoryRequest is the partial category update payload.
type UpdateCategoryRequest struct {
	Name        *string `json:"category_name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
	Active      *bool   `json:"is_active"`
}

// List returns categories. Non-admin callers only see active ones.
func (s *CategoryService) List(ctx context.Context, actor models.Actor) ([]models.Category, error) {
	categories, err := s.repo.List(ctx, actor.Role != models.RoleAdmin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// ListStatuses returns the workflow status vocabulary in display order.
func (s *CategoryService) ListStatuses(ctx context.Context) ([]models.Status, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list statuses")
	}
	return statuses, nil
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
		Department:  req.Department,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	s.logger.Info("category created", zap.Int64("category_id", category.ID), zap.String("name", category.Name))
	return category, nil
}

// Update applies a partial category update.
func (s *CategoryService) Update(ctx context.Context, id int64, req UpdateCategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	upd := models.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		Department:  req.Department,
		Active:      req.Active,
	}
	if upd.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}
	if err := s.repo.Update(ctx, id, upd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch category")
	}
	return category, nil
}

// Deactivate soft-disables a category. Existing grievances keep their
// reference; new submissions cannot use it.
func (s *CategoryService) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate category")
	}
	s.logger.Info("category deactivated", zap.Int64("category_id", id))
	return nil
}
