package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/models"
	"github.com/sgms/grievance-api/internal/repository"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

type grievanceRepository interface {
	List(ctx context.Context, scope repository.GrievanceScope, filter models.GrievanceFilter) ([]models.GrievanceDetail, int, error)
	FindDetailByID(ctx context.Context, id int64) (*models.GrievanceDetail, error)
	Create(ctx context.Context, g *models.Grievance) error
	Assign(ctx context.Context, grievanceID, facultyID, statusID int64) error
	Update(ctx context.Context, id int64, upd models.GrievanceUpdate, markResolved bool) error
	Delete(ctx context.Context, id int64) error
}

type statusLookupRepository interface {
	FindByName(ctx context.Context, name string) (*models.Status, error)
}

type categoryLookupRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Category, error)
}

type facultyLookupRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Faculty, error)
}

// notifier delivers lifecycle notifications without blocking the caller.
type notifier interface {
	Push(userID int64, role models.Role, message string)
	PushAdmins(message string)
}

// attachmentRemover cleans up stored attachment files.
type attachmentRemover interface {
	Delete(relPath string) error
}

// GrievanceService drives the grievance lifecycle: submission, assignment,
// progress updates, and deletion, with role-based access checks.
type GrievanceService struct {
	repo        grievanceRepository
	statuses    statusLookupRepository
	categories  categoryLookupRepository
	faculty     facultyLookupRepository
	notifier    notifier
	attachments attachmentRemover
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGrievanceService constructs the service. notifier, attachments, cache,
// and metrics may be nil; the corresponding side effects are skipped.
func NewGrievanceService(
	repo grievanceRepository,
	statuses statusLookupRepository,
	categories categoryLookupRepository,
	faculty facultyLookupRepository,
	notifier notifier,
	attachments attachmentRemover,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *GrievanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrievanceService{
		repo:        repo,
		statuses:    statuses,
		categories:  categories,
		faculty:     faculty,
		notifier:    notifier,
		attachments: attachments,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// SubmitGrievanceRequest is the student submission payload.
type SubmitGrievanceRequest struct {
	CategoryID     int64   `json:"category_id" validate:"required,gt=0"`
	Title          string  `json:"title" validate:"required,min=5,max=200"`
	Description    string  `json:"description" validate:"required,min=20"`
	Priority       string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	AttachmentPath *string `json:"-"`
}

// UpdateGrievanceRequest is the partial faculty/admin update payload. All
// fields are optional but at least one must be present.
type UpdateGrievanceRequest struct {
	Status          *string `json:"status" validate:"omitempty,min=1"`
	ResolutionNotes *string `json:"resolution_notes" validate:"omitempty,max=2000"`
	Priority        *string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// ListGrievancesRequest carries list predicates plus pagination.
type ListGrievancesRequest struct {
	Status     string
	CategoryID int64
	Priority   string
	Department string
	Search     string
	Page       int
	Limit      int
}

// Submit files a new grievance for the acting student. The grievance always
// starts Pending and unassigned.
func (s *GrievanceService) Submit(ctx context.Context, actor models.Actor, req SubmitGrievanceRequest) (*models.GrievanceDetail, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit grievances")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grievance payload")
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}

	category, err := s.categories.FindByID(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch category")
	}
	if !category.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category is inactive")
	}

	pending, err := s.statuses.FindByName(ctx, models.StatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve initial status")
	}

	grievance := &models.Grievance{
		StudentID:      actor.ID,
		CategoryID:     req.CategoryID,
		StatusID:       pending.ID,
		Title:          req.Title,
		Description:    req.Description,
		AttachmentPath: req.AttachmentPath,
		Priority:       req.Priority,
	}
	if err := s.repo.Create(ctx, grievance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grievance")
	}

	detail, err := s.repo.FindDetailByID(ctx, grievance.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grievance")
	}

	if s.notifier != nil {
		s.notifier.PushAdmins(fmt.Sprintf("New grievance #%d submitted: %s", grievance.ID, grievance.Title))
	}
	s.metrics.RecordGrievanceEvent("submitted")
	s.invalidateDashboards(ctx)

	s.logger.Info("grievance submitted",
		zap.Int64("grievance_id", grievance.ID),
		zap.Int64("student_id", actor.ID),
		zap.String("priority", grievance.Priority),
	)
	return detail, nil
}

// Get returns a grievance visible to the actor: students see their own,
// faculty their assignments, admins everything.
func (s *GrievanceService) Get(ctx context.Context, actor models.Actor, id int64) (*models.GrievanceDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grievance")
	}
	if err := authorizeGrievanceView(actor, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns grievances scoped to the actor's role with pagination.
// Out-of-range page or limit values are rejected, not clamped.
func (s *GrievanceService) List(ctx context.Context, actor models.Actor, req ListGrievancesRequest) ([]models.GrievanceDetail, *models.Pagination, error) {
	if req.Page < 1 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "page must be at least 1")
	}
	if req.Limit < 1 || req.Limit > 100 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "limit must be between 1 and 100")
	}
	if req.Priority != "" && !models.ValidPriority(req.Priority) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid priority filter")
	}
	if req.CategoryID < 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid category filter")
	}

	scope := repository.GrievanceScope{}
	switch actor.Role {
	case models.RoleStudent:
		scope.StudentID = actor.ID
	case models.RoleFaculty:
		scope.FacultyID = actor.ID
	case models.RoleAdmin:
		scope.Admin = true
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}

	filter := models.GrievanceFilter{
		Status:     req.Status,
		CategoryID: req.CategoryID,
		Priority:   req.Priority,
		Department: req.Department,
		Search:     req.Search,
		Page:       req.Page,
		Limit:      req.Limit,
	}
	rows, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grievances")
	}
	return rows, models.NewPagination(req.Page, req.Limit, total), nil
}

// Assign routes a grievance to a faculty member and forces the status to
// In Progress. Admin only; reassignment is allowed.
func (s *GrievanceService) Assign(ctx context.Context, actor models.Actor, grievanceID, facultyID int64) (*models.GrievanceDetail, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can assign grievances")
	}

	detail, err := s.repo.FindDetailByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grievance")
	}

	faculty, err := s.faculty.FindByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch faculty")
	}
	if !faculty.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
	}

	inProgress, err := s.statuses.FindByName(ctx, models.StatusInProgress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve status")
	}

	if err := s.repo.Assign(ctx, grievanceID, facultyID, inProgress.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign grievance")
	}

	if s.notifier != nil {
		s.notifier.Push(facultyID, models.RoleFaculty, fmt.Sprintf("Grievance #%d has been assigned to you: %s", grievanceID, detail.Title))
		s.notifier.Push(detail.StudentID, models.RoleStudent, fmt.Sprintf("Your grievance #%d is now being handled", grievanceID))
	}
	s.metrics.RecordGrievanceEvent("assigned")
	s.invalidateDashboards(ctx)

	s.logger.Info("grievance assigned",
		zap.Int64("grievance_id", grievanceID),
		zap.Int64("faculty_id", facultyID),
	)
	return s.repo.FindDetailByID(ctx, grievanceID)
}

// Update applies a partial update. Faculty may only touch grievances
// assigned to them; admins may touch any. Transitioning to Resolved stamps
// the resolution timestamp exactly once.
func (s *GrievanceService) Update(ctx context.Context, actor models.Actor, grievanceID int64, req UpdateGrievanceRequest) (*models.GrievanceDetail, error) {
	if actor.Role != models.RoleFaculty && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty and admins can update grievances")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	if req.Status == nil && req.ResolutionNotes == nil && req.Priority == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}

	detail, err := s.repo.FindDetailByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grievance")
	}
	if actor.Role == models.RoleFaculty {
		if detail.AssignedTo == nil || *detail.AssignedTo != actor.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "grievance is not assigned to you")
		}
	}

	upd := models.GrievanceUpdate{
		ResolutionNotes: req.ResolutionNotes,
		Priority:        req.Priority,
	}

	markResolved := false
	var newStatusName string
	if req.Status != nil {
		status, err := s.statuses.FindByName(ctx, *req.Status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve status")
		}
		upd.StatusID = &status.ID
		newStatusName = status.Name
		if status.Name == models.StatusResolved && detail.ResolvedAt == nil {
			markResolved = true
		}
	}

	if err := s.repo.Update(ctx, grievanceID, upd, markResolved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grievance")
	}

	if s.notifier != nil && newStatusName != "" {
		s.notifier.Push(detail.StudentID, models.RoleStudent, fmt.Sprintf("Your grievance #%d status changed to %s", grievanceID, newStatusName))
	}
	if markResolved {
		s.metrics.RecordGrievanceEvent("resolved")
	}
	s.invalidateDashboards(ctx)

	s.logger.Info("grievance updated",
		zap.Int64("grievance_id", grievanceID),
		zap.Int64("actor_id", actor.ID),
		zap.String("role", string(actor.Role)),
	)
	return s.repo.FindDetailByID(ctx, grievanceID)
}

// Delete removes a grievance and its stored attachment. Admin only.
// Dependent rows (messages, feedback, notifications) cascade in the store.
func (s *GrievanceService) Delete(ctx context.Context, actor models.Actor, grievanceID int64) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can delete grievances")
	}

	detail, err := s.repo.FindDetailByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grievance")
	}

	if err := s.repo.Delete(ctx, grievanceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grievance")
	}

	// Attachment cleanup is best effort; the row is already gone.
	if s.attachments != nil && detail.AttachmentPath != nil {
		if err := s.attachments.Delete(*detail.AttachmentPath); err != nil {
			s.logger.Warn("failed to remove attachment",
				zap.Int64("grievance_id", grievanceID),
				zap.String("path", *detail.AttachmentPath),
				zap.Error(err),
			)
		}
	}

	s.metrics.RecordGrievanceEvent("deleted")
	s.invalidateDashboards(ctx)

	s.logger.Info("grievance deleted", zap.Int64("grievance_id", grievanceID))
	return nil
}

func (s *GrievanceService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "stats:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
