package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/dto"
	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

const (
	dashboardCacheKey = "stats:dashboard"
	recentFeedLimit   = 5
)

type statsRepository interface {
	StudentStats(ctx context.Context, studentID int64) (*dto.StudentStats, error)
	FacultyStats(ctx context.Context, facultyID int64) (*dto.FacultyStats, error)
	DashboardTotals(ctx context.Context) (*dto.DashboardTotals, error)
	CountByStatus(ctx context.Context) ([]dto.StatusCount, error)
	CountByCategory(ctx context.Context) ([]dto.CategoryCount, error)
	CountByPriority(ctx context.Context) ([]dto.PriorityCount, error)
	MonthlyTrend(ctx context.Context) ([]dto.MonthlyCount, error)
	RecentGrievances(ctx context.Context, limit int) ([]dto.RecentGrievance, error)
	FacultyWorkloads(ctx context.Context) ([]dto.FacultyWorkload, error)
}

// StatsService computes the role dashboards. The admin dashboard is the
// expensive one, so it is served from cache when possible and invalidated
// on every lifecycle write.
type StatsService struct {
	repo     statsRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewStatsService constructs the service.
func NewStatsService(repo statsRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// StudentDashboard summarises the acting student's grievances.
func (s *StatsService) StudentDashboard(ctx context.Context, actor models.Actor) (*dto.StudentStats, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student dashboard is limited to students")
	}
	stats, err := s.repo.StudentStats(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute student stats")
	}
	return stats, nil
}

// FacultyDashboard summarises the acting faculty member's workload.
func (s *StatsService) FacultyDashboard(ctx context.Context, actor models.Actor) (*dto.FacultyStats, error) {
	if actor.Role != models.RoleFaculty {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "faculty dashboard is limited to faculty")
	}
	stats, err := s.repo.FacultyStats(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute faculty stats")
	}
	return stats, nil
}

// AdminDashboard composes the system-wide rollups. Empty tables produce
// zero counters, never errors.
func (s *StatsService) AdminDashboard(ctx context.Context, actor models.Actor) (*dto.DashboardStats, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin dashboard is limited to admins")
	}

	var cached dto.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	totals, err := s.repo.DashboardTotals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute totals")
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute status counts")
	}
	byCategory, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute category counts")
	}
	byPriority, err := s.repo.CountByPriority(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute priority counts")
	}
	monthly, err := s.repo.MonthlyTrend(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute monthly trend")
	}
	recent, err := s.repo.RecentGrievances(ctx, recentFeedLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch recent grievances")
	}

	stats := &dto.DashboardStats{
		Totals:           *totals,
		ByStatus:         byStatus,
		ByCategory:       byCategory,
		ByPriority:       byPriority,
		Monthly:          monthly,
		RecentGrievances: recent,
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard", zap.Error(err))
	}
	return stats, nil
}

// FacultyWorkloads reports assignment load per active faculty member.
func (s *StatsService) FacultyWorkloads(ctx context.Context, actor models.Actor) ([]dto.FacultyWorkload, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "workload view is limited to admins")
	}
	workloads, err := s.repo.FacultyWorkloads(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute workloads")
	}
	return workloads, nil
}
