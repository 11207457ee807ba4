package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/dto"
	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

type mockStatsRepo struct {
	studentCalls int
	totalsCalls  int
}

func (m *mockStatsRepo) StudentStats(ctx context.Context, studentID int64) (*dto.StudentStats, error) {
	m.studentCalls++
	return &dto.StudentStats{Total: 3, Pending: 1, Resolved: 2}, nil
}

func (m *mockStatsRepo) FacultyStats(ctx context.Context, facultyID int64) (*dto.FacultyStats, error) {
	return &dto.FacultyStats{TotalAssigned: 4, InProgress: 2}, nil
}

func (m *mockStatsRepo) DashboardTotals(ctx context.Context) (*dto.DashboardTotals, error) {
	m.totalsCalls++
	return &dto.DashboardTotals{TotalGrievances: 10, PendingGrievances: 4}, nil
}

func (m *mockStatsRepo) CountByStatus(ctx context.Context) ([]dto.StatusCount, error) {
	return []dto.StatusCount{{StatusName: "Pending", Count: 4}}, nil
}

func (m *mockStatsRepo) CountByCategory(ctx context.Context) ([]dto.CategoryCount, error) {
	return []dto.CategoryCount{{CategoryName: "Academic", Count: 6}}, nil
}

func (m *mockStatsRepo) CountByPriority(ctx context.Context) ([]dto.PriorityCount, error) {
	return []dto.PriorityCount{{Priority: "high", Count: 2}}, nil
}

func (m *mockStatsRepo) MonthlyTrend(ctx context.Context) ([]dto.MonthlyCount, error) {
	return []dto.MonthlyCount{{Month: "2026-08", Total: 5, Resolved: 3}}, nil
}

func (m *mockStatsRepo) RecentGrievances(ctx context.Context, limit int) ([]dto.RecentGrievance, error) {
	return []dto.RecentGrievance{{GrievanceID: 1, Title: "Broken projector"}}, nil
}

func (m *mockStatsRepo) FacultyWorkloads(ctx context.Context) ([]dto.FacultyWorkload, error) {
	return []dto.FacultyWorkload{{FacultyID: 7, Name: "Dr. Rao", TotalAssigned: 4}}, nil
}

// memoryCacheRepo is an in-process CacheRepository for exercising the
// dashboard cache path without redis.
type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
	return nil
}

func TestStatsStudentDashboard(t *testing.T) {
	svc := NewStatsService(&mockStatsRepo{}, nil, 0, zap.NewNop())

	stats, err := svc.StudentDashboard(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)

	_, err = svc.StudentDashboard(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStatsFacultyDashboard(t *testing.T) {
	svc := NewStatsService(&mockStatsRepo{}, nil, 0, zap.NewNop())

	stats, err := svc.FacultyDashboard(context.Background(), models.Actor{ID: 7, Role: models.RoleFaculty})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalAssigned)

	_, err = svc.FacultyDashboard(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent})
	require.Error(t, err)
}

func TestStatsAdminDashboardComposesRollups(t *testing.T) {
	repo := &mockStatsRepo{}
	svc := NewStatsService(repo, nil, 0, zap.NewNop())

	stats, err := svc.AdminDashboard(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Totals.TotalGrievances)
	assert.Len(t, stats.ByStatus, 1)
	assert.Len(t, stats.Monthly, 1)
	assert.Len(t, stats.RecentGrievances, 1)
}

func TestStatsAdminDashboardServedFromCache(t *testing.T) {
	repo := &mockStatsRepo{}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewStatsService(repo, cache, time.Minute, zap.NewNop())
	admin := models.Actor{ID: 1, Role: models.RoleAdmin}

	_, err := svc.AdminDashboard(context.Background(), admin)
	require.NoError(t, err)
	_, err = svc.AdminDashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.totalsCalls)

	// lifecycle writes invalidate with the stats prefix
	require.NoError(t, cache.Invalidate(context.Background(), "stats:*"))
	_, err = svc.AdminDashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.totalsCalls)
}

func TestStatsAdminDashboardAdminOnly(t *testing.T) {
	svc := NewStatsService(&mockStatsRepo{}, nil, 0, zap.NewNop())

	_, err := svc.AdminDashboard(context.Background(), models.Actor{ID: 7, Role: models.RoleFaculty})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStatsFacultyWorkloads(t *testing.T) {
	svc := NewStatsService(&mockStatsRepo{}, nil, 0, zap.NewNop())

	workloads, err := svc.FacultyWorkloads(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, workloads, 1)
	assert.Equal(t, int64(7), workloads[0].FacultyID)

	_, err = svc.FacultyWorkloads(context.Background(), models.Actor{ID: 7, Role: models.RoleFaculty})
	require.Error(t, err)
}
