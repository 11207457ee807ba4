package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

type mockCategoryRepo struct {
	categories   map[int64]*models.Category
	lastActive   bool
	created      *models.Category
	lastUpdate   models.CategoryUpdate
	deactivated  []int64
	updateErr    error
	deactivateErr error
}

func (m *mockCategoryRepo) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	m.lastActive = activeOnly
	var out []models.Category
	for _, c := range m.categories {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (m *mockCategoryRepo) Create(ctx context.Context, c *models.Category) error {
	c.ID = 10
	c.Active = true
	m.created = c
	if m.categories == nil {
		m.categories = make(map[int64]*models.Category)
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) Update(ctx context.Context, id int64, upd models.CategoryUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lastUpdate = upd
	return nil
}

func (m *mockCategoryRepo) Deactivate(ctx context.Context, id int64) error {
	if m.deactivateErr != nil {
		return m.deactivateErr
	}
	m.deactivated = append(m.deactivated, id)
	return nil
}

type mockStatusList struct {
	statuses []models.Status
	err      error
}

func (m *mockStatusList) List(ctx context.Context) ([]models.Status, error) {
	return m.statuses, m.err
}

func TestCategoryListFiltersInactiveForNonAdmins(t *testing.T) {
	repo := &mockCategoryRepo{categories: map[int64]*models.Category{
		10: {ID: 10, Name: "Academic", Active: true},
		11: {ID: 11, Name: "Retired", Active: false},
	}}
	svc := NewCategoryService(repo, &mockStatusList{}, validator.New(), zap.NewNop())

	categories, err := svc.List(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.True(t, repo.lastActive)
	assert.Len(t, categories, 1)

	categories, err = svc.List(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, repo.lastActive)
	assert.Len(t, categories, 2)
}

func TestCategoryCreate(t *testing.T) {
	repo := &mockCategoryRepo{}
	svc := NewCategoryService(repo, &mockStatusList{}, validator.New(), zap.NewNop())

	desc := "Coursework and exams"
	category, err := svc.Create(context.Background(), CreateCategoryRequest{Name: "Academic", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Academic", category.Name)
	assert.True(t, category.Active)
}

func TestCategoryCreateValidates(t *testing.T) {
	svc := NewCategoryService(&mockCategoryRepo{}, &mockStatusList{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateCategoryRequest{Name: "A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCategoryUpdate(t *testing.T) {
	repo := &mockCategoryRepo{categories: map[int64]*models.Category{
		10: {ID: 10, Name: "Academic", Active: true},
	}}
	svc := NewCategoryService(repo, &mockStatusList{}, validator.New(), zap.NewNop())

	name := "Academics"
	category, err := svc.Update(context.Background(), 10, UpdateCategoryRequest{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, repo.lastUpdate.Name)
	assert.Equal(t, "Academics", *repo.lastUpdate.Name)
	assert.Equal(t, int64(10), category.ID)
}

func TestCategoryUpdateRejectsEmpty(t *testing.T) {
	svc := NewCategoryService(&mockCategoryRepo{}, &mockStatusList{}, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), 10, UpdateCategoryRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCategoryUpdateNotFound(t *testing.T) {
	repo := &mockCategoryRepo{updateErr: sql.ErrNoRows}
	svc := NewCategoryService(repo, &mockStatusList{}, validator.New(), zap.NewNop())

	name := "Academics"
	_, err := svc.Update(context.Background(), 99, UpdateCategoryRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCategoryDeactivate(t *testing.T) {
	repo := &mockCategoryRepo{}
	svc := NewCategoryService(repo, &mockStatusList{}, validator.New(), zap.NewNop())

	require.NoError(t, svc.Deactivate(context.Background(), 10))
	assert.Equal(t, []int64{10}, repo.deactivated)
}

func TestCategoryListStatuses(t *testing.T) {
	statuses := &mockStatusList{statuses: []models.Status{
		{ID: 1, Name: models.StatusPending, ColorCode: "#f59e0b"},
		{ID: 2, Name: models.StatusInProgress, ColorCode: "#3b82f6"},
		{ID: 3, Name: models.StatusResolved, ColorCode: "#10b981"},
	}}
	svc := NewCategoryService(&mockCategoryRepo{}, statuses, validator.New(), zap.NewNop())

	out, err := svc.ListStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, models.StatusPending, out[0].Name)
}

func TestCategoryDeactivateNotFound(t *testing.T) {
	repo := &mockCategoryRepo{deactivateErr: sql.ErrNoRows}
	svc := NewCategoryService(repo, &mockStatusList{}, validator.New(), zap.NewNop())

	err := svc.Deactivate(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
