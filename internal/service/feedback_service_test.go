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

type mockFeedbackRepo struct {
	feedback *models.Feedback
	exists   bool
	created  *models.Feedback
}

func (m *mockFeedbackRepo) FindByGrievance(ctx context.Context, grievanceID int64) (*models.Feedback, error) {
	if m.feedback == nil {
		return nil, sql.ErrNoRows
	}
	return m.feedback, nil
}

func (m *mockFeedbackRepo) ExistsForGrievance(ctx context.Context, grievanceID int64) (bool, error) {
	return m.exists, nil
}

func (m *mockFeedbackRepo) Create(ctx context.Context, fb *models.Feedback) error {
	fb.ID = 1
	m.created = fb
	return nil
}

func feedbackFixture(statusName string) *mockGrievanceAccess {
	return &mockGrievanceAccess{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5}, StatusName: &statusName},
	}}
}

func TestFeedbackSubmitOnResolvedGrievance(t *testing.T) {
	repo := &mockFeedbackRepo{}
	svc := NewFeedbackService(repo, feedbackFixture(models.StatusResolved), validator.New(), zap.NewNop())

	comments := "Quick turnaround, thanks."
	fb, err := svc.Submit(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, 1, SubmitFeedbackRequest{Rating: 4, Comments: &comments})
	require.NoError(t, err)
	assert.Equal(t, int64(1), fb.GrievanceID)
	assert.Equal(t, int64(5), fb.StudentID)
	assert.Equal(t, 4, repo.created.Rating)
}

func TestFeedbackSubmitRequiresResolvedStatus(t *testing.T) {
	svc := NewFeedbackService(&mockFeedbackRepo{}, feedbackFixture(models.StatusInProgress), validator.New(), zap.NewNop())

	_, err := svc.Submit(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, 1, SubmitFeedbackRequest{Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeedbackSubmitConflictsWhenAlreadyGiven(t *testing.T) {
	repo := &mockFeedbackRepo{exists: true}
	svc := NewFeedbackService(repo, feedbackFixture(models.StatusResolved), validator.New(), zap.NewNop())

	_, err := svc.Submit(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, 1, SubmitFeedbackRequest{Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestFeedbackSubmitLimitedToOwner(t *testing.T) {
	svc := NewFeedbackService(&mockFeedbackRepo{}, feedbackFixture(models.StatusResolved), validator.New(), zap.NewNop())

	_, err := svc.Submit(context.Background(), models.Actor{ID: 6, Role: models.RoleStudent}, 1, SubmitFeedbackRequest{Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Submit(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, 1, SubmitFeedbackRequest{Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestFeedbackSubmitRatingBounds(t *testing.T) {
	svc := NewFeedbackService(&mockFeedbackRepo{}, feedbackFixture(models.StatusResolved), validator.New(), zap.NewNop())
	actor := models.Actor{ID: 5, Role: models.RoleStudent}

	_, err := svc.Submit(context.Background(), actor, 1, SubmitFeedbackRequest{Rating: 0})
	require.Error(t, err)

	_, err = svc.Submit(context.Background(), actor, 1, SubmitFeedbackRequest{Rating: 6})
	require.Error(t, err)
}

func TestFeedbackGet(t *testing.T) {
	comments := "good"
	repo := &mockFeedbackRepo{feedback: &models.Feedback{ID: 1, GrievanceID: 1, StudentID: 5, Rating: 5, Comments: &comments}}
	svc := NewFeedbackService(repo, feedbackFixture(models.StatusResolved), validator.New(), zap.NewNop())

	fb, err := svc.Get(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, fb.Rating)

	_, err = svc.Get(context.Background(), models.Actor{ID: 6, Role: models.RoleStudent}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestFeedbackGetNotFound(t *testing.T) {
	svc := NewFeedbackService(&mockFeedbackRepo{}, feedbackFixture(models.StatusResolved), validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
