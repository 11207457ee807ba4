package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/models"
	"github.com/sgms/grievance-api/internal/repository"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

type mockGrievanceRepo struct {
	details     map[int64]*models.GrievanceDetail
	listRows    []models.GrievanceDetail
	listTotal   int
	lastScope   repository.GrievanceScope
	lastFilter  models.GrievanceFilter
	created     *models.Grievance
	assigned    bool
	assignedTo  int64
	statusSet   int64
	lastUpdate  models.GrievanceUpdate
	markedRes   bool
	deleted     []int64
	createErr   error
	updateErr   error
	deleteErr   error
}

func (m *mockGrievanceRepo) List(ctx context.Context, scope repository.GrievanceScope, filter models.GrievanceFilter) ([]models.GrievanceDetail, int, error) {
	m.lastScope = scope
	m.lastFilter = filter
	return m.listRows, m.listTotal, nil
}

func (m *mockGrievanceRepo) FindDetailByID(ctx context.Context, id int64) (*models.GrievanceDetail, error) {
	detail, ok := m.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (m *mockGrievanceRepo) Create(ctx context.Context, g *models.Grievance) error {
	if m.createErr != nil {
		return m.createErr
	}
	g.ID = 1
	g.CreatedAt = time.Now()
	m.created = g
	if m.details == nil {
		m.details = make(map[int64]*models.GrievanceDetail)
	}
	m.details[g.ID] = &models.GrievanceDetail{Grievance: *g}
	return nil
}

func (m *mockGrievanceRepo) Assign(ctx context.Context, grievanceID, facultyID, statusID int64) error {
	if _, ok := m.details[grievanceID]; !ok {
		return sql.ErrNoRows
	}
	m.assigned = true
	m.assignedTo = facultyID
	m.statusSet = statusID
	return nil
}

func (m *mockGrievanceRepo) Update(ctx context.Context, id int64, upd models.GrievanceUpdate, markResolved bool) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lastUpdate = upd
	m.markedRes = markResolved
	return nil
}

func (m *mockGrievanceRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockStatusRepo struct {
	statuses map[string]*models.Status
}

func (m *mockStatusRepo) FindByName(ctx context.Context, name string) (*models.Status, error) {
	st, ok := m.statuses[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return st, nil
}

type mockCategoryLookup struct {
	categories map[int64]*models.Category
}

func (m *mockCategoryLookup) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

type mockFacultyLookup struct {
	faculty map[int64]*models.Faculty
}

func (m *mockFacultyLookup) FindByID(ctx context.Context, id int64) (*models.Faculty, error) {
	f, ok := m.faculty[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return f, nil
}

type recordedPush struct {
	userID  int64
	role    models.Role
	message string
}

type mockNotifier struct {
	pushes     []recordedPush
	broadcasts []string
}

func (m *mockNotifier) Push(userID int64, role models.Role, message string) {
	m.pushes = append(m.pushes, recordedPush{userID: userID, role: role, message: message})
}

func (m *mockNotifier) PushAdmins(message string) {
	m.broadcasts = append(m.broadcasts, message)
}

type mockAttachmentStore struct {
	deleted []string
}

func (m *mockAttachmentStore) Delete(relPath string) error {
	m.deleted = append(m.deleted, relPath)
	return nil
}

func defaultStatuses() *mockStatusRepo {
	return &mockStatusRepo{statuses: map[string]*models.Status{
		models.StatusPending:    {ID: 1, Name: models.StatusPending},
		models.StatusInProgress: {ID: 2, Name: models.StatusInProgress},
		models.StatusResolved:   {ID: 3, Name: models.StatusResolved},
	}}
}

func newGrievanceService(repo *mockGrievanceRepo, notif *mockNotifier, attachments *mockAttachmentStore) *GrievanceService {
	categories := &mockCategoryLookup{categories: map[int64]*models.Category{
		10: {ID: 10, Name: "Academic", Active: true},
		11: {ID: 11, Name: "Retired", Active: false},
	}}
	faculty := &mockFacultyLookup{faculty: map[int64]*models.Faculty{
		7: {ID: 7, Name: "Dr. Rao", Active: true},
		8: {ID: 8, Name: "Dr. Gone", Active: false},
	}}
	var att attachmentRemover
	if attachments != nil {
		att = attachments
	}
	var n notifier
	if notif != nil {
		n = notif
	}
	return NewGrievanceService(repo, defaultStatuses(), categories, faculty, n, att, nil, nil, validator.New(), zap.NewNop())
}

func TestGrievanceSubmitDefaultsToPendingMedium(t *testing.T) {
	repo := &mockGrievanceRepo{}
	notif := &mockNotifier{}
	svc := newGrievanceService(repo, notif, nil)

	detail, err := svc.Submit(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, SubmitGrievanceRequest{
		CategoryID:  10,
		Title:       "Broken projector",
		Description: "The projector in room 204 has been broken for two weeks now.",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), repo.created.StudentID)
	assert.Equal(t, int64(1), repo.created.StatusID)
	assert.Equal(t, models.PriorityMedium, repo.created.Priority)
	assert.Nil(t, repo.created.AssignedTo)
	assert.Equal(t, repo.created.ID, detail.ID)
	require.Len(t, notif.broadcasts, 1)
	assert.Contains(t, notif.broadcasts[0], "Broken projector")
}

func TestGrievanceSubmitRejectsNonStudents(t *testing.T) {
	svc := newGrievanceService(&mockGrievanceRepo{}, nil, nil)

	_, err := svc.Submit(context.Background(), models.Actor{ID: 1, Role: models.RoleFaculty}, SubmitGrievanceRequest{
		CategoryID:  10,
		Title:       "Broken projector",
		Description: "The projector in room 204 has been broken for two weeks now.",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGrievanceSubmitRejectsInactiveCategory(t *testing.T) {
	svc := newGrievanceService(&mockGrievanceRepo{}, nil, nil)

	_, err := svc.Submit(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, SubmitGrievanceRequest{
		CategoryID:  11,
		Title:       "Broken projector",
		Description: "The projector in room 204 has been broken for two weeks now.",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGrievanceSubmitUnknownCategoryNotFound(t *testing.T) {
	svc := newGrievanceService(&mockGrievanceRepo{}, nil, nil)

	_, err := svc.Submit(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, SubmitGrievanceRequest{
		CategoryID:  99,
		Title:       "Broken projector",
		Description: "The projector in room 204 has been broken for two weeks now.",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestGrievanceSubmitRejectsShortDescription(t *testing.T) {
	svc := newGrievanceService(&mockGrievanceRepo{}, nil, nil)

	_, err := svc.Submit(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, SubmitGrievanceRequest{
		CategoryID:  10,
		Title:       "Broken projector",
		Description: "too short",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGrievanceListScopesByRole(t *testing.T) {
	repo := &mockGrievanceRepo{listTotal: 25}
	svc := newGrievanceService(repo, nil, nil)

	_, pagination, err := svc.List(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, ListGrievancesRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(5), repo.lastScope.StudentID)
	assert.False(t, repo.lastScope.Admin)
	assert.Equal(t, 2, pagination.Pages)

	_, _, err = svc.List(context.Background(), models.Actor{ID: 7, Role: models.RoleFaculty}, ListGrievancesRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(7), repo.lastScope.FacultyID)

	_, _, err = svc.List(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, ListGrievancesRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.True(t, repo.lastScope.Admin)
}

func TestGrievanceListRejectsBadPagination(t *testing.T) {
	svc := newGrievanceService(&mockGrievanceRepo{}, nil, nil)
	actor := models.Actor{ID: 1, Role: models.RoleAdmin}

	_, _, err := svc.List(context.Background(), actor, ListGrievancesRequest{Page: 0, Limit: 20})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.List(context.Background(), actor, ListGrievancesRequest{Page: 1, Limit: 101})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.List(context.Background(), actor, ListGrievancesRequest{Page: 1, Limit: 20, Priority: "urgent"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// a malformed category_id reaches the service as -1, never as "no filter"
	_, _, err = svc.List(context.Background(), actor, ListGrievancesRequest{Page: 1, Limit: 20, CategoryID: -1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGrievanceGetEnforcesVisibility(t *testing.T) {
	assignee := int64(7)
	repo := &mockGrievanceRepo{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5, AssignedTo: &assignee}},
	}}
	svc := newGrievanceService(repo, nil, nil)

	_, err := svc.Get(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, 1)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), models.Actor{ID: 6, Role: models.RoleStudent}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), models.Actor{ID: 9, Role: models.RoleFaculty}, 1)
	require.Error(t, err)

	_, err = svc.Get(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, 1)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGrievanceAssignForcesInProgress(t *testing.T) {
	repo := &mockGrievanceRepo{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5, Title: "Broken projector"}},
	}}
	notif := &mockNotifier{}
	svc := newGrievanceService(repo, notif, nil)

	_, err := svc.Assign(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, 1, 7)
	require.NoError(t, err)
	assert.True(t, repo.assigned)
	assert.Equal(t, int64(7), repo.assignedTo)
	assert.Equal(t, int64(2), repo.statusSet)

	require.Len(t, notif.pushes, 2)
	assert.Equal(t, int64(7), notif.pushes[0].userID)
	assert.Equal(t, models.RoleFaculty, notif.pushes[0].role)
	assert.Equal(t, int64(5), notif.pushes[1].userID)
	assert.Equal(t, models.RoleStudent, notif.pushes[1].role)
}

func TestGrievanceAssignRejectsNonAdmins(t *testing.T) {
	svc := newGrievanceService(&mockGrievanceRepo{}, nil, nil)

	_, err := svc.Assign(context.Background(), models.Actor{ID: 7, Role: models.RoleFaculty}, 1, 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGrievanceAssignRejectsInactiveFaculty(t *testing.T) {
	repo := &mockGrievanceRepo{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5}},
	}}
	svc := newGrievanceService(repo, nil, nil)

	_, err := svc.Assign(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, 1, 8)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
	assert.False(t, repo.assigned)
}

func TestGrievanceAssignUnknownFacultyNotFound(t *testing.T) {
	repo := &mockGrievanceRepo{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5}},
	}}
	svc := newGrievanceService(repo, nil, nil)

	_, err := svc.Assign(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, 1, 99)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
	assert.False(t, repo.assigned)
}

func TestGrievanceUpdateStampsResolvedOnce(t *testing.T) {
	repo := &mockGrievanceRepo{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5}},
	}}
	notif := &mockNotifier{}
	svc := newGrievanceService(repo, notif, nil)

	resolved := "Resolved"
	_, err := svc.Update(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, 1, UpdateGrievanceRequest{Status: &resolved})
	require.NoError(t, err)
	assert.True(t, repo.markedRes)
	require.NotNil(t, repo.lastUpdate.StatusID)
	assert.Equal(t, int64(3), *repo.lastUpdate.StatusID)
	require.Len(t, notif.pushes, 1)
	assert.Equal(t, int64(5), notif.pushes[0].userID)

	// already stamped: a second Resolved transition must not restamp
	now := time.Now()
	repo.details[1].ResolvedAt = &now
	_, err = svc.Update(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, 1, UpdateGrievanceRequest{Status: &resolved})
	require.NoError(t, err)
	assert.False(t, repo.markedRes)
}

func TestGrievanceUpdateRequiresAssignedFaculty(t *testing.T) {
	assignee := int64(7)
	repo := &mockGrievanceRepo{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5, AssignedTo: &assignee}},
	}}
	svc := newGrievanceService(repo, nil, nil)

	notes := "Looked into it"
	_, err := svc.Update(context.Background(), models.Actor{ID: 9, Role: models.RoleFaculty}, 1, UpdateGrievanceRequest{ResolutionNotes: &notes})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(context.Background(), models.Actor{ID: 7, Role: models.RoleFaculty}, 1, UpdateGrievanceRequest{ResolutionNotes: &notes})
	require.NoError(t, err)
	require.NotNil(t, repo.lastUpdate.ResolutionNotes)
}

func TestGrievanceUpdateRejectsEmptyAndUnknownStatus(t *testing.T) {
	repo := &mockGrievanceRepo{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5}},
	}}
	svc := newGrievanceService(repo, nil, nil)
	admin := models.Actor{ID: 1, Role: models.RoleAdmin}

	_, err := svc.Update(context.Background(), admin, 1, UpdateGrievanceRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	bogus := "Escalated"
	_, err = svc.Update(context.Background(), admin, 1, UpdateGrievanceRequest{Status: &bogus})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGrievanceDeleteRemovesAttachment(t *testing.T) {
	path := "grievance-abc.pdf"
	repo := &mockGrievanceRepo{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5, AttachmentPath: &path}},
	}}
	store := &mockAttachmentStore{}
	svc := newGrievanceService(repo, nil, store)

	err := svc.Delete(context.Background(), models.Actor{ID: 1, Role: models.RoleAdmin}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, repo.deleted)
	assert.Equal(t, []string{path}, store.deleted)
}

func TestGrievanceDeleteAdminOnly(t *testing.T) {
	repo := &mockGrievanceRepo{details: map[int64]*models.GrievanceDetail{
		1: {Grievance: models.Grievance{ID: 1, StudentID: 5}},
	}}
	svc := newGrievanceService(repo, nil, nil)

	err := svc.Delete(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}
