package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

type mockStudentAdminRepo struct {
	students   []models.Student
	total      int
	exists     bool
	created    *models.Student
	lastFilter models.UserFilter
	lastUpdate models.StudentUpdate
	updateErr  error
}

func (m *mockStudentAdminRepo) List(ctx context.Context, filter models.UserFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	return m.students, m.total, nil
}

func (m *mockStudentAdminRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	for i := range m.students {
		if m.students[i].ID == id {
			return &m.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentAdminRepo) ExistsByEmailOrEnrollment(ctx context.Context, email, enrollmentNo string) (bool, error) {
	return m.exists, nil
}

func (m *mockStudentAdminRepo) Create(ctx context.Context, s *models.Student) error {
	s.ID = 5
	m.created = s
	m.students = append(m.students, *s)
	return nil
}

func (m *mockStudentAdminRepo) Update(ctx context.Context, id int64, upd models.StudentUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lastUpdate = upd
	return nil
}

type mockFacultyAdminRepo struct {
	faculty    []models.Faculty
	total      int
	exists     bool
	created    *models.Faculty
	lastUpdate models.FacultyUpdate
	updateErr  error
}

func (m *mockFacultyAdminRepo) List(ctx context.Context, filter models.UserFilter) ([]models.Faculty, int, error) {
	return m.faculty, m.total, nil
}

func (m *mockFacultyAdminRepo) FindByID(ctx context.Context, id int64) (*models.Faculty, error) {
	for i := range m.faculty {
		if m.faculty[i].ID == id {
			return &m.faculty[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockFacultyAdminRepo) ExistsByEmailOrEmployeeID(ctx context.Context, email, employeeID string) (bool, error) {
	return m.exists, nil
}

func (m *mockFacultyAdminRepo) Create(ctx context.Context, f *models.Faculty) error {
	f.ID = 7
	m.created = f
	m.faculty = append(m.faculty, *f)
	return nil
}

func (m *mockFacultyAdminRepo) Update(ctx context.Context, id int64, upd models.FacultyUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lastUpdate = upd
	return nil
}

func TestUserListStudents(t *testing.T) {
	repo := &mockStudentAdminRepo{students: []models.Student{{ID: 5, Name: "Asha"}}, total: 41}
	svc := NewUserService(repo, &mockFacultyAdminRepo{}, validator.New(), zap.NewNop())

	students, pagination, err := svc.ListStudents(context.Background(), ListUsersRequest{Search: "asha", Page: 2, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, "asha", repo.lastFilter.Search)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 3, pagination.Pages)
}

func TestUserListRejectsBadPagination(t *testing.T) {
	svc := NewUserService(&mockStudentAdminRepo{}, &mockFacultyAdminRepo{}, validator.New(), zap.NewNop())

	_, _, err := svc.ListStudents(context.Background(), ListUsersRequest{Page: 0, Limit: 20})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.ListFaculty(context.Background(), ListUsersRequest{Page: 1, Limit: 200})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserCreateStudent(t *testing.T) {
	repo := &mockStudentAdminRepo{}
	svc := NewUserService(repo, &mockFacultyAdminRepo{}, validator.New(), zap.NewNop())

	student, err := svc.CreateStudent(context.Background(), CreateStudentRequest{
		Name:         "Asha Verma",
		Email:        "asha@example.com",
		Password:     "Passw0rd",
		EnrollmentNo: "ENR-2024-005",
	})
	require.NoError(t, err)
	assert.True(t, student.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("Passw0rd")))
}

func TestUserCreateStudentDuplicate(t *testing.T) {
	repo := &mockStudentAdminRepo{exists: true}
	svc := NewUserService(repo, &mockFacultyAdminRepo{}, validator.New(), zap.NewNop())

	_, err := svc.CreateStudent(context.Background(), CreateStudentRequest{
		Name:         "Asha Verma",
		Email:        "asha@example.com",
		Password:     "Passw0rd",
		EnrollmentNo: "ENR-2024-005",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestUserCreateFaculty(t *testing.T) {
	repo := &mockFacultyAdminRepo{}
	svc := NewUserService(&mockStudentAdminRepo{}, repo, validator.New(), zap.NewNop())

	faculty, err := svc.CreateFaculty(context.Background(), CreateFacultyRequest{
		Name:       "Dr. Rao",
		Email:      "rao@example.com",
		Password:   "Passw0rd",
		EmployeeID: "EMP-001",
	})
	require.NoError(t, err)
	assert.True(t, faculty.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("Passw0rd")))
}

func TestUserCreateFacultyDuplicate(t *testing.T) {
	repo := &mockFacultyAdminRepo{exists: true}
	svc := NewUserService(&mockStudentAdminRepo{}, repo, validator.New(), zap.NewNop())

	_, err := svc.CreateFaculty(context.Background(), CreateFacultyRequest{
		Name:       "Dr. Rao",
		Email:      "rao@example.com",
		Password:   "Passw0rd",
		EmployeeID: "EMP-001",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestUserCreateFacultyWeakPassword(t *testing.T) {
	svc := NewUserService(&mockStudentAdminRepo{}, &mockFacultyAdminRepo{}, validator.New(), zap.NewNop())

	_, err := svc.CreateFaculty(context.Background(), CreateFacultyRequest{
		Name:       "Dr. Rao",
		Email:      "rao@example.com",
		Password:   "weakpass",
		EmployeeID: "EMP-001",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserUpdateStudent(t *testing.T) {
	repo := &mockStudentAdminRepo{students: []models.Student{{ID: 5, Name: "Asha"}}}
	svc := NewUserService(repo, &mockFacultyAdminRepo{}, validator.New(), zap.NewNop())

	dept := "Physics"
	student, err := svc.UpdateStudent(context.Background(), 5, UpdateStudentRequest{Department: &dept})
	require.NoError(t, err)
	require.NotNil(t, repo.lastUpdate.Department)
	assert.Equal(t, "Physics", *repo.lastUpdate.Department)
	assert.Equal(t, int64(5), student.ID)
}

func TestUserUpdateStudentEmpty(t *testing.T) {
	svc := NewUserService(&mockStudentAdminRepo{}, &mockFacultyAdminRepo{}, validator.New(), zap.NewNop())

	_, err := svc.UpdateStudent(context.Background(), 5, UpdateStudentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserUpdateFacultyNotFound(t *testing.T) {
	repo := &mockFacultyAdminRepo{updateErr: sql.ErrNoRows}
	svc := NewUserService(&mockStudentAdminRepo{}, repo, validator.New(), zap.NewNop())

	name := "Dr. Rao"
	_, err := svc.UpdateFaculty(context.Background(), 99, UpdateFacultyRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserSetActiveToggles(t *testing.T) {
	students := &mockStudentAdminRepo{students: []models.Student{{ID: 5}}}
	faculty := &mockFacultyAdminRepo{faculty: []models.Faculty{{ID: 7}}}
	svc := NewUserService(students, faculty, validator.New(), zap.NewNop())

	require.NoError(t, svc.SetStudentActive(context.Background(), 5, false))
	require.NotNil(t, students.lastUpdate.Active)
	assert.False(t, *students.lastUpdate.Active)

	require.NoError(t, svc.SetFacultyActive(context.Background(), 7, true))
	require.NotNil(t, faculty.lastUpdate.Active)
	assert.True(t, *faculty.lastUpdate.Active)
}
