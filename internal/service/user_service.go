package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

type studentAdminRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByEmailOrEnrollment(ctx context.Context, email, enrollmentNo string) (bool, error)
	Create(ctx context.Context, s *models.Student) error
	Update(ctx context.Context, id int64, upd models.StudentUpdate) error
}

type facultyAdminRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.Faculty, int, error)
	FindByID(ctx context.Context, id int64) (*models.Faculty, error)
	ExistsByEmailOrEmployeeID(ctx context.Context, email, employeeID string) (bool, error)
	Create(ctx context.Context, f *models.Faculty) error
	Update(ctx context.Context, id int64, upd models.FacultyUpdate) error
}

// UserService covers admin-side account management for students and
// faculty. Admin accounts themselves are provisioned out of band.
type UserService struct {
	students  studentAdminRepository
	faculty   facultyAdminRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(students studentAdminRepository, faculty facultyAdminRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{students: students, faculty: faculty, validator: validate, logger: logger}
}

// ListUsersRequest carries account listing predicates plus pagination.
type ListUsersRequest struct {
	Search     string
	Department string
	Active     *bool
	Page       int
	Limit      int
}

// CreateStudentRequest is the admin payload for provisioning students.
type CreateStudentRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=100"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=6"`
	EnrollmentNo string  `json:"enrollment_no" validate:"required,min=3,max=50"`
	Department   *string `json:"department"`
	Contact      *string `json:"contact" validate:"omitempty,numeric,min=10,max=15"`
}

// CreateFacultyRequest is the admin payload for provisioning faculty.
type CreateFacultyRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	EmployeeID  string  `json:"employee_id" validate:"required,min=3,max=50"`
	Department  *string `json:"department"`
	Designation *string `json:"designation"`
	Contact     *string `json:"contact" validate:"omitempty,numeric,min=10,max=15"`
}

// UpdateStudentRequest is the partial student update payload.
type UpdateStudentRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=100"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	Contact    *string `json:"contact" validate:"omitempty,numeric,min=10,max=15"`
	Active     *bool   `json:"is_active"`
}

// UpdateFacultyRequest is the partial faculty update payload.
type UpdateFacultyRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
	Designation *string `json:"designation" validate:"omitempty,max=100"`
	Contact     *string `json:"contact" validate:"omitempty,numeric,min=10,max=15"`
	Active      *bool   `json:"is_active"`
}

func (s *UserService) listFilter(req ListUsersRequest) (models.UserFilter, error) {
	if req.Page < 1 {
		return models.UserFilter{}, appErrors.Clone(appErrors.ErrValidation, "page must be at least 1")
	}
	if req.Limit < 1 || req.Limit > 100 {
		return models.UserFilter{}, appErrors.Clone(appErrors.ErrValidation, "limit must be between 1 and 100")
	}
	return models.UserFilter{
		Search:     req.Search,
		Department: req.Department,
		Active:     req.Active,
		Page:       req.Page,
		Limit:      req.Limit,
	}, nil
}

// ListStudents returns student accounts with pagination.
func (s *UserService) ListStudents(ctx context.Context, req ListUsersRequest) ([]models.Student, *models.Pagination, error) {
	filter, err := s.listFilter(req)
	if err != nil {
		return nil, nil, err
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(req.Page, req.Limit, total), nil
}

// ListFaculty returns faculty accounts with pagination.
func (s *UserService) ListFaculty(ctx context.Context, req ListUsersRequest) ([]models.Faculty, *models.Pagination, error) {
	filter, err := s.listFilter(req)
	if err != nil {
		return nil, nil, err
	}
	faculty, total, err := s.faculty.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return faculty, models.NewPagination(req.Page, req.Limit, total), nil
}

// CreateStudent provisions a student account on behalf of an admin. Unlike
// self-registration it shares the same uniqueness and password rules.
func (s *UserService) CreateStudent(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if msg := passwordPolicyViolation(req.Password); msg != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg)
	}

	exists, err := s.students.ExistsByEmailOrEnrollment(ctx, req.Email, req.EnrollmentNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email or enrollment number already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Student{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Department:   req.Department,
		Contact:      req.Contact,
		EnrollmentNo: req.EnrollmentNo,
		Active:       true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.logger.Info("student created", zap.Int64("student_id", student.ID))
	return student, nil
}

// CreateFaculty provisions a faculty account.
func (s *UserService) CreateFaculty(ctx context.Context, req CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	if msg := passwordPolicyViolation(req.Password); msg != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg)
	}

	exists, err := s.faculty.ExistsByEmailOrEmployeeID(ctx, req.Email, req.EmployeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email or employee id already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	faculty := &models.Faculty{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Department:   req.Department,
		Designation:  req.Designation,
		Contact:      req.Contact,
		EmployeeID:   req.EmployeeID,
		Active:       true,
	}
	if err := s.faculty.Create(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}

	s.logger.Info("faculty created", zap.Int64("faculty_id", faculty.ID))
	return faculty, nil
}

// UpdateStudent applies a partial update to a student account.
func (s *UserService) UpdateStudent(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	upd := models.StudentUpdate{
		Name:       req.Name,
		Department: req.Department,
		Contact:    req.Contact,
		Active:     req.Active,
	}
	if upd.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}
	if err := s.students.Update(ctx, id, upd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return s.findStudent(ctx, id)
}

// UpdateFaculty applies a partial update to a faculty account.
func (s *UserService) UpdateFaculty(ctx context.Context, id int64, req UpdateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	upd := models.FacultyUpdate{
		Name:        req.Name,
		Department:  req.Department,
		Designation: req.Designation,
		Contact:     req.Contact,
		Active:      req.Active,
	}
	if upd.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}
	if err := s.faculty.Update(ctx, id, upd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty")
	}
	faculty, err := s.faculty.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch faculty")
	}
	return faculty, nil
}

// SetStudentActive toggles a student account.
func (s *UserService) SetStudentActive(ctx context.Context, id int64, active bool) error {
	if err := s.students.Update(ctx, id, models.StudentUpdate{Active: &active}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return nil
}

// SetFacultyActive toggles a faculty account.
func (s *UserService) SetFacultyActive(ctx context.Context, id int64, active bool) error {
	if err := s.faculty.Update(ctx, id, models.FacultyUpdate{Active: &active}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty")
	}
	return nil
}

func (s *UserService) findStudent(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	return student, nil
}
