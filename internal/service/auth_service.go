package service

import (
	"context"
	"database/sql"
	"errors"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

type studentAccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByEmailOrEnrollment(ctx context.Context, email, enrollmentNo string) (bool, error)
	Create(ctx context.Context, s *models.Student) error
	Update(ctx context.Context, id int64, upd models.StudentUpdate) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type facultyAccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Faculty, error)
	FindByID(ctx context.Context, id int64) (*models.Faculty, error)
	Update(ctx context.Context, id int64, upd models.FacultyUpdate) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type adminAccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	Update(ctx context.Context, id int64, upd models.AdminUpdate) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthService authenticates actors across the three identity spaces and
// issues access tokens.
type AuthService struct {
	students  studentAccountRepository
	faculty   facultyAccountRepository
	admins    adminAccountRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(students studentAccountRepository, faculty facultyAccountRepository, admins adminAccountRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiration <= 0 {
		config.Expiration = 24 * time.Hour
	}
	return &AuthService{students: students, faculty: faculty, admins: admins, validator: validate, logger: logger, config: config}
}

// RegisterStudentRequest is the self-service student signup payload.
type RegisterStudentRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=100"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=6"`
	EnrollmentNo string  `json:"enrollment_no" validate:"required,min=3,max=50"`
	Department   *string `json:"department"`
	Contact      *string `json:"contact" validate:"omitempty,numeric,min=10,max=15"`
}

// Login authenticates against the identity space named by the request role.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	account, err := s.findAccount(ctx, req.Role, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	if !account.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, issuedAt, err := s.generateAccessToken(account)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("login succeeded",
		zap.Int64("user_id", account.ID),
		zap.String("role", string(account.Role)),
	)

	return &models.LoginResponse{
		Token:    token,
		IssuedAt: issuedAt,
		User: models.UserInfo{
			ID:    account.ID,
			Name:  account.Name,
			Email: account.Email,
			Role:  account.Role,
		},
	}, nil
}

// RegisterStudent creates a student account. Registration is open only to
// the student identity space; faculty and admin accounts are provisioned
// by administrators.
func (s *AuthService) RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
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

	s.logger.Info("student registered", zap.Int64("student_id", student.ID))
	return student, nil
}

// Profile returns the caller's account details.
func (s *AuthService) Profile(ctx context.Context, actor models.Actor) (interface{}, error) {
	switch actor.Role {
	case models.RoleStudent:
		student, err := s.students.FindByID(ctx, actor.ID)
		if err != nil {
			return nil, s.profileErr(err)
		}
		return student, nil
	case models.RoleFaculty:
		faculty, err := s.faculty.FindByID(ctx, actor.ID)
		if err != nil {
			return nil, s.profileErr(err)
		}
		return faculty, nil
	case models.RoleAdmin:
		admin, err := s.admins.FindByID(ctx, actor.ID)
		if err != nil {
			return nil, s.profileErr(err)
		}
		return admin, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
}

// UpdateProfileRequest is the self-service profile payload. All fields are
// optional but at least one applicable to the caller's role must be present.
type UpdateProfileRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=100"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	Contact    *string `json:"contact" validate:"omitempty,numeric,min=10,max=15"`
}

// UpdateProfile applies a partial update to the caller's own account and
// returns the refreshed profile. Admin rows only carry a name.
func (s *AuthService) UpdateProfile(ctx context.Context, actor models.Actor, req UpdateProfileRequest) (interface{}, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	var err error
	switch actor.Role {
	case models.RoleStudent:
		upd := models.StudentUpdate{Name: req.Name, Department: req.Department, Contact: req.Contact}
		if upd.Empty() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
		}
		err = s.students.Update(ctx, actor.ID, upd)
	case models.RoleFaculty:
		upd := models.FacultyUpdate{Name: req.Name, Department: req.Department, Contact: req.Contact}
		if upd.Empty() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
		}
		err = s.faculty.Update(ctx, actor.ID, upd)
	case models.RoleAdmin:
		upd := models.AdminUpdate{Name: req.Name}
		if upd.Empty() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
		}
		err = s.admins.Update(ctx, actor.ID, upd)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	s.logger.Info("profile updated", zap.Int64("user_id", actor.ID), zap.String("role", string(actor.Role)))
	return s.Profile(ctx, actor)
}

// ChangePassword verifies the old password then replaces the stored hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor models.Actor, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}
	if msg := passwordPolicyViolation(req.NewPassword); msg != "" {
		return appErrors.Clone(appErrors.ErrValidation, msg)
	}

	account, err := s.findAccountByID(ctx, actor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	switch actor.Role {
	case models.RoleStudent:
		err = s.students.UpdatePassword(ctx, actor.ID, string(hash))
	case models.RoleFaculty:
		err = s.faculty.UpdatePassword(ctx, actor.ID, string(hash))
	case models.RoleAdmin:
		err = s.admins.UpdatePassword(ctx, actor.ID, string(hash))
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	s.logger.Info("password changed", zap.Int64("user_id", actor.ID), zap.String("role", string(actor.Role)))
	return nil
}

// ValidateToken parses and validates an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid token role")
	}
	return claims, nil
}

func (s *AuthService) findAccount(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	switch role {
	case models.RoleStudent:
		student, err := s.students.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return &models.Account{ID: student.ID, Name: student.Name, Email: student.Email, PasswordHash: student.PasswordHash, Active: student.Active, Role: models.RoleStudent}, nil
	case models.RoleFaculty:
		faculty, err := s.faculty.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return &models.Account{ID: faculty.ID, Name: faculty.Name, Email: faculty.Email, PasswordHash: faculty.PasswordHash, Active: faculty.Active, Role: models.RoleFaculty}, nil
	case models.RoleAdmin:
		admin, err := s.admins.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return &models.Account{ID: admin.ID, Name: admin.Name, Email: admin.Email, PasswordHash: admin.PasswordHash, Active: admin.Active, Role: models.RoleAdmin}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
}

func (s *AuthService) findAccountByID(ctx context.Context, actor models.Actor) (*models.Account, error) {
	switch actor.Role {
	case models.RoleStudent:
		student, err := s.students.FindByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return &models.Account{ID: student.ID, Name: student.Name, Email: student.Email, PasswordHash: student.PasswordHash, Active: student.Active, Role: models.RoleStudent}, nil
	case models.RoleFaculty:
		faculty, err := s.faculty.FindByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return &models.Account{ID: faculty.ID, Name: faculty.Name, Email: faculty.Email, PasswordHash: faculty.PasswordHash, Active: faculty.Active, Role: models.RoleFaculty}, nil
	case models.RoleAdmin:
		admin, err := s.admins.FindByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return &models.Account{ID: admin.ID, Name: admin.Name, Email: admin.Email, PasswordHash: admin.PasswordHash, Active: admin.Active, Role: models.RoleAdmin}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
}

func (s *AuthService) profileErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch profile")
}

func (s *AuthService) generateAccessToken(account *models.Account) (string, time.Time, error) {
	now := time.Now().UTC()
	claims := models.JWTClaims{
		UserID: account.ID,
		Role:   account.Role,
		Email:  account.Email,
		Name:   account.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, now, nil
}

// passwordPolicyViolation reports the first policy rule the candidate
// password breaks, or "" when it passes.
func passwordPolicyViolation(password string) string {
	if len(password) < 6 {
		return "password must be at least 6 characters"
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return "password must contain an uppercase letter, a lowercase letter, and a digit"
	}
	return ""
}
