package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

type messageRepository interface {
	ListByGrievance(ctx context.Context, grievanceID int64) ([]models.MessageDetail, error)
	Create(ctx context.Context, m *models.Message) error
	MarkReadFromSenders(ctx context.Context, grievanceID int64, senderRoles []models.Role) error
}

type grievanceAccessRepository interface {
	FindDetailByID(ctx context.Context, id int64) (*models.GrievanceDetail, error)
}

// MessageService manages per-grievance conversation threads. Thread access
// follows the same visibility rules as the grievance itself.
type MessageService struct {
	repo       messageRepository
	grievances grievanceAccessRepository
	notifier   notifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(repo messageRepository, grievances grievanceAccessRepository, notifier notifier, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, grievances: grievances, notifier: notifier, validator: validate, logger: logger}
}

// SendMessageRequest is the message payload.
type SendMessageRequest struct {
	Text string `json:"message" validate:"required,min=1,max=1000"`
}

// List returns the thread for a grievance and, as a side effect, marks
// messages from counterpart roles as read for the viewing actor.
func (s *MessageService) List(ctx context.Context, actor models.Actor, grievanceID int64) ([]models.MessageDetail, error) {
	if err := s.authorize(ctx, actor, grievanceID); err != nil {
		return nil, err
	}

	if roles := counterpartRoles(actor.Role); len(roles) > 0 {
		if err := s.repo.MarkReadFromSenders(ctx, grievanceID, roles); err != nil {
			s.logger.Warn("failed to mark messages read",
				zap.Int64("grievance_id", grievanceID),
				zap.Error(err),
			)
		}
	}

	messages, err := s.repo.ListByGrievance(ctx, grievanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

// Send appends a message to a grievance thread the actor can see.
func (s *MessageService) Send(ctx context.Context, actor models.Actor, grievanceID int64, req SendMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}

	detail, err := s.grievances.FindDetailByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grievance")
	}
	if err := authorizeGrievanceView(actor, detail); err != nil {
		return nil, err
	}

	message := &models.Message{
		GrievanceID: grievanceID,
		SenderID:    actor.ID,
		SenderRole:  actor.Role,
		Text:        req.Text,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create message")
	}

	if s.notifier != nil {
		text := fmt.Sprintf("New message on grievance #%d", grievanceID)
		switch actor.Role {
		case models.RoleStudent:
			if detail.AssignedTo != nil {
				s.notifier.Push(*detail.AssignedTo, models.RoleFaculty, text)
			}
		default:
			s.notifier.Push(detail.StudentID, models.RoleStudent, text)
		}
	}

	s.logger.Info("message sent",
		zap.Int64("grievance_id", grievanceID),
		zap.Int64("sender_id", actor.ID),
		zap.String("sender_role", string(actor.Role)),
	)
	return message, nil
}

func (s *MessageService) authorize(ctx context.Context, actor models.Actor, grievanceID int64) error {
	detail, err := s.grievances.FindDetailByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grievance not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grievance")
	}
	return authorizeGrievanceView(actor, detail)
}

// counterpartRoles lists the sender roles whose messages become read when
// the given role views a thread.
func counterpartRoles(viewer models.Role) []models.Role {
	switch viewer {
	case models.RoleStudent:
		return []models.Role{models.RoleFaculty, models.RoleAdmin}
	case models.RoleFaculty:
		return []models.Role{models.RoleStudent}
	case models.RoleAdmin:
		return []models.Role{models.RoleStudent, models.RoleFaculty}
	}
	return nil
}

func authorizeGrievanceView(actor models.Actor, detail *models.GrievanceDetail) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		if detail.StudentID == actor.ID {
			return nil
		}
	case models.RoleFaculty:
		if detail.AssignedTo != nil && *detail.AssignedTo == actor.ID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "access denied")
}
