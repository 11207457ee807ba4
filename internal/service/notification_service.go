package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
	"github.com/sgms/grievance-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID int64, role models.Role, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID int64, role models.Role) (int, error)
	MarkRead(ctx context.Context, notificationID, userID int64, role models.Role) error
	MarkAllRead(ctx context.Context, userID int64, role models.Role) error
}

type adminIDLister interface {
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// notificationPayload is the job body for the delivery queue.
type notificationPayload struct {
	UserID    int64
	Role      models.Role
	Message   string
	Broadcast bool
}

// NotificationService persists and lists notifications. Deliveries run on
// a background queue so lifecycle operations never block on them.
type NotificationService struct {
	repo   notificationRepository
	admins adminIDLister
	queue  *jobs.Queue
	logger *zap.Logger
	seq    uint64
}

// NewNotificationService constructs the service and its delivery queue.
// Call Start before enqueuing and Stop on shutdown.
func NewNotificationService(repo notificationRepository, admins adminIDLister, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, admins: admins, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Push enqueues a notification for one user. Failures are logged, never
// surfaced to the caller.
func (s *NotificationService) Push(userID int64, role models.Role, message string) {
	s.enqueue(notificationPayload{UserID: userID, Role: role, Message: message})
}

// PushAdmins enqueues a notification for every active admin.
func (s *NotificationService) PushAdmins(message string) {
	s.enqueue(notificationPayload{Role: models.RoleAdmin, Message: message, Broadcast: true})
}

func (s *NotificationService) enqueue(payload notificationPayload) {
	id := atomic.AddUint64(&s.seq, 1)
	err := s.queue.Enqueue(jobs.Job{
		ID:      fmt.Sprintf("notification-%d", id),
		Type:    "notification",
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification", zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notificationPayload)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	if payload.Broadcast {
		ids, err := s.admins.ListActiveIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			n := &models.Notification{UserID: id, UserRole: models.RoleAdmin, Message: payload.Message}
			if err := s.repo.Create(ctx, n); err != nil {
				return err
			}
		}
		return nil
	}

	n := &models.Notification{UserID: payload.UserID, UserRole: payload.Role, Message: payload.Message}
	return s.repo.Create(ctx, n)
}

// List returns the caller's recent notifications together with the unread
// count.
func (s *NotificationService) List(ctx context.Context, actor models.Actor, limit int) ([]models.Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	notifications, err := s.repo.ListForUser(ctx, actor.ID, actor.Role, limit)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, actor.ID, actor.Role)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return notifications, unread, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, notificationID int64) error {
	if err := s.repo.MarkRead(ctx, notificationID, actor.ID, actor.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags all of the caller's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor models.Actor) error {
	if err := s.repo.MarkAllRead(ctx, actor.ID, actor.Role); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}
