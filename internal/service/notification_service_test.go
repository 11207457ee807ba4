package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sgms/grievance-api/internal/models"
	appErrors "github.com/sgms/grievance-api/pkg/errors"
	"github.com/sgms/grievance-api/pkg/jobs"
)

type mockNotificationRepo struct {
	mu            sync.Mutex
	created       []models.Notification
	list          []models.Notification
	unread        int
	marked        []int64
	markedAll     bool
	markReadErr   error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = int64(len(m.created) + 1)
	m.created = append(m.created, *n)
	return nil
}

func (m *mockNotificationRepo) ListForUser(ctx context.Context, userID int64, role models.Role, limit int) ([]models.Notification, error) {
	return m.list, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID int64, role models.Role) (int, error) {
	return m.unread, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, notificationID, userID int64, role models.Role) error {
	if m.markReadErr != nil {
		return m.markReadErr
	}
	m.marked = append(m.marked, notificationID)
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID int64, role models.Role) error {
	m.markedAll = true
	return nil
}

func (m *mockNotificationRepo) snapshot() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Notification, len(m.created))
	copy(out, m.created)
	return out
}

type mockAdminIDs struct {
	ids []int64
}

func (m *mockAdminIDs) ListActiveIDs(ctx context.Context) ([]int64, error) {
	return m.ids, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNotificationPushDeliversAsync(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, &mockAdminIDs{}, jobs.QueueConfig{Workers: 1}, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Push(7, models.RoleFaculty, "Grievance #1 has been assigned to you")

	waitFor(t, func() bool { return len(repo.snapshot()) == 1 })
	created := repo.snapshot()[0]
	assert.Equal(t, int64(7), created.UserID)
	assert.Equal(t, models.RoleFaculty, created.UserRole)
	assert.Contains(t, created.Message, "assigned")
}

func TestNotificationPushAdminsFansOut(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, &mockAdminIDs{ids: []int64{1, 2, 3}}, jobs.QueueConfig{Workers: 1}, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.PushAdmins("New grievance #1 submitted")

	waitFor(t, func() bool { return len(repo.snapshot()) == 3 })
	for _, n := range repo.snapshot() {
		assert.Equal(t, models.RoleAdmin, n.UserRole)
	}
}

func TestNotificationPushBeforeStartDoesNotPanic(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, &mockAdminIDs{}, jobs.QueueConfig{Workers: 1}, zap.NewNop())

	// enqueue failure is logged, never surfaced
	svc.Push(7, models.RoleFaculty, "hello")
	assert.Empty(t, repo.snapshot())
}

func TestNotificationList(t *testing.T) {
	repo := &mockNotificationRepo{
		list:   []models.Notification{{ID: 1, Message: "hi"}, {ID: 2, Message: "there"}},
		unread: 1,
	}
	svc := NewNotificationService(repo, &mockAdminIDs{}, jobs.QueueConfig{}, zap.NewNop())

	notifications, unread, err := svc.List(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, 0)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
	assert.Equal(t, 1, unread)
}

func TestNotificationMarkRead(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, &mockAdminIDs{}, jobs.QueueConfig{}, zap.NewNop())
	actor := models.Actor{ID: 5, Role: models.RoleStudent}

	require.NoError(t, svc.MarkRead(context.Background(), actor, 3))
	assert.Equal(t, []int64{3}, repo.marked)

	require.NoError(t, svc.MarkAllRead(context.Background(), actor))
	assert.True(t, repo.markedAll)
}

func TestNotificationMarkReadNotFound(t *testing.T) {
	repo := &mockNotificationRepo{markReadErr: sql.ErrNoRows}
	svc := NewNotificationService(repo, &mockAdminIDs{}, jobs.QueueConfig{}, zap.NewNop())

	err := svc.MarkRead(context.Background(), models.Actor{ID: 5, Role: models.RoleStudent}, 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
