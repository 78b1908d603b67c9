package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskhub/notifications-service/models"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	created []*models.Notification
	deleted int64
	fail    bool
}

func (f *fakeStore) CreateNotification(n *models.Notification) error {
	if f.fail {
		return errors.New("write timeout")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeStore) GetNotificationsByUser(userID string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkNotificationAsRead(userID, notificationID string, createdAt time.Time) error {
	return nil
}

func (f *fakeStore) MarkAllAsRead(userID string) error { return nil }

func (f *fakeStore) DeleteNotification(userID, notificationID string, createdAt time.Time, referenceModel models.ReferenceModel, referenceID string) error {
	return nil
}

func (f *fakeStore) DeleteByReference(referenceModel models.ReferenceModel, referenceID string) (int64, error) {
	return f.deleted, nil
}

type fakeResolver struct {
	email string
	err   error
	calls int
}

func (f *fakeResolver) ResolveEmail(ctx context.Context, userID string) (string, error) {
	f.calls++
	return f.email, f.err
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeMailer) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func validRequest() CreateRequest {
	return CreateRequest{
		UserID:         "user-1",
		ReferenceID:    "task-1",
		ReferenceModel: models.ReferenceTask,
		Type:           models.TypeAssign,
		Message:        "You have been assigned to a task",
	}
}

func TestCreateNotificationStampsSentAtWhenAddressResolves(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{email: "user-1@example.com"}
	mailer := &fakeMailer{}
	service := NewNotificationService(store, resolver, mailer)

	req := validRequest()
	req.ShouldSendMail = true

	notification, err := service.CreateNotification(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, notification.SentAt)
	require.True(t, notification.ShouldSendMail)
	require.Len(t, store.created, 1)

	require.Eventually(t, func() bool {
		sent := mailer.sentTo()
		return len(sent) == 1 && sent[0] == "user-1@example.com"
	}, time.Second, 10*time.Millisecond)
}

func TestCreateNotificationRecordsDespiteLookupFailure(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{err: errors.New("identity service unavailable")}
	mailer := &fakeMailer{}
	service := NewNotificationService(store, resolver, mailer)

	req := validRequest()
	req.ShouldSendMail = true

	notification, err := service.CreateNotification(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, notification.SentAt)
	require.Len(t, store.created, 1)
	require.Empty(t, mailer.sentTo())
}

func TestCreateNotificationSkipsMailWhenAddressEmpty(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{email: ""}
	service := NewNotificationService(store, resolver, &fakeMailer{})

	req := validRequest()
	req.ShouldSendMail = true

	notification, err := service.CreateNotification(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, notification.SentAt)
}

func TestCreateNotificationDoesNotResolveWithoutMailFlag(t *testing.T) {
	resolver := &fakeResolver{email: "user-1@example.com"}
	service := NewNotificationService(&fakeStore{}, resolver, &fakeMailer{})

	notification, err := service.CreateNotification(context.Background(), validRequest())
	require.NoError(t, err)
	require.Nil(t, notification.SentAt)
	require.Zero(t, resolver.calls)
}

func TestCreateNotificationValidation(t *testing.T) {
	service := NewNotificationService(&fakeStore{}, &fakeResolver{}, &fakeMailer{})

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"missing user", func(r *CreateRequest) { r.UserID = "" }},
		{"missing message", func(r *CreateRequest) { r.Message = "" }},
		{"unknown type", func(r *CreateRequest) { r.Type = "SHOUT" }},
		{"unknown reference model", func(r *CreateRequest) { r.ReferenceModel = "Sprint" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := service.CreateNotification(context.Background(), req)
			require.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestGetUnreadByUserFiltersRead(t *testing.T) {
	store := &fakeStore{created: []*models.Notification{
		{UserID: "user-1", Message: "a", IsRead: true},
		{UserID: "user-1", Message: "b"},
		{UserID: "user-2", Message: "c"},
	}}
	service := NewNotificationService(store, &fakeResolver{}, &fakeMailer{})

	unread, err := service.GetUnreadByUser("user-1")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.Equal(t, "b", unread[0].Message)
}

func TestDeleteByReferenceRejectsUnknownModel(t *testing.T) {
	service := NewNotificationService(&fakeStore{}, &fakeResolver{}, &fakeMailer{})

	_, err := service.DeleteByReference("Sprint", "ref-1")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteByReferenceReportsCount(t *testing.T) {
	service := NewNotificationService(&fakeStore{deleted: 4}, &fakeResolver{}, &fakeMailer{})

	deleted, err := service.DeleteByReference(models.ReferenceTeam, "team-1")
	require.NoError(t, err)
	require.EqualValues(t, 4, deleted)
}

func TestMarkNotificationAsRead(t *testing.T) {
	store := &fakeStore{created: []*models.Notification{
		{ID: "n1", UserID: "user-1", Message: "a"},
	}}
	service := NewNotificationService(store, &fakeResolver{}, &fakeMailer{})

	require.NoError(t, service.MarkNotificationAsRead("user-1", "n1", time.Now()))
}

// Marking an id the user does not own must report the miss, not upsert a
// ghost row.
func TestMarkNotificationAsReadUnknownID(t *testing.T) {
	store := &fakeStore{created: []*models.Notification{
		{ID: "n1", UserID: "user-1", Message: "a"},
	}}
	service := NewNotificationService(store, &fakeResolver{}, &fakeMailer{})

	err := service.MarkNotificationAsRead("user-1", "n2", time.Now())
	require.ErrorIs(t, err, models.ErrNotificationNotFound)

	err = service.MarkNotificationAsRead("user-2", "n1", time.Now())
	require.ErrorIs(t, err, models.ErrNotificationNotFound)
}
