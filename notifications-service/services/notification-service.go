package services

import (
	"context"
	"fmt"
	"time"

	"taskhub/logging"
	"taskhub/notifications-service/models"
)

// NotificationStore is the persistence contract of the dispatcher.
type NotificationStore interface {
	CreateNotification(notification *models.Notification) error
	GetNotificationsByUser(userID string) ([]models.Notification, error)
	MarkNotificationAsRead(userID, notificationID string, createdAt time.Time) error
	MarkAllAsRead(userID string) error
	DeleteNotification(userID, notificationID string, createdAt time.Time, referenceModel models.ReferenceModel, referenceID string) error
	DeleteByReference(referenceModel models.ReferenceModel, referenceID string) (int64, error)
}

// EmailResolver narrows the identity collaborator to what this service needs.
type EmailResolver interface {
	ResolveEmail(ctx context.Context, userID string) (string, error)
}

type NotificationService struct {
	repo   NotificationStore
	users  EmailResolver
	mailer Mailer
}

func NewNotificationService(repo NotificationStore, users EmailResolver, mailer Mailer) *NotificationService {
	return &NotificationService{
		repo:   repo,
		users:  users,
		mailer: mailer,
	}
}

// CreateRequest is the dispatcher's create contract.
type CreateRequest struct {
	UserID         string                  `json:"userId"`
	ReferenceID    string                  `json:"referenceId"`
	ReferenceModel models.ReferenceModel   `json:"referenceModel"`
	Type           models.NotificationType `json:"type"`
	Message        string                  `json:"message"`
	ShouldSendMail bool                    `json:"shouldSendMail"`
}

// CreateNotification persists the record and, when mail was requested and
// the recipient's address resolves, stamps SentAt and hands the message to
// the mailer. Identity and mail failures are logged and never propagated:
// the notification record is created regardless.
func (ns *NotificationService) CreateNotification(ctx context.Context, req CreateRequest) (*models.Notification, error) {
	if req.UserID == "" || req.Message == "" {
		return nil, fmt.Errorf("%w: userId and message are required", models.ErrValidation)
	}
	if !models.ValidType(req.Type) {
		return nil, fmt.Errorf("%w: unknown notification type %q", models.ErrValidation, req.Type)
	}
	if !models.ValidReferenceModel(req.ReferenceModel) {
		return nil, fmt.Errorf("%w: unknown reference model %q", models.ErrValidation, req.ReferenceModel)
	}

	notification := &models.Notification{
		UserID:         req.UserID,
		ReferenceID:    req.ReferenceID,
		ReferenceModel: req.ReferenceModel,
		Type:           req.Type,
		Message:        req.Message,
		IsRead:         false,
		ShouldSendMail: req.ShouldSendMail,
		CreatedAt:      time.Now(),
	}

	var email string
	if req.ShouldSendMail {
		resolved, err := ns.users.ResolveEmail(ctx, req.UserID)
		if err != nil {
			logging.Logger.Warnf("Event ID: USER_LOOKUP_FAILED, Description: Failed to resolve address for user %s: %v", req.UserID, err)
		} else {
			email = resolved
		}
		if email != "" {
			now := time.Now()
			notification.SentAt = &now
		}
	}

	if err := ns.repo.CreateNotification(notification); err != nil {
		return nil, err
	}

	if email != "" {
		go func(to, subject, body string) {
			if err := ns.mailer.Send(to, subject, body); err != nil {
				logging.Logger.Warnf("Event ID: MAIL_SEND_FAILED, Description: Failed to deliver %s mail to %s: %v", req.Type, to, err)
			}
		}(email, fmt.Sprintf("[TaskHub] %s", req.Type), req.Message)
	}

	return notification, nil
}

func (ns *NotificationService) GetNotificationsByUser(userID string) ([]models.Notification, error) {
	return ns.repo.GetNotificationsByUser(userID)
}

// GetUnreadByUser returns only the user's unread notifications.
func (ns *NotificationService) GetUnreadByUser(userID string) ([]models.Notification, error) {
	notifications, err := ns.repo.GetNotificationsByUser(userID)
	if err != nil {
		return nil, err
	}

	unread := []models.Notification{}
	for _, n := range notifications {
		if !n.IsRead {
			unread = append(unread, n)
		}
	}
	return unread, nil
}

func (ns *NotificationService) MarkNotificationAsRead(userID, notificationID string, createdAt time.Time) error {
	if userID == "" || notificationID == "" {
		return fmt.Errorf("%w: userId and notification id are required", models.ErrValidation)
	}

	// Cassandra UPDATE is an upsert. Without this check a bad id would
	// silently insert a ghost row instead of reporting the miss.
	notifications, err := ns.repo.GetNotificationsByUser(userID)
	if err != nil {
		return err
	}
	found := false
	for _, n := range notifications {
		if n.ID == notificationID {
			found = true
			break
		}
	}
	if !found {
		return models.ErrNotificationNotFound
	}

	return ns.repo.MarkNotificationAsRead(userID, notificationID, createdAt)
}

func (ns *NotificationService) MarkAllAsRead(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: userId is required", models.ErrValidation)
	}
	return ns.repo.MarkAllAsRead(userID)
}

func (ns *NotificationService) DeleteNotification(userID, notificationID string, createdAt time.Time, referenceModel models.ReferenceModel, referenceID string) error {
	return ns.repo.DeleteNotification(userID, notificationID, createdAt, referenceModel, referenceID)
}

// DeleteByReference removes every notification referencing the deleted
// entity. Zero matches is a success.
func (ns *NotificationService) DeleteByReference(referenceModel models.ReferenceModel, referenceID string) (int64, error) {
	if !models.ValidReferenceModel(referenceModel) {
		return 0, fmt.Errorf("%w: unknown reference model %q", models.ErrValidation, referenceModel)
	}
	return ns.repo.DeleteByReference(referenceModel, referenceID)
}
