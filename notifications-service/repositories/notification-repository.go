package repositories

import (
	"fmt"
	"time"

	"taskhub/logging"
	"taskhub/notifications-service/models"

	"github.com/gocql/gocql"
)

// NotificationRepo persists notifications in Cassandra. Two tables carry the
// same records: notifications_by_user serves the per-user unread/recent
// queries, notifications_by_reference serves the reverse lookup used by
// cascade deletion.
type NotificationRepo struct {
	session *gocql.Session
}

func NewNotificationRepo(hosts []string, keyspace string) (*NotificationRepo, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Cassandra: %v", err)
	}

	err = session.Query(fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`, keyspace)).Exec()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to create keyspace: %v", err)
	}
	session.Close()

	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s keyspace: %v", keyspace, err)
	}

	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Connected to Cassandra %s keyspace.", keyspace)
	return &NotificationRepo{session: session}, nil
}

func (nr *NotificationRepo) CloseSession() {
	nr.session.Close()
	logging.Logger.Info("Event ID: DB_SESSION_CLOSED, Description: Cassandra session closed.")
}

// CreateTables creates both notification tables if they do not exist.
func (nr *NotificationRepo) CreateTables() error {
	err := nr.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications_by_user (
			id UUID,
			user_id TEXT,
			reference_id TEXT,
			reference_model TEXT,
			type TEXT,
			message TEXT,
			is_read BOOLEAN,
			should_send_mail BOOLEAN,
			sent_at TIMESTAMP,
			created_at TIMESTAMP,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications_by_user table: %v", err)
	}

	err = nr.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications_by_reference (
			id UUID,
			user_id TEXT,
			reference_id TEXT,
			reference_model TEXT,
			created_at TIMESTAMP,
			PRIMARY KEY ((reference_model, reference_id), id)
		)`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications_by_reference table: %v", err)
	}

	return nil
}

// CreateNotification inserts the record into both tables.
func (nr *NotificationRepo) CreateNotification(notification *models.Notification) error {
	id, err := gocql.ParseUUID(notification.ID)
	if err != nil {
		id = gocql.TimeUUID()
		notification.ID = id.String()
	}

	err = nr.session.Query(
		`INSERT INTO notifications_by_user (id, user_id, reference_id, reference_model, type, message, is_read, should_send_mail, sent_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, notification.UserID, notification.ReferenceID, string(notification.ReferenceModel),
		string(notification.Type), notification.Message, notification.IsRead,
		notification.ShouldSendMail, notification.SentAt, notification.CreatedAt,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to insert notification: %v", err)
	}

	err = nr.session.Query(
		`INSERT INTO notifications_by_reference (id, user_id, reference_id, reference_model, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, notification.UserID, notification.ReferenceID, string(notification.ReferenceModel), notification.CreatedAt,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to index notification by reference: %v", err)
	}

	return nil
}

// GetNotificationsByUser returns the user's notifications, newest first.
func (nr *NotificationRepo) GetNotificationsByUser(userID string) ([]models.Notification, error) {
	iter := nr.session.Query(
		`SELECT id, user_id, reference_id, reference_model, type, message, is_read, should_send_mail, sent_at, created_at
		 FROM notifications_by_user WHERE user_id = ?`, userID).Iter()

	var notifications []models.Notification
	var n models.Notification
	var id gocql.UUID
	var refModel, nType string
	var sentAt time.Time

	for iter.Scan(&id, &n.UserID, &n.ReferenceID, &refModel, &nType, &n.Message, &n.IsRead, &n.ShouldSendMail, &sentAt, &n.CreatedAt) {
		n.ID = id.String()
		n.ReferenceModel = models.ReferenceModel(refModel)
		n.Type = models.NotificationType(nType)
		if sentAt.IsZero() {
			n.SentAt = nil
		} else {
			t := sentAt
			n.SentAt = &t
		}
		notifications = append(notifications, n)
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch notifications for user %s: %v", userID, err)
	}

	return notifications, nil
}

// MarkNotificationAsRead flips the is_read flag of one notification.
func (nr *NotificationRepo) MarkNotificationAsRead(userID, notificationID string, createdAt time.Time) error {
	id, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return fmt.Errorf("%w: invalid notification id", models.ErrValidation)
	}

	err = nr.session.Query(
		`UPDATE notifications_by_user SET is_read = true WHERE user_id = ? AND created_at = ? AND id = ?`,
		userID, createdAt, id).Exec()
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %v", err)
	}

	return nil
}

// MarkAllAsRead flips is_read on every unread notification of the user.
func (nr *NotificationRepo) MarkAllAsRead(userID string) error {
	notifications, err := nr.GetNotificationsByUser(userID)
	if err != nil {
		return err
	}

	for _, n := range notifications {
		if n.IsRead {
			continue
		}
		if err := nr.MarkNotificationAsRead(userID, n.ID, n.CreatedAt); err != nil {
			return err
		}
	}

	return nil
}

// DeleteNotification removes one notification from both tables.
func (nr *NotificationRepo) DeleteNotification(userID, notificationID string, createdAt time.Time, referenceModel models.ReferenceModel, referenceID string) error {
	id, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return fmt.Errorf("%w: invalid notification id", models.ErrValidation)
	}

	err = nr.session.Query(
		`DELETE FROM notifications_by_user WHERE user_id = ? AND created_at = ? AND id = ?`,
		userID, createdAt, id).Exec()
	if err != nil {
		return fmt.Errorf("failed to delete notification: %v", err)
	}

	err = nr.session.Query(
		`DELETE FROM notifications_by_reference WHERE reference_model = ? AND reference_id = ? AND id = ?`,
		string(referenceModel), referenceID, id).Exec()
	if err != nil {
		return fmt.Errorf("failed to delete notification reference index: %v", err)
	}

	return nil
}

// DeleteByReference removes every notification whose (reference_model,
// reference_id) matches the deleted entity, and only those. Returns the
// number of removed records; zero matches is a normal outcome.
func (nr *NotificationRepo) DeleteByReference(referenceModel models.ReferenceModel, referenceID string) (int64, error) {
	iter := nr.session.Query(
		`SELECT id, user_id, created_at FROM notifications_by_reference WHERE reference_model = ? AND reference_id = ?`,
		string(referenceModel), referenceID).Iter()

	type key struct {
		id        gocql.UUID
		userID    string
		createdAt time.Time
	}
	var keys []key
	var k key
	for iter.Scan(&k.id, &k.userID, &k.createdAt) {
		keys = append(keys, k)
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("failed to resolve notifications for %s %s: %v", referenceModel, referenceID, err)
	}

	var deleted int64
	for _, k := range keys {
		err := nr.session.Query(
			`DELETE FROM notifications_by_user WHERE user_id = ? AND created_at = ? AND id = ?`,
			k.userID, k.createdAt, k.id).Exec()
		if err != nil {
			logging.Logger.Warnf("Event ID: NOTIFICATION_DELETE_FAILED, Description: Failed to delete notification %s: %v", k.id.String(), err)
			continue
		}
		deleted++
	}

	err := nr.session.Query(
		`DELETE FROM notifications_by_reference WHERE reference_model = ? AND reference_id = ?`,
		string(referenceModel), referenceID).Exec()
	if err != nil {
		return deleted, fmt.Errorf("failed to clear reference partition for %s %s: %v", referenceModel, referenceID, err)
	}

	return deleted, nil
}
