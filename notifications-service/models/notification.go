package models

import (
	"errors"
	"time"
)

type NotificationType string

const (
	TypeInfo         NotificationType = "INFO"
	TypeWarning      NotificationType = "WARNING"
	TypeDeadline     NotificationType = "DEADLINE"
	TypeInvite       NotificationType = "INVITE"
	TypeMention      NotificationType = "MENTION"
	TypeComment      NotificationType = "COMMENT"
	TypeAssign       NotificationType = "ASSIGN"
	TypeStatusChange NotificationType = "STATUS_CHANGE"
)

type ReferenceModel string

const (
	ReferenceTask    ReferenceModel = "Task"
	ReferenceTeam    ReferenceModel = "Team"
	ReferenceProject ReferenceModel = "Project"
	ReferenceComment ReferenceModel = "Comment"
)

var (
	// ErrNotificationNotFound is returned when the referenced notification
	// does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrValidation signals failed input validation.
	ErrValidation = errors.New("validation failed")
)

// ValidType reports whether t is one of the known notification types.
func ValidType(t NotificationType) bool {
	switch t {
	case TypeInfo, TypeWarning, TypeDeadline, TypeInvite, TypeMention, TypeComment, TypeAssign, TypeStatusChange:
		return true
	}
	return false
}

// ValidReferenceModel reports whether m is one of the known origin models.
func ValidReferenceModel(m ReferenceModel) bool {
	switch m {
	case ReferenceTask, ReferenceTeam, ReferenceProject, ReferenceComment:
		return true
	}
	return false
}

// Notification records one user-facing domain event. SentAt is stamped only
// when a mail dispatch was attempted and the recipient's address resolved;
// after creation only IsRead ever changes.
type Notification struct {
	ID             string           `cassandra:"id" json:"id"`
	UserID         string           `cassandra:"user_id" json:"userId"`
	ReferenceID    string           `cassandra:"reference_id" json:"referenceId"`
	ReferenceModel ReferenceModel   `cassandra:"reference_model" json:"referenceModel"`
	Type           NotificationType `cassandra:"type" json:"type"`
	Message        string           `cassandra:"message" json:"message"`
	IsRead         bool             `cassandra:"is_read" json:"isRead"`
	ShouldSendMail bool             `cassandra:"should_send_mail" json:"shouldSendMail"`
	SentAt         *time.Time       `cassandra:"sent_at" json:"sentAt,omitempty"`
	CreatedAt      time.Time        `cassandra:"created_at" json:"createdAt"`
}
