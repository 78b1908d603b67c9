package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelatedType names the entity an activity entry points at.
type RelatedType string

const (
	RelatedTask    RelatedType = "Task"
	RelatedProject RelatedType = "Project"
	RelatedTeam    RelatedType = "Team"
)

// ActivityLog is one append-only audit entry. Entries are never updated;
// a TTL index on Timestamp expires them after the configured retention.
type ActivityLog struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      string             `json:"userId" bson:"userId"`
	Action      string             `json:"action" bson:"action"`
	RelatedID   string             `json:"relatedId" bson:"relatedId"`
	RelatedType RelatedType        `json:"relatedType" bson:"relatedType"`
	TeamID      string             `json:"teamId,omitempty" bson:"teamId,omitempty"`
	Timestamp   time.Time          `json:"timestamp" bson:"timestamp"`
}

// ErrValidation signals failed input validation.
var ErrValidation = errors.New("validation failed")

// ValidRelatedType reports whether t is one of the known entity kinds.
func ValidRelatedType(t RelatedType) bool {
	switch t {
	case RelatedTask, RelatedProject, RelatedTeam:
		return true
	}
	return false
}
