package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemberRole string

const (
	RoleLeader MemberRole = "leader"
	RoleMember MemberRole = "member"
)

var (
	// ErrTeamNotFound is returned when the referenced team does not exist.
	ErrTeamNotFound = errors.New("team not found")
	// ErrValidation signals failed input validation.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden signals that the actor is not a leader of the team.
	ErrForbidden = errors.New("access forbidden")
)

type Member struct {
	UserID string     `json:"userId" bson:"userId"`
	Role   MemberRole `json:"role" bson:"role"`
}

type Team struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Members     []Member           `json:"members" bson:"members"`
	MinMembers  int                `json:"minMembers" bson:"minMembers"`
	MaxMembers  int                `json:"maxMembers" bson:"maxMembers"`
	CreatedBy   string             `json:"createdBy" bson:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// ValidMemberBounds reports whether the team's membership constraint is
// well-formed: at least one member required, and the cap not below the floor.
func (t *Team) ValidMemberBounds() bool {
	return t.MinMembers >= 1 && t.MaxMembers >= t.MinMembers
}

// CanAccommodate reports whether n more members fit under MaxMembers.
func (t *Team) CanAccommodate(n int) bool {
	return len(t.Members)+n <= t.MaxMembers
}

// CanRelease reports whether removing n members keeps the team at or above
// MinMembers.
func (t *Team) CanRelease(n int) bool {
	return len(t.Members)-n >= t.MinMembers
}

// HasLeader reports whether the given user is a leader of the team.
func (t *Team) HasLeader(userID string) bool {
	for _, m := range t.Members {
		if m.UserID == userID && m.Role == RoleLeader {
			return true
		}
	}
	return false
}

// HasMember reports whether the given user belongs to the team in any role.
func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
