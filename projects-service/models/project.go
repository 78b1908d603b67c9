package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrProjectNotFound is returned when the referenced project does not exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrDuplicateName signals a project name conflict within a team.
	ErrDuplicateName = errors.New("a project with this name already exists in the team")
	// ErrValidation signals failed input validation.
	ErrValidation = errors.New("validation failed")
)

// Project progress is derived from the project's tasks by the tasks service
// and pushed through a dedicated internal path; it is not independently
// authoritative.
type Project struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TeamID      string             `json:"teamId" bson:"teamId"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Progress    int                `json:"progress" bson:"progress"`
	StartDate   time.Time          `json:"startDate" bson:"startDate"`
	EndDate     time.Time          `json:"endDate" bson:"endDate"`
	CreatedBy   string             `json:"createdBy" bson:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}
