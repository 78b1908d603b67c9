package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is one identity record. Authentication lives outside this system;
// this service only answers who a user is and how to reach them.
type User struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username    string             `json:"username" bson:"username"`
	DisplayName string             `json:"displayName" bson:"displayName"`
	Email       string             `json:"email" bson:"email"`
	Avatar      string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrValidation signals failed input validation.
	ErrValidation = errors.New("validation failed")
)
