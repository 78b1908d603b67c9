package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusToDo       TaskStatus = "to do"
	StatusInProgress TaskStatus = "in progress"
	StatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

var (
	// ErrTaskNotFound is returned when the referenced task does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTransition signals an illegal status/progress combination.
	ErrInvalidTransition = errors.New("invalid status/progress combination")
	// ErrForbidden signals that the actor lacks the required relationship.
	ErrForbidden = errors.New("access forbidden")
)

type Task struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProjectID   string             `json:"projectId" bson:"projectId"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Status      TaskStatus         `json:"status" bson:"status"`
	Progress    int                `json:"progress" bson:"progress"`
	Priority    TaskPriority       `json:"priority" bson:"priority"`
	AssignedTo  string             `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	CreatedBy   string             `json:"createdBy" bson:"createdBy"`
	DueDate     *time.Time         `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// ValidStatus reports whether s is one of the three known statuses.
func ValidStatus(s TaskStatus) bool {
	return s == StatusToDo || s == StatusInProgress || s == StatusDone
}

// ValidPriority reports whether p is one of the three known priorities.
func ValidPriority(p TaskPriority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// TransitionRequest carries the requested status and/or progress of one task
// update. Nil fields were not supplied by the caller.
type TransitionRequest struct {
	Status   *TaskStatus
	Progress *int
}

// TransitionResult is the accepted outcome of a transition.
type TransitionResult struct {
	Status        TaskStatus
	Progress      int
	StatusChanged bool
}

// ResolveTransition validates and applies one status/progress transition.
//
// When status is requested without progress, progress is derived: Done snaps
// to 100, ToDo snaps to 0, and InProgress defaults to 99 when coming from
// Done, 1 when coming from ToDo, and keeps the current progress otherwise.
//
// When progress is supplied without status, status follows the new progress
// (0 means ToDo, 100 means Done, anything between means InProgress). This is
// the documented policy for the progress-100 case: a progress-only update to
// 100 implicitly completes the task, while an explicitly supplied status
// must agree with the resulting progress or the whole update is rejected.
func ResolveTransition(current Task, req TransitionRequest) (TransitionResult, error) {
	status := current.Status
	progress := current.Progress

	if req.Status != nil {
		if !ValidStatus(*req.Status) {
			return TransitionResult{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, *req.Status)
		}
		status = *req.Status

		if req.Progress == nil {
			switch status {
			case StatusDone:
				progress = 100
			case StatusToDo:
				progress = 0
			case StatusInProgress:
				switch current.Status {
				case StatusDone:
					progress = 99
				case StatusToDo:
					progress = 1
				}
			}
		}
	}

	if req.Progress != nil {
		progress = *req.Progress
		if progress < 0 || progress > 100 {
			return TransitionResult{}, fmt.Errorf("%w: progress %d out of range", ErrInvalidTransition, progress)
		}
		if req.Status == nil {
			switch {
			case progress == 0:
				status = StatusToDo
			case progress == 100:
				status = StatusDone
			default:
				status = StatusInProgress
			}
		}
	}

	switch status {
	case StatusToDo:
		if progress != 0 {
			return TransitionResult{}, fmt.Errorf("%w: status %q requires progress 0, got %d", ErrInvalidTransition, status, progress)
		}
	case StatusDone:
		if progress != 100 {
			return TransitionResult{}, fmt.Errorf("%w: status %q requires progress 100, got %d", ErrInvalidTransition, status, progress)
		}
	case StatusInProgress:
		if progress < 1 || progress > 99 {
			return TransitionResult{}, fmt.Errorf("%w: status %q requires progress between 1 and 99, got %d", ErrInvalidTransition, status, progress)
		}
	}

	return TransitionResult{
		Status:        status,
		Progress:      progress,
		StatusChanged: status != current.Status,
	}, nil
}
