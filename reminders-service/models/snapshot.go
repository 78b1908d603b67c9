package models

import "time"

// TaskSnapshot is the slice of the task record the deadline scan needs.
type TaskSnapshot struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"projectId"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	Progress   int        `json:"progress"`
	AssignedTo string     `json:"assignedTo,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
}

// ProjectSnapshot is the slice of the project record the deadline scan needs.
type ProjectSnapshot struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Name      string    `json:"name"`
	Progress  int       `json:"progress"`
	EndDate   time.Time `json:"endDate"`
	CreatedBy string    `json:"createdBy"`
}

const StatusDone = "done"
