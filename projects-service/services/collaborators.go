package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/utils"
)

// TaskRecord is the slice of the tasks service contract this service reads.
type TaskRecord struct {
	ID      string     `json:"id"`
	Status  string     `json:"status"`
	DueDate *time.Time `json:"dueDate,omitempty"`
}

// TasksClient calls downward into the tasks service for cascade deletion and
// for validation pulls.
type TasksClient struct {
	client *utils.ServiceClient
}

func NewTasksClient(client *utils.ServiceClient) *TasksClient {
	return &TasksClient{client: client}
}

// DeleteTasksByProject cascade-deletes every task under a project and
// reports the deleted count.
func (c *TasksClient) DeleteTasksByProject(ctx context.Context, projectID string) (int64, error) {
	var resp struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	path := fmt.Sprintf("/internal/tasks/project/%s", projectID)
	if err := c.client.DoJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.DeletedCount, nil
}

// GetTasksByProject returns the project's tasks for validation purposes.
func (c *TasksClient) GetTasksByProject(ctx context.Context, projectID string) ([]TaskRecord, error) {
	var tasks []TaskRecord
	path := fmt.Sprintf("/internal/tasks/project/%s", projectID)
	if err := c.client.DoJSON(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks for project %s: %v", projectID, err)
	}
	return tasks, nil
}

// NotificationsClient removes notifications referencing deleted projects.
type NotificationsClient struct {
	client *utils.ServiceClient
}

func NewNotificationsClient(client *utils.ServiceClient) *NotificationsClient {
	return &NotificationsClient{client: client}
}

func (c *NotificationsClient) DeleteByReference(ctx context.Context, referenceModel, referenceID string) error {
	path := fmt.Sprintf("/internal/notifications/reference/%s/%s", referenceModel, referenceID)
	return c.client.DoJSON(ctx, http.MethodDelete, path, nil, nil)
}
