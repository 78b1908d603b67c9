package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/reminders-service/models"
	"taskhub/utils"
)

// TasksClient pulls the full task set in one call.
type TasksClient struct {
	client *utils.ServiceClient
}

func NewTasksClient(client *utils.ServiceClient) *TasksClient {
	return &TasksClient{client: client}
}

func (c *TasksClient) GetAllTasks(ctx context.Context) ([]models.TaskSnapshot, error) {
	var tasks []models.TaskSnapshot
	if err := c.client.DoJSON(ctx, http.MethodGet, "/internal/tasks", nil, &tasks); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %v", err)
	}
	return tasks, nil
}

// ProjectsClient pulls the full project set in one call.
type ProjectsClient struct {
	client *utils.ServiceClient
}

func NewProjectsClient(client *utils.ServiceClient) *ProjectsClient {
	return &ProjectsClient{client: client}
}

func (c *ProjectsClient) GetAllProjects(ctx context.Context) ([]models.ProjectSnapshot, error) {
	var projects []models.ProjectSnapshot
	if err := c.client.DoJSON(ctx, http.MethodGet, "/internal/projects", nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %v", err)
	}
	return projects, nil
}

// UserRecord is the identity collaborator's user shape.
type UserRecord struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Avatar      string    `json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UsersClient resolves user identifiers to contact records in one batched
// lookup per scan run.
type UsersClient struct {
	client *utils.ServiceClient
}

func NewUsersClient(client *utils.ServiceClient) *UsersClient {
	return &UsersClient{client: client}
}

func (c *UsersClient) BatchGetUsers(ctx context.Context, ids []string) (map[string]UserRecord, error) {
	if len(ids) == 0 {
		return map[string]UserRecord{}, nil
	}

	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}

	var records []UserRecord
	if err := c.client.DoJSON(ctx, http.MethodPost, "/internal/users/batch", body, &records); err != nil {
		return nil, fmt.Errorf("failed to resolve users: %v", err)
	}

	users := make(map[string]UserRecord, len(records))
	for _, record := range records {
		users[record.ID] = record
	}
	return users, nil
}

// NotificationRequest mirrors the notifications service create contract.
type NotificationRequest struct {
	UserID         string `json:"userId"`
	ReferenceID    string `json:"referenceId"`
	ReferenceModel string `json:"referenceModel"`
	Type           string `json:"type"`
	Message        string `json:"message"`
	ShouldSendMail bool   `json:"shouldSendMail"`
}

// NotificationsClient drives the notification dispatcher.
type NotificationsClient struct {
	client *utils.ServiceClient
}

func NewNotificationsClient(client *utils.ServiceClient) *NotificationsClient {
	return &NotificationsClient{client: client}
}

func (c *NotificationsClient) CreateNotification(ctx context.Context, req NotificationRequest) error {
	return c.client.DoJSON(ctx, http.MethodPost, "/api/notifications", req, nil)
}
