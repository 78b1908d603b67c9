package services

import (
	"context"
	"fmt"
	"net/http"

	"taskhub/utils"
)

// ProjectsClient calls downward into the projects service to cascade a team
// deletion.
type ProjectsClient struct {
	client *utils.ServiceClient
}

func NewProjectsClient(client *utils.ServiceClient) *ProjectsClient {
	return &ProjectsClient{client: client}
}

// DeleteProjectsByTeam cascade-deletes every project under a team (each
// project cascades to its own tasks) and reports the deleted count.
func (c *ProjectsClient) DeleteProjectsByTeam(ctx context.Context, teamID string) (int64, error) {
	var resp struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	path := fmt.Sprintf("/internal/projects/team/%s", teamID)
	if err := c.client.DoJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.DeletedCount, nil
}

// TasksClient triggers bulk unassignment after a membership removal.
type TasksClient struct {
	client *utils.ServiceClient
}

func NewTasksClient(client *utils.ServiceClient) *TasksClient {
	return &TasksClient{client: client}
}

// UnassignUserTasks clears every assignment the user holds within the
// team's projects and reports the modified count. Idempotent per task.
func (c *TasksClient) UnassignUserTasks(ctx context.Context, userID, teamID string) (int64, error) {
	var resp struct {
		ModifiedCount int64 `json:"modifiedCount"`
	}
	path := fmt.Sprintf("/internal/tasks/unassign/%s?teamId=%s", userID, teamID)
	if err := c.client.DoJSON(ctx, http.MethodPatch, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.ModifiedCount, nil
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

func (c *NotificationsClient) DeleteByReference(ctx context.Context, referenceModel, referenceID string) error {
	path := fmt.Sprintf("/internal/notifications/reference/%s/%s", referenceModel, referenceID)
	return c.client.DoJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ActivityRequest mirrors the analytics service append contract.
type ActivityRequest struct {
	UserID      string `json:"userId"`
	Action      string `json:"action"`
	RelatedID   string `json:"relatedId"`
	RelatedType string `json:"relatedType"`
	TeamID      string `json:"teamId,omitempty"`
}

// ActivityClient appends entries to the activity log.
type ActivityClient struct {
	client *utils.ServiceClient
}

func NewActivityClient(client *utils.ServiceClient) *ActivityClient {
	return &ActivityClient{client: client}
}

func (c *ActivityClient) RecordActivity(ctx context.Context, req ActivityRequest) error {
	return c.client.DoJSON(ctx, http.MethodPost, "/internal/activity", req, nil)
}
