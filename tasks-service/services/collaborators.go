package services

import (
	"context"
	"fmt"
	"net/http"

	"taskhub/utils"
)

// ProjectsClient calls upward into the projects service to resolve a task's
// parent references and to push recomputed aggregate progress.
type ProjectsClient struct {
	client *utils.ServiceClient
}

func NewProjectsClient(client *utils.ServiceClient) *ProjectsClient {
	return &ProjectsClient{client: client}
}

// GetProjectTeam resolves the team owning the given project.
func (c *ProjectsClient) GetProjectTeam(ctx context.Context, projectID string) (string, error) {
	var resp struct {
		TeamID string `json:"teamId"`
	}
	path := fmt.Sprintf("/internal/projects/%s/team", projectID)
	if err := c.client.DoJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to resolve team for project %s: %v", projectID, err)
	}
	return resp.TeamID, nil
}

// UpdateProjectProgress pushes an aggregate progress value through the
// dedicated internal path that bypasses general project validation.
func (c *ProjectsClient) UpdateProjectProgress(ctx context.Context, projectID string, progress int) error {
	body := struct {
		Progress int `json:"progress"`
	}{Progress: progress}
	path := fmt.Sprintf("/internal/projects/%s/progress", projectID)
	return c.client.DoJSON(ctx, http.MethodPatch, path, body, nil)
}

// GetProjectIDsByTeam returns the ids of all live projects under a team.
func (c *ProjectsClient) GetProjectIDsByTeam(ctx context.Context, teamID string) ([]string, error) {
	var projects []struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/internal/projects/team/%s", teamID)
	if err := c.client.DoJSON(ctx, http.MethodGet, path, nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to fetch projects for team %s: %v", teamID, err)
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids, nil
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

// DeleteByReference removes every notification referencing the given entity.
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
