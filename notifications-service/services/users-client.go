package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/utils"
)

// UserRecord is the identity collaborator's user shape.
type UserRecord struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Avatar      string    `json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UsersClient resolves user identifiers to contact records through the
// identity collaborator. Lookup failures degrade the mail path rather than
// failing notification creation.
type UsersClient struct {
	client *utils.ServiceClient
}

func NewUsersClient(client *utils.ServiceClient) *UsersClient {
	return &UsersClient{client: client}
}

// BatchGetUsers resolves a set of user ids in one call.
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

// ResolveEmail returns the user's email address, or empty when the user is
// unknown or has no address.
func (c *UsersClient) ResolveEmail(ctx context.Context, userID string) (string, error) {
	users, err := c.BatchGetUsers(ctx, []string{userID})
	if err != nil {
		return "", err
	}
	return users[userID].Email, nil
}
