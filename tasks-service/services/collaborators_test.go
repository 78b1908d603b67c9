package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskhub/utils"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*utils.ServiceClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return utils.NewServiceClient("test-cb", srv.URL, 0, "test-secret"), srv
}

func TestUpdateProjectProgressRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody struct {
		Progress int `json:"progress"`
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get(utils.InternalAuthHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	})

	projects := NewProjectsClient(client)
	err := projects.UpdateProjectProgress(context.Background(), "proj-1", 73)
	require.NoError(t, err)
	require.Equal(t, "/internal/projects/proj-1/progress", gotPath)
	require.Equal(t, "test-secret", gotAuth)
	require.Equal(t, 73, gotBody.Progress)
}

func TestGetProjectIDsByTeam(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/internal/projects/team/team-9", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]string{{"id": "p1"}, {"id": "p2"}})
	})

	projects := NewProjectsClient(client)
	ids, err := projects.GetProjectIDsByTeam(context.Background(), "team-9")
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, ids)
}

func TestCollaboratorErrorOnFailureStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	notifications := NewNotificationsClient(client)
	err := notifications.CreateNotification(context.Background(), NotificationRequest{
		UserID: "u1", ReferenceID: "t1", ReferenceModel: "Task", Type: "ASSIGN",
	})
	require.Error(t, err)
}

func TestGetProjectTeam(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/internal/projects/proj-4/team", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"teamId": "team-7"})
	})

	projects := NewProjectsClient(client)
	teamID, err := projects.GetProjectTeam(context.Background(), "proj-4")
	require.NoError(t, err)
	require.Equal(t, "team-7", teamID)
}

// Activity entries carry the owning team so they land in the team feed,
// not just the actor's personal feed.
func TestRecordActivityCarriesResolvedTeam(t *testing.T) {
	var posted ActivityRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/projects/proj-4/team":
			json.NewEncoder(w).Encode(map[string]string{"teamId": "team-7"})
		case "/internal/activity":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	})

	service := &TaskService{projects: NewProjectsClient(client), activity: NewActivityClient(client)}
	service.recordActivity("u1", `created task "ship it"`, "task-1", "proj-4")

	require.Equal(t, "u1", posted.UserID)
	require.Equal(t, "task-1", posted.RelatedID)
	require.Equal(t, "Task", posted.RelatedType)
	require.Equal(t, "team-7", posted.TeamID)
}

// A failed team lookup must not suppress the activity entry itself.
func TestRecordActivityWithoutTeamOnLookupFailure(t *testing.T) {
	var posted ActivityRequest
	var recorded bool
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/activity":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			recorded = true
			w.WriteHeader(http.StatusCreated)
		default:
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}
	})

	service := &TaskService{projects: NewProjectsClient(client), activity: NewActivityClient(client)}
	service.recordActivity("u1", `deleted task "old"`, "task-2", "proj-9")

	require.True(t, recorded)
	require.Empty(t, posted.TeamID)
	require.Equal(t, "u1", posted.UserID)
}
