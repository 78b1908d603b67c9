package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskhub/teams-service/models"
	"taskhub/utils"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeTeamStore struct {
	team    *models.Team
	findErr error
	deleted int64
}

func (f fakeTeamStore) findByID(ctx context.Context, teamID primitive.ObjectID) (*models.Team, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.team, nil
}

func (f fakeTeamStore) deleteByID(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	return f.deleted, nil
}

// Two concurrent cascades for the same team must both complete without
// blocking on each other, and each must attempt every remote leg exactly
// once.
func TestCascadeTeamConcurrentCalls(t *testing.T) {
	var projectCascades, notificationCascades int64

	projectsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/internal/projects/team/team-1", r.URL.Path)
		atomic.AddInt64(&projectCascades, 1)
		json.NewEncoder(w).Encode(map[string]int64{"deletedCount": 2})
	}))
	defer projectsSrv.Close()

	notificationsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.True(t, strings.HasPrefix(r.URL.Path, "/internal/notifications/reference/Team/"))
		atomic.AddInt64(&notificationCascades, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer notificationsSrv.Close()

	service := &TeamService{
		projects:      NewProjectsClient(utils.NewServiceClient("projects-cb", projectsSrv.URL, 0, "secret")),
		notifications: NewNotificationsClient(utils.NewServiceClient("notifications-cb", notificationsSrv.URL, 0, "secret")),
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			service.cascadeTeam("team-1")
		}()
	}
	wg.Wait()

	require.Equal(t, int64(2), atomic.LoadInt64(&projectCascades))
	require.Equal(t, int64(2), atomic.LoadInt64(&notificationCascades))
}

// A failing notification leg must not prevent the project leg from running.
func TestCascadeTeamIndependentLegs(t *testing.T) {
	var projectCascades int64

	projectsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&projectCascades, 1)
		json.NewEncoder(w).Encode(map[string]int64{"deletedCount": 0})
	}))
	defer projectsSrv.Close()

	notificationsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer notificationsSrv.Close()

	service := &TeamService{
		projects:      NewProjectsClient(utils.NewServiceClient("projects-cb", projectsSrv.URL, 0, "secret")),
		notifications: NewNotificationsClient(utils.NewServiceClient("notifications-cb", notificationsSrv.URL, 0, "secret")),
	}

	service.cascadeTeam("team-2")

	require.Equal(t, int64(1), atomic.LoadInt64(&projectCascades))
}

// Deleting an already-deleted team is a no-op success, not an error, and
// fires no remote cascade.
func TestDeleteTeamMissingIsNoOp(t *testing.T) {
	service := &TeamService{store: fakeTeamStore{findErr: models.ErrTeamNotFound}}

	teamID := primitive.NewObjectID()
	require.NoError(t, service.DeleteTeam(context.Background(), teamID, "u1"))
	require.NoError(t, service.DeleteTeam(context.Background(), teamID, "u1"))
}

func TestDeleteTeamRequiresLeader(t *testing.T) {
	service := &TeamService{store: fakeTeamStore{
		team: &models.Team{
			Name:    "core",
			Members: []models.Member{{UserID: "u1", Role: models.RoleLeader}, {UserID: "u2", Role: models.RoleMember}},
		},
	}}

	err := service.DeleteTeam(context.Background(), primitive.NewObjectID(), "u2")
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestDeleteTeamCascadesAfterLocalDelete(t *testing.T) {
	var projectCascades, notificationCascades int64

	projectsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&projectCascades, 1)
		json.NewEncoder(w).Encode(map[string]int64{"deletedCount": 1})
	}))
	defer projectsSrv.Close()

	notificationsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&notificationCascades, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer notificationsSrv.Close()

	service := &TeamService{
		store: fakeTeamStore{
			team: &models.Team{
				Name:    "core",
				Members: []models.Member{{UserID: "u1", Role: models.RoleLeader}},
			},
			deleted: 1,
		},
		projects:      NewProjectsClient(utils.NewServiceClient("projects-cb", projectsSrv.URL, 0, "secret")),
		notifications: NewNotificationsClient(utils.NewServiceClient("notifications-cb", notificationsSrv.URL, 0, "secret")),
	}

	require.NoError(t, service.DeleteTeam(context.Background(), primitive.NewObjectID(), "u1"))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&projectCascades) == 1 && atomic.LoadInt64(&notificationCascades) == 1
	}, time.Second, 10*time.Millisecond)
}
