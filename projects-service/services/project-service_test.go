package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"taskhub/utils"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProjectStore struct {
	deleted int64
	err     error
}

func (f fakeProjectStore) deleteByID(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return f.deleted, f.err
}

func TestTaskDueAfter(t *testing.T) {
	endDate := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	before := endDate.AddDate(0, 0, -2)
	after := endDate.AddDate(0, 0, 2)

	require.Nil(t, taskDueAfter(nil, endDate))
	require.Nil(t, taskDueAfter([]TaskRecord{{ID: "t1"}}, endDate))
	require.Nil(t, taskDueAfter([]TaskRecord{{ID: "t1", DueDate: &before}}, endDate))

	conflict := taskDueAfter([]TaskRecord{
		{ID: "t1", DueDate: &before},
		{ID: "t2", DueDate: &after},
	}, endDate)
	require.NotNil(t, conflict)
	require.Equal(t, "t2", conflict.ID)
}

func TestDeleteTasksByProjectReportsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/internal/tasks/project/p1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]int64{"deletedCount": 4})
	}))
	defer srv.Close()

	tasks := NewTasksClient(utils.NewServiceClient("tasks-cb", srv.URL, 0, "secret"))
	deleted, err := tasks.DeleteTasksByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, int64(4), deleted)
}

func TestGetTasksByProjectDecodesDueDates(t *testing.T) {
	due := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]TaskRecord{
			{ID: "t1", Status: "in progress", DueDate: &due},
			{ID: "t2", Status: "done"},
		})
	}))
	defer srv.Close()

	tasks := NewTasksClient(utils.NewServiceClient("tasks-cb", srv.URL, 0, "secret"))
	records, err := tasks.GetTasksByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].DueDate)
	require.True(t, records[0].DueDate.Equal(due))
	require.Nil(t, records[1].DueDate)
}

// Deleting a project that no longer exists is a no-op success and fires no
// remote cascade.
func TestDeleteProjectMissingIsNoOp(t *testing.T) {
	var taskCascades, notificationCascades int64

	tasksSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&taskCascades, 1)
		json.NewEncoder(w).Encode(map[string]int64{"deletedCount": 0})
	}))
	defer tasksSrv.Close()

	notificationsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&notificationCascades, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer notificationsSrv.Close()

	service := &ProjectService{
		store:         fakeProjectStore{deleted: 0},
		tasks:         NewTasksClient(utils.NewServiceClient("tasks-cb", tasksSrv.URL, 0, "secret")),
		notifications: NewNotificationsClient(utils.NewServiceClient("notifications-cb", notificationsSrv.URL, 0, "secret")),
	}

	require.NoError(t, service.DeleteProject(context.Background(), primitive.NewObjectID()))
	require.NoError(t, service.DeleteProject(context.Background(), primitive.NewObjectID()))

	require.Zero(t, atomic.LoadInt64(&taskCascades))
	require.Zero(t, atomic.LoadInt64(&notificationCascades))
}

func TestDeleteProjectStoreErrorSurfaces(t *testing.T) {
	service := &ProjectService{store: fakeProjectStore{err: errors.New("write timeout")}}

	err := service.DeleteProject(context.Background(), primitive.NewObjectID())
	require.Error(t, err)
}

// A failing task leg must not prevent the notification leg from running.
func TestCascadeProjectIndependentLegs(t *testing.T) {
	var notificationCascades int64

	tasksSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer tasksSrv.Close()

	notificationsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/internal/notifications/reference/Project/p1", r.URL.Path)
		atomic.AddInt64(&notificationCascades, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer notificationsSrv.Close()

	service := &ProjectService{
		tasks:         NewTasksClient(utils.NewServiceClient("tasks-cb", tasksSrv.URL, 0, "secret")),
		notifications: NewNotificationsClient(utils.NewServiceClient("notifications-cb", notificationsSrv.URL, 0, "secret")),
	}

	service.cascadeProject("p1")

	require.Equal(t, int64(1), atomic.LoadInt64(&notificationCascades))
}
