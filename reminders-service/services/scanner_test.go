package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskhub/reminders-service/models"

	"github.com/stretchr/testify/require"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"later today", time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC), 0},
		{"tomorrow morning", time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC), 1},
		{"in three days", time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC), 3},
		{"yesterday", time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DaysRemaining(now, tt.deadline))
		})
	}
}

func TestDaysRemainingAcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Belgrade")
	require.NoError(t, err)

	// Spring forward (2026-03-29): the span loses an hour, so four
	// calendar days are only 95 hours apart.
	springNow := time.Date(2026, 3, 28, 9, 0, 0, 0, loc)
	require.Equal(t, 4, DaysRemaining(springNow, time.Date(2026, 4, 1, 12, 0, 0, 0, loc)))
	require.Equal(t, 3, DaysRemaining(springNow, time.Date(2026, 3, 31, 12, 0, 0, 0, loc)))

	// Fall back (2026-10-25): the span gains an hour.
	fallNow := time.Date(2026, 10, 24, 9, 0, 0, 0, loc)
	require.Equal(t, 3, DaysRemaining(fallNow, time.Date(2026, 10, 27, 12, 0, 0, 0, loc)))
	require.Equal(t, 4, DaysRemaining(fallNow, time.Date(2026, 10, 28, 12, 0, 0, 0, loc)))
}

func TestDueTasksExcludesFourDaysAcrossSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Belgrade")
	require.NoError(t, err)
	now := time.Date(2026, 3, 28, 9, 0, 0, 0, loc)

	tasks := []models.TaskSnapshot{
		{ID: "t1", Title: "in window", Status: "to do", AssignedTo: "u1", DueDate: datePtr(time.Date(2026, 3, 31, 12, 0, 0, 0, loc))},
		{ID: "t2", Title: "out of window", Status: "to do", AssignedTo: "u1", DueDate: datePtr(time.Date(2026, 4, 1, 12, 0, 0, 0, loc))},
	}

	due := DueTasks(tasks, now, 3)
	require.Len(t, due, 1)
	require.Equal(t, "t1", due[0].ID)
}

func TestDueTasksWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	inDays := func(d int) *time.Time {
		return datePtr(now.AddDate(0, 0, d))
	}

	tasks := []models.TaskSnapshot{
		{ID: "t1", Title: "due today", Status: "in progress", AssignedTo: "u1", DueDate: inDays(0)},
		{ID: "t2", Title: "due in three days", Status: "to do", AssignedTo: "u1", DueDate: inDays(3)},
		{ID: "t3", Title: "due in four days", Status: "to do", AssignedTo: "u1", DueDate: inDays(4)},
		{ID: "t4", Title: "overdue", Status: "in progress", AssignedTo: "u1", DueDate: inDays(-1)},
		{ID: "t5", Title: "no due date", Status: "to do", AssignedTo: "u1"},
		{ID: "t6", Title: "already done", Status: "done", AssignedTo: "u1", DueDate: inDays(1)},
		{ID: "t7", Title: "unassigned", Status: "to do", DueDate: inDays(1)},
	}

	due := DueTasks(tasks, now, 3)
	require.Len(t, due, 2)
	require.Equal(t, "t1", due[0].ID)
	require.Equal(t, "t2", due[1].ID)
}

func TestDueProjectsWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	projects := []models.ProjectSnapshot{
		{ID: "p1", Name: "ends in a week", Progress: 40, CreatedBy: "u1", EndDate: now.AddDate(0, 0, 7)},
		{ID: "p2", Name: "ends in eight days", Progress: 40, CreatedBy: "u1", EndDate: now.AddDate(0, 0, 8)},
		{ID: "p3", Name: "completed", Progress: 100, CreatedBy: "u1", EndDate: now.AddDate(0, 0, 2)},
		{ID: "p4", Name: "no owner", Progress: 10, EndDate: now.AddDate(0, 0, 2)},
	}

	due := DueProjects(projects, now, 7)
	require.Len(t, due, 1)
	require.Equal(t, "p1", due[0].ID)
}

type fakeTaskSource struct {
	tasks []models.TaskSnapshot
	err   error
}

func (f *fakeTaskSource) GetAllTasks(ctx context.Context) ([]models.TaskSnapshot, error) {
	return f.tasks, f.err
}

type fakeProjectSource struct {
	projects []models.ProjectSnapshot
	err      error
}

func (f *fakeProjectSource) GetAllProjects(ctx context.Context) ([]models.ProjectSnapshot, error) {
	return f.projects, f.err
}

type fakeDirectory struct {
	mu      sync.Mutex
	users   map[string]UserRecord
	err     error
	lookups int
	asked   []string
}

func (f *fakeDirectory) BatchGetUsers(ctx context.Context, ids []string) (map[string]UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	f.asked = append(f.asked, ids...)
	return f.users, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	requests []NotificationRequest
	failFor  string
}

func (f *fakeNotifier) CreateNotification(ctx context.Context, req NotificationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.failFor != "" && req.ReferenceID == f.failFor {
		return errors.New("write timeout")
	}
	return nil
}

func newTestScanner(tasks *fakeTaskSource, projects *fakeProjectSource, directory *fakeDirectory, notifier *fakeNotifier) *ReminderScanner {
	return &ReminderScanner{
		tasks:             tasks,
		projects:          projects,
		users:             directory,
		notifications:     notifier,
		taskWindowDays:    3,
		projectWindowDays: 7,
	}
}

func TestRunNotifiesTaskDueInThreeDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tasks := &fakeTaskSource{tasks: []models.TaskSnapshot{
		{ID: "t1", Title: "ship release", Status: "in progress", AssignedTo: "u1", DueDate: datePtr(now.AddDate(0, 0, 3))},
	}}
	directory := &fakeDirectory{users: map[string]UserRecord{
		"u1": {ID: "u1", Email: "u1@example.com"},
	}}
	notifier := &fakeNotifier{}

	scanner := newTestScanner(tasks, &fakeProjectSource{}, directory, notifier)
	scanner.Run(context.Background(), now)

	require.Len(t, notifier.requests, 1)
	req := notifier.requests[0]
	require.Equal(t, "DEADLINE", req.Type)
	require.Equal(t, "Task", req.ReferenceModel)
	require.Equal(t, "t1", req.ReferenceID)
	require.Equal(t, "u1", req.UserID)
	require.True(t, req.ShouldSendMail)
	require.Equal(t, 1, directory.lookups)
}

func TestRunIgnoresTaskDueInFourDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tasks := &fakeTaskSource{tasks: []models.TaskSnapshot{
		{ID: "t1", Title: "ship release", Status: "in progress", AssignedTo: "u1", DueDate: datePtr(now.AddDate(0, 0, 4))},
	}}
	directory := &fakeDirectory{}
	notifier := &fakeNotifier{}

	scanner := newTestScanner(tasks, &fakeProjectSource{}, directory, notifier)
	scanner.Run(context.Background(), now)

	require.Empty(t, notifier.requests)
	require.Zero(t, directory.lookups)
}

func TestRunBatchesUserLookupAcrossItems(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tasks := &fakeTaskSource{tasks: []models.TaskSnapshot{
		{ID: "t1", Title: "a", Status: "to do", AssignedTo: "u1", DueDate: datePtr(now.AddDate(0, 0, 1))},
		{ID: "t2", Title: "b", Status: "to do", AssignedTo: "u2", DueDate: datePtr(now.AddDate(0, 0, 2))},
	}}
	projects := &fakeProjectSource{projects: []models.ProjectSnapshot{
		{ID: "p1", Name: "c", Progress: 10, CreatedBy: "u1", EndDate: now.AddDate(0, 0, 5)},
	}}
	directory := &fakeDirectory{users: map[string]UserRecord{
		"u1": {ID: "u1", Email: "u1@example.com"},
	}}
	notifier := &fakeNotifier{}

	scanner := newTestScanner(tasks, projects, directory, notifier)
	scanner.Run(context.Background(), now)

	require.Equal(t, 1, directory.lookups)
	require.ElementsMatch(t, []string{"u1", "u2"}, directory.asked)
	require.Len(t, notifier.requests, 3)

	byReference := map[string]NotificationRequest{}
	for _, req := range notifier.requests {
		byReference[req.ReferenceID] = req
	}
	require.True(t, byReference["t1"].ShouldSendMail)
	require.False(t, byReference["t2"].ShouldSendMail)
	require.True(t, byReference["p1"].ShouldSendMail)
}

func TestRunContinuesPastDispatchFailure(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tasks := &fakeTaskSource{tasks: []models.TaskSnapshot{
		{ID: "t1", Title: "a", Status: "to do", AssignedTo: "u1", DueDate: datePtr(now.AddDate(0, 0, 1))},
		{ID: "t2", Title: "b", Status: "to do", AssignedTo: "u2", DueDate: datePtr(now.AddDate(0, 0, 2))},
	}}
	notifier := &fakeNotifier{failFor: "t1"}

	scanner := newTestScanner(tasks, &fakeProjectSource{}, &fakeDirectory{}, notifier)
	scanner.Run(context.Background(), now)

	require.Len(t, notifier.requests, 2)
}

func TestRunProceedsWhenLookupFails(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tasks := &fakeTaskSource{tasks: []models.TaskSnapshot{
		{ID: "t1", Title: "a", Status: "to do", AssignedTo: "u1", DueDate: datePtr(now.AddDate(0, 0, 1))},
	}}
	directory := &fakeDirectory{err: errors.New("identity service unavailable")}
	notifier := &fakeNotifier{}

	scanner := newTestScanner(tasks, &fakeProjectSource{}, directory, notifier)
	scanner.Run(context.Background(), now)

	require.Len(t, notifier.requests, 1)
	require.False(t, notifier.requests[0].ShouldSendMail)
}
