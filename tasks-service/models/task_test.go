package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func statusPtr(s TaskStatus) *TaskStatus { return &s }
func intPtr(i int) *int                  { return &i }

func TestResolveTransitionDerivedProgress(t *testing.T) {
	task := Task{Status: StatusToDo, Progress: 0}

	// to do -> in progress with no explicit progress defaults to 1
	result, err := ResolveTransition(task, TransitionRequest{Status: statusPtr(StatusInProgress)})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, result.Status)
	require.Equal(t, 1, result.Progress)
	require.True(t, result.StatusChanged)

	// straight to done snaps progress to 100
	task.Status = result.Status
	task.Progress = result.Progress
	result, err = ResolveTransition(task, TransitionRequest{Status: statusPtr(StatusDone)})
	require.NoError(t, err)
	require.Equal(t, StatusDone, result.Status)
	require.Equal(t, 100, result.Progress)

	// reopening from done defaults to 99
	task.Status = result.Status
	task.Progress = result.Progress
	result, err = ResolveTransition(task, TransitionRequest{Status: statusPtr(StatusInProgress)})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, result.Status)
	require.Equal(t, 99, result.Progress)
}

func TestResolveTransitionKeepsMidProgress(t *testing.T) {
	task := Task{Status: StatusInProgress, Progress: 42}

	result, err := ResolveTransition(task, TransitionRequest{Status: statusPtr(StatusInProgress)})
	require.NoError(t, err)
	require.Equal(t, 42, result.Progress)
	require.False(t, result.StatusChanged)
}

func TestResolveTransitionRejections(t *testing.T) {
	tests := []struct {
		name    string
		current Task
		req     TransitionRequest
	}{
		{
			name:    "explicit in progress with progress 100",
			current: Task{Status: StatusInProgress, Progress: 50},
			req:     TransitionRequest{Status: statusPtr(StatusInProgress), Progress: intPtr(100)},
		},
		{
			name:    "explicit in progress with progress 0",
			current: Task{Status: StatusInProgress, Progress: 50},
			req:     TransitionRequest{Status: statusPtr(StatusInProgress), Progress: intPtr(0)},
		},
		{
			name:    "to do with nonzero progress",
			current: Task{Status: StatusInProgress, Progress: 50},
			req:     TransitionRequest{Status: statusPtr(StatusToDo), Progress: intPtr(10)},
		},
		{
			name:    "done with partial progress",
			current: Task{Status: StatusInProgress, Progress: 50},
			req:     TransitionRequest{Status: statusPtr(StatusDone), Progress: intPtr(80)},
		},
		{
			name:    "progress above range",
			current: Task{Status: StatusInProgress, Progress: 50},
			req:     TransitionRequest{Progress: intPtr(101)},
		},
		{
			name:    "progress below range",
			current: Task{Status: StatusInProgress, Progress: 50},
			req:     TransitionRequest{Progress: intPtr(-1)},
		},
		{
			name:    "unknown status",
			current: Task{Status: StatusToDo, Progress: 0},
			req:     TransitionRequest{Status: statusPtr(TaskStatus("archived"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveTransition(tt.current, tt.req)
			require.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestResolveTransitionProgressDrivesStatus(t *testing.T) {
	tests := []struct {
		name         string
		current      Task
		progress     int
		wantStatus   TaskStatus
		wantProgress int
	}{
		{"progress 100 completes the task", Task{Status: StatusInProgress, Progress: 60}, 100, StatusDone, 100},
		{"progress 0 resets to to do", Task{Status: StatusInProgress, Progress: 60}, 0, StatusToDo, 0},
		{"mid progress starts the task", Task{Status: StatusToDo, Progress: 0}, 55, StatusInProgress, 55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ResolveTransition(tt.current, TransitionRequest{Progress: intPtr(tt.progress)})
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, result.Status)
			require.Equal(t, tt.wantProgress, result.Progress)
		})
	}
}

// The status/progress invariant must hold after every accepted transition.
func TestResolveTransitionInvariant(t *testing.T) {
	statuses := []TaskStatus{StatusToDo, StatusInProgress, StatusDone}
	currents := []Task{
		{Status: StatusToDo, Progress: 0},
		{Status: StatusInProgress, Progress: 1},
		{Status: StatusInProgress, Progress: 99},
		{Status: StatusDone, Progress: 100},
	}

	for _, current := range currents {
		for _, status := range statuses {
			result, err := ResolveTransition(current, TransitionRequest{Status: statusPtr(status)})
			require.NoError(t, err, "from %s to %s", current.Status, status)

			switch result.Status {
			case StatusToDo:
				require.Equal(t, 0, result.Progress)
			case StatusDone:
				require.Equal(t, 100, result.Progress)
			case StatusInProgress:
				require.GreaterOrEqual(t, result.Progress, 1)
				require.LessOrEqual(t, result.Progress, 99)
			}
		}
	}
}
