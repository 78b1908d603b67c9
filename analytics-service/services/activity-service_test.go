package services

import (
	"testing"
	"time"

	"taskhub/analytics-service/models"

	"github.com/stretchr/testify/require"
)

func TestNewActivityEntryStampsTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	entry, err := NewActivityEntry(RecordRequest{
		UserID:      "u1",
		Action:      "to do -> in progress",
		RelatedID:   "task-1",
		RelatedType: models.RelatedTask,
		TeamID:      "team-1",
	}, now)
	require.NoError(t, err)
	require.False(t, entry.ID.IsZero())
	require.Equal(t, now, entry.Timestamp)
	require.Equal(t, "team-1", entry.TeamID)
}

func TestNewActivityEntryValidation(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		req  RecordRequest
	}{
		{"missing user", RecordRequest{Action: "created", RelatedID: "t1", RelatedType: models.RelatedTask}},
		{"missing action", RecordRequest{UserID: "u1", RelatedID: "t1", RelatedType: models.RelatedTask}},
		{"unknown related type", RecordRequest{UserID: "u1", Action: "created", RelatedID: "t1", RelatedType: "Sprint"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewActivityEntry(tt.req, now)
			require.ErrorIs(t, err, models.ErrValidation)
		})
	}
}
