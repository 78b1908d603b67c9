package services

import (
	"context"
	"math"

	"taskhub/logging"

	"go.mongodb.org/mongo-driver/bson"
)

// AggregateProgress computes the unweighted mean of the given task progress
// values, rounded half away from zero (half-up for this non-negative
// domain). Zero tasks yield zero progress.
func AggregateProgress(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}

// RecomputeProjectProgress recomputes a project's aggregate progress from
// its live tasks and pushes it to the projects service. The operation is
// idempotent: repeated runs over unchanged task data produce the same value,
// and concurrent runs are last-write-wins on the project's progress field.
func (s *TaskService) RecomputeProjectProgress(ctx context.Context, projectID string) error {
	cursor, err := s.tasksCollection.Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var progresses []int
	for cursor.Next(ctx) {
		var doc struct {
			Progress int `bson:"progress"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		progresses = append(progresses, doc.Progress)
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	aggregate := AggregateProgress(progresses)
	if err := s.projects.UpdateProjectProgress(ctx, projectID, aggregate); err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: PROJECT_PROGRESS_RECOMPUTED, Description: Project %s aggregate progress recomputed to %d from %d tasks", projectID, aggregate, len(progresses))
	return nil
}
