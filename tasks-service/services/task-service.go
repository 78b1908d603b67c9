package services

import (
	"context"
	"fmt"
	"time"

	"taskhub/logging"
	"taskhub/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// sideEffectTimeout bounds each fire-and-forget collaborator call made after
// the primary mutation was acknowledged.
const sideEffectTimeout = 5 * time.Second

type TaskService struct {
	tasksCollection *mongo.Collection
	projects        *ProjectsClient
	notifications   *NotificationsClient
	activity        *ActivityClient
}

func NewTaskService(tasksCollection *mongo.Collection, projects *ProjectsClient, notifications *NotificationsClient, activity *ActivityClient) *TaskService {
	return &TaskService{
		tasksCollection: tasksCollection,
		projects:        projects,
		notifications:   notifications,
		activity:        activity,
	}
}

// UpdateTaskRequest carries the optional fields of one task update. Nil
// fields were not supplied by the caller.
type UpdateTaskRequest struct {
	Status      *models.TaskStatus   `json:"status,omitempty"`
	Progress    *int                 `json:"progress,omitempty"`
	AssignedTo  *string              `json:"assignedTo,omitempty"`
	Priority    *models.TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time           `json:"dueDate,omitempty"`
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
}

func (s *TaskService) CreateTask(ctx context.Context, task models.Task, actorID string) (*models.Task, error) {
	if task.ProjectID == "" || task.Title == "" {
		return nil, fmt.Errorf("projectId and title are required")
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(task.Priority) {
		return nil, fmt.Errorf("unknown priority %q", task.Priority)
	}

	// New tasks pass through the same transition validation as updates so
	// the status/progress invariant holds from the first write.
	req := models.TransitionRequest{}
	if task.Status != "" {
		req.Status = &task.Status
	} else {
		status := models.StatusToDo
		req.Status = &status
	}
	if task.Progress != 0 {
		req.Progress = &task.Progress
	}
	result, err := models.ResolveTransition(models.Task{Status: models.StatusToDo, Progress: 0}, req)
	if err != nil {
		return nil, err
	}
	task.Status = result.Status
	task.Progress = result.Progress

	task.ID = primitive.NewObjectID()
	task.CreatedBy = actorID
	task.CreatedAt = time.Now()

	if _, err := s.tasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	go s.dispatchCreateSideEffects(task, actorID)

	return &task, nil
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	cursor, err := s.tasksCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := s.tasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) GetTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	cursor, err := s.tasksCollection.Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks for project %s: %v", projectID, err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

// UpdateTask applies one state-machine transition plus any assignment or
// metadata change. The primary write is acknowledged before any side effect
// is dispatched; side-effect failures are logged, never surfaced, and never
// roll back the mutation.
func (s *TaskService) UpdateTask(ctx context.Context, taskID primitive.ObjectID, actorID string, req UpdateTaskRequest) (*models.Task, error) {
	current, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	result, err := models.ResolveTransition(*current, models.TransitionRequest{Status: req.Status, Progress: req.Progress})
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"status":   result.Status,
		"progress": result.Progress,
	}
	assignmentChanged := false
	newAssignee := current.AssignedTo
	if req.AssignedTo != nil && *req.AssignedTo != current.AssignedTo {
		assignmentChanged = true
		newAssignee = *req.AssignedTo
		set["assignedTo"] = newAssignee
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return nil, fmt.Errorf("unknown priority %q", *req.Priority)
		}
		set["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		set["dueDate"] = *req.DueDate
	}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}

	res, err := s.tasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}
	if res.MatchedCount == 0 {
		return nil, models.ErrTaskNotFound
	}

	var updated models.Task
	if err := s.tasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to retrieve updated task: %v", err)
	}

	go s.dispatchUpdateSideEffects(*current, updated, result, actorID, assignmentChanged)

	return &updated, nil
}

// DeleteTask removes one task. Deleting a task that no longer exists is a
// no-op success.
func (s *TaskService) DeleteTask(ctx context.Context, taskID primitive.ObjectID, actorID string) error {
	var task models.Task
	err := s.tasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.tasksCollection.DeleteOne(ctx, bson.M{"_id": taskID}); err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}

	go s.dispatchDeleteSideEffects(task, actorID)

	return nil
}

// DeleteTasksByProject removes every task under a project and reports the
// deleted count. Used by the projects service during cascade deletion;
// repeated invocation succeeds with a zero count.
func (s *TaskService) DeleteTasksByProject(ctx context.Context, projectID string) (int64, error) {
	cursor, err := s.tasksCollection.Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return 0, fmt.Errorf("failed to list tasks for project %s: %v", projectID, err)
	}
	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return 0, fmt.Errorf("failed to decode tasks for project %s: %v", projectID, err)
	}

	res, err := s.tasksCollection.DeleteMany(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks for project %s: %v", projectID, err)
	}

	// Notification cleanup for each removed task is independent and
	// best-effort; a failed leg leaves orphans that are tolerated.
	go func() {
		for _, task := range tasks {
			sideCtx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
			if err := s.notifications.DeleteByReference(sideCtx, "Task", task.ID.Hex()); err != nil {
				logging.Logger.Warnf("Event ID: NOTIFICATION_CASCADE_FAILED, Description: Failed to delete notifications for task %s: %v", task.ID.Hex(), err)
			}
			cancel()
		}
	}()

	return res.DeletedCount, nil
}

// UnassignUserTasks clears the assignment of every task assigned to the
// given user, optionally narrowed to the projects of one team. Invoked by
// the teams service after a membership removal; idempotent per task.
func (s *TaskService) UnassignUserTasks(ctx context.Context, userID, teamID string) (int64, error) {
	filter := bson.M{"assignedTo": userID}
	if teamID != "" {
		projectIDs, err := s.projects.GetProjectIDsByTeam(ctx, teamID)
		if err != nil {
			return 0, err
		}
		if len(projectIDs) == 0 {
			return 0, nil
		}
		filter["projectId"] = bson.M{"$in": projectIDs}
	}

	res, err := s.tasksCollection.UpdateMany(ctx, filter, bson.M{"$unset": bson.M{"assignedTo": ""}})
	if err != nil {
		return 0, fmt.Errorf("failed to unassign tasks for user %s: %v", userID, err)
	}

	logging.Logger.Infof("Event ID: TASKS_UNASSIGNED, Description: Unassigned %d tasks for user %s (team %q)", res.ModifiedCount, userID, teamID)
	return res.ModifiedCount, nil
}

func (s *TaskService) dispatchCreateSideEffects(task models.Task, actorID string) {
	s.recomputeProject(task.ProjectID)
	s.recordActivity(actorID, fmt.Sprintf("created task %q", task.Title), task.ID.Hex(), task.ProjectID)

	if task.AssignedTo != "" && task.AssignedTo != actorID {
		s.notify(NotificationRequest{
			UserID:         task.AssignedTo,
			ReferenceID:    task.ID.Hex(),
			ReferenceModel: "Task",
			Type:           "ASSIGN",
			Message:        fmt.Sprintf("You have been assigned to task %q", task.Title),
			ShouldSendMail: true,
		})
	}
}

func (s *TaskService) dispatchUpdateSideEffects(old, updated models.Task, result models.TransitionResult, actorID string, assignmentChanged bool) {
	s.recomputeProject(updated.ProjectID)

	if result.StatusChanged {
		s.recordActivity(actorID, fmt.Sprintf("changed task %q status (%s -> %s)", updated.Title, old.Status, updated.Status), updated.ID.Hex(), updated.ProjectID)
	}

	if result.StatusChanged && updated.Status == models.StatusDone && actorID != updated.CreatedBy {
		s.notify(NotificationRequest{
			UserID:         updated.CreatedBy,
			ReferenceID:    updated.ID.Hex(),
			ReferenceModel: "Task",
			Type:           "STATUS_CHANGE",
			Message:        fmt.Sprintf("Task %q was completed", updated.Title),
			ShouldSendMail: true,
		})
	}

	if assignmentChanged && updated.AssignedTo != "" && updated.AssignedTo != actorID {
		s.notify(NotificationRequest{
			UserID:         updated.AssignedTo,
			ReferenceID:    updated.ID.Hex(),
			ReferenceModel: "Task",
			Type:           "ASSIGN",
			Message:        fmt.Sprintf("You have been assigned to task %q", updated.Title),
			ShouldSendMail: true,
		})
	}
}

func (s *TaskService) dispatchDeleteSideEffects(task models.Task, actorID string) {
	s.recomputeProject(task.ProjectID)
	s.recordActivity(actorID, fmt.Sprintf("deleted task %q", task.Title), task.ID.Hex(), task.ProjectID)

	sideCtx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := s.notifications.DeleteByReference(sideCtx, "Task", task.ID.Hex()); err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_CASCADE_FAILED, Description: Failed to delete notifications for task %s: %v", task.ID.Hex(), err)
	}
}

func (s *TaskService) recomputeProject(projectID string) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := s.RecomputeProjectProgress(ctx, projectID); err != nil {
		logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: Failed to recompute progress for project %s: %v", projectID, err)
	}
}

func (s *TaskService) recordActivity(actorID, action, taskID, projectID string) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	// Team resolution is best effort; an entry without a team still lands
	// in the actor's personal feed.
	teamID, err := s.projects.GetProjectTeam(ctx, projectID)
	if err != nil {
		logging.Logger.Warnf("Event ID: TEAM_RESOLVE_FAILED, Description: Failed to resolve team for project %s: %v", projectID, err)
		teamID = ""
	}

	err = s.activity.RecordActivity(ctx, ActivityRequest{
		UserID:      actorID,
		Action:      action,
		RelatedID:   taskID,
		RelatedType: "Task",
		TeamID:      teamID,
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: ACTIVITY_LOG_FAILED, Description: Failed to record activity for task %s: %v", taskID, err)
	}
}

func (s *TaskService) notify(req NotificationRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := s.notifications.CreateNotification(ctx, req); err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_SEND_FAILED, Description: Failed to create %s notification for user %s: %v", req.Type, req.UserID, err)
	}
}
