package services

import (
	"context"
	"fmt"
	"time"

	"taskhub/logging"
	"taskhub/projects-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const cascadeTimeout = 10 * time.Second

// projectStore is the narrow persistence seam of the deletion path.
type projectStore interface {
	deleteByID(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}

type mongoProjectStore struct {
	collection *mongo.Collection
}

func (m mongoProjectStore) deleteByID(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete project: %v", err)
	}
	return res.DeletedCount, nil
}

type ProjectService struct {
	projectsCollection *mongo.Collection
	store              projectStore
	tasks              *TasksClient
	notifications      *NotificationsClient
}

func NewProjectService(projectsCollection *mongo.Collection, tasks *TasksClient, notifications *NotificationsClient) *ProjectService {
	return &ProjectService{
		projectsCollection: projectsCollection,
		store:              mongoProjectStore{collection: projectsCollection},
		tasks:              tasks,
		notifications:      notifications,
	}
}

// CreateProject creates a new project. A project name must be unique within
// its team.
func (s *ProjectService) CreateProject(ctx context.Context, project models.Project, actorID string) (*models.Project, error) {
	if project.TeamID == "" || project.Name == "" {
		return nil, fmt.Errorf("%w: teamId and name are required", models.ErrValidation)
	}
	if !project.EndDate.IsZero() && !project.StartDate.IsZero() && project.EndDate.Before(project.StartDate) {
		return nil, fmt.Errorf("%w: end date must not precede start date", models.ErrValidation)
	}

	count, err := s.projectsCollection.CountDocuments(ctx, bson.M{"teamId": project.TeamID, "name": project.Name})
	if err != nil {
		return nil, fmt.Errorf("failed to check project name: %v", err)
	}
	if count > 0 {
		return nil, models.ErrDuplicateName
	}

	project.ID = primitive.NewObjectID()
	project.Progress = 0
	project.CreatedBy = actorID
	project.CreatedAt = time.Now()

	if _, err := s.projectsCollection.InsertOne(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %v", err)
	}

	return &project, nil
}

func (s *ProjectService) GetProjectByID(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.projectsCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching project: %v", err)
	}
	return &project, nil
}

func (s *ProjectService) GetAllProjects(ctx context.Context) ([]models.Project, error) {
	cursor, err := s.projectsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %v", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

func (s *ProjectService) GetProjectsByTeam(ctx context.Context, teamID string) ([]models.Project, error) {
	cursor, err := s.projectsCollection.Find(ctx, bson.M{"teamId": teamID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve projects for team %s: %v", teamID, err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

// UpdateProjectProgress is the dedicated aggregate-push path used by the
// tasks service. It deliberately bypasses the general update validation so
// recomputation cannot feed back into it; concurrent pushes are
// last-write-wins.
func (s *ProjectService) UpdateProjectProgress(ctx context.Context, projectID primitive.ObjectID, progress int) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("%w: progress %d out of range", models.ErrValidation, progress)
	}

	res, err := s.projectsCollection.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{"$set": bson.M{"progress": progress}})
	if err != nil {
		return fmt.Errorf("failed to update project progress: %v", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

// UpdateProjectRequest carries the optional fields of one project update.
type UpdateProjectRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// UpdateProject applies a general project update. A proposed end date is
// validated against the project's live tasks: no task due date may exceed it.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID primitive.ObjectID, req UpdateProjectRequest) (*models.Project, error) {
	project, err := s.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if req.Name != nil && *req.Name != project.Name {
		count, err := s.projectsCollection.CountDocuments(ctx, bson.M{"teamId": project.TeamID, "name": *req.Name})
		if err != nil {
			return nil, fmt.Errorf("failed to check project name: %v", err)
		}
		if count > 0 {
			return nil, models.ErrDuplicateName
		}
		set["name"] = *req.Name
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.EndDate != nil {
		if !project.StartDate.IsZero() && req.EndDate.Before(project.StartDate) {
			return nil, fmt.Errorf("%w: end date must not precede start date", models.ErrValidation)
		}

		tasks, err := s.tasks.GetTasksByProject(ctx, projectID.Hex())
		if err != nil {
			return nil, fmt.Errorf("failed to validate end date against tasks: %v", err)
		}
		if conflict := taskDueAfter(tasks, *req.EndDate); conflict != nil {
			return nil, fmt.Errorf("%w: task %s is due after the proposed end date", models.ErrValidation, conflict.ID)
		}
		set["endDate"] = *req.EndDate
	}

	if len(set) > 0 {
		if _, err := s.projectsCollection.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{"$set": set}); err != nil {
			return nil, fmt.Errorf("failed to update project: %v", err)
		}
	}

	return s.GetProjectByID(ctx, projectID)
}

// DeleteProject removes one project and cascades to its tasks and
// notifications. The local deletion is acknowledged first; the remote legs
// run afterwards, independently, and their failures are only logged.
// Deleting an already-deleted project is a no-op success.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID primitive.ObjectID) error {
	deleted, err := s.store.deleteByID(ctx, projectID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return nil
	}

	go s.cascadeProject(projectID.Hex())

	return nil
}

// DeleteProjectsByTeam removes every project under a team and reports the
// deleted count. Each removed project's remote cascade legs run
// independently after the local deletion.
func (s *ProjectService) DeleteProjectsByTeam(ctx context.Context, teamID string) (int64, error) {
	projects, err := s.GetProjectsByTeam(ctx, teamID)
	if err != nil {
		return 0, err
	}

	res, err := s.projectsCollection.DeleteMany(ctx, bson.M{"teamId": teamID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete projects for team %s: %v", teamID, err)
	}

	for _, project := range projects {
		go s.cascadeProject(project.ID.Hex())
	}

	return res.DeletedCount, nil
}

// taskDueAfter returns the first task whose due date falls after the
// proposed project end date, or nil when none conflicts.
func taskDueAfter(tasks []TaskRecord, endDate time.Time) *TaskRecord {
	for i := range tasks {
		if tasks[i].DueDate != nil && tasks[i].DueDate.After(endDate) {
			return &tasks[i]
		}
	}
	return nil
}

// cascadeProject issues each remote cascade leg independently; one leg
// failing does not block or undo the other.
func (s *ProjectService) cascadeProject(projectID string) {
	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		ctx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
		defer cancel()
		deleted, err := s.tasks.DeleteTasksByProject(ctx, projectID)
		if err != nil {
			logging.Logger.Warnf("Event ID: TASK_CASCADE_FAILED, Description: Failed to cascade-delete tasks for project %s: %v", projectID, err)
			return
		}
		logging.Logger.Infof("Event ID: TASK_CASCADE_DONE, Description: Cascade-deleted %d tasks for project %s", deleted, projectID)
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		ctx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
		defer cancel()
		if err := s.notifications.DeleteByReference(ctx, "Project", projectID); err != nil {
			logging.Logger.Warnf("Event ID: NOTIFICATION_CASCADE_FAILED, Description: Failed to delete notifications for project %s: %v", projectID, err)
		}
	}()

	<-done
	<-done
}
