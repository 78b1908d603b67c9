package services

import (
	"context"
	"fmt"
	"time"

	"taskhub/logging"
	"taskhub/teams-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const cascadeTimeout = 10 * time.Second

// teamStore is the narrow persistence seam of the deletion path.
type teamStore interface {
	findByID(ctx context.Context, teamID primitive.ObjectID) (*models.Team, error)
	deleteByID(ctx context.Context, teamID primitive.ObjectID) (int64, error)
}

type mongoTeamStore struct {
	collection *mongo.Collection
}

func (m mongoTeamStore) findByID(ctx context.Context, teamID primitive.ObjectID) (*models.Team, error) {
	var team models.Team
	err := m.collection.FindOne(ctx, bson.M{"_id": teamID}).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching team: %v", err)
	}
	return &team, nil
}

func (m mongoTeamStore) deleteByID(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete team: %v", err)
	}
	return res.DeletedCount, nil
}

type TeamService struct {
	teamsCollection *mongo.Collection
	store           teamStore
	projects        *ProjectsClient
	tasks           *TasksClient
	notifications   *NotificationsClient
	activity        *ActivityClient
}

func NewTeamService(teamsCollection *mongo.Collection, projects *ProjectsClient, tasks *TasksClient, notifications *NotificationsClient, activity *ActivityClient) *TeamService {
	return &TeamService{
		teamsCollection: teamsCollection,
		store:           mongoTeamStore{collection: teamsCollection},
		projects:        projects,
		tasks:           tasks,
		notifications:   notifications,
		activity:        activity,
	}
}

// CreateTeam creates a team with the actor as its first leader.
func (s *TeamService) CreateTeam(ctx context.Context, team models.Team, actorID string) (*models.Team, error) {
	if team.Name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	if !team.ValidMemberBounds() {
		return nil, fmt.Errorf("%w: invalid member constraints: minMembers=%d, maxMembers=%d", models.ErrValidation, team.MinMembers, team.MaxMembers)
	}

	team.ID = primitive.NewObjectID()
	team.CreatedBy = actorID
	team.CreatedAt = time.Now()
	if !team.HasMember(actorID) {
		team.Members = append(team.Members, models.Member{UserID: actorID, Role: models.RoleLeader})
	}
	if !team.CanAccommodate(0) {
		return nil, fmt.Errorf("%w: team %q allows at most %d members", models.ErrValidation, team.Name, team.MaxMembers)
	}

	if _, err := s.teamsCollection.InsertOne(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %v", err)
	}

	return &team, nil
}

func (s *TeamService) GetTeamByID(ctx context.Context, teamID primitive.ObjectID) (*models.Team, error) {
	return s.store.findByID(ctx, teamID)
}

func (s *TeamService) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	cursor, err := s.teamsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve teams: %v", err)
	}
	defer cursor.Close(ctx)

	teams := []models.Team{}
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %v", err)
	}
	return teams, nil
}

// AddMembers adds the given members to a team. Only a leader may change the
// membership. Each newly added member receives an INVITE notification.
func (s *TeamService) AddMembers(ctx context.Context, teamID primitive.ObjectID, members []models.Member, actorID string) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if !team.HasLeader(actorID) {
		return models.ErrForbidden
	}

	var added []models.Member
	for _, member := range members {
		if member.UserID == "" || team.HasMember(member.UserID) {
			continue
		}
		if member.Role != models.RoleLeader {
			member.Role = models.RoleMember
		}
		added = append(added, member)
	}
	if len(added) == 0 {
		return nil
	}
	if !team.CanAccommodate(len(added)) {
		return fmt.Errorf("%w: team %q allows at most %d members", models.ErrValidation, team.Name, team.MaxMembers)
	}

	update := bson.M{"$push": bson.M{"members": bson.M{"$each": added}}}
	if _, err := s.teamsCollection.UpdateOne(ctx, bson.M{"_id": teamID}, update); err != nil {
		return fmt.Errorf("failed to add members: %v", err)
	}

	go func() {
		for _, member := range added {
			sideCtx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
			err := s.notifications.CreateNotification(sideCtx, NotificationRequest{
				UserID:         member.UserID,
				ReferenceID:    teamID.Hex(),
				ReferenceModel: "Team",
				Type:           "INVITE",
				Message:        fmt.Sprintf("You have been added to team %q", team.Name),
				ShouldSendMail: true,
			})
			cancel()
			if err != nil {
				logging.Logger.Warnf("Event ID: NOTIFICATION_SEND_FAILED, Description: Failed to send INVITE to user %s: %v", member.UserID, err)
			}
		}
		s.recordActivity(actorID, fmt.Sprintf("added %d members to team %q", len(added), team.Name), teamID.Hex())
	}()

	return nil
}

// RemoveMember removes one member from a team. Existing task assignments of
// the removed member are deliberately left untouched; unwinding them is the
// separate UnassignMemberTasks operation.
func (s *TeamService) RemoveMember(ctx context.Context, teamID primitive.ObjectID, userID, actorID string) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if !team.HasLeader(actorID) {
		return models.ErrForbidden
	}
	if team.HasMember(userID) && !team.CanRelease(1) {
		return fmt.Errorf("%w: team %q requires at least %d members", models.ErrValidation, team.Name, team.MinMembers)
	}

	update := bson.M{"$pull": bson.M{"members": bson.M{"userId": userID}}}
	res, err := s.teamsCollection.UpdateOne(ctx, bson.M{"_id": teamID}, update)
	if err != nil {
		return fmt.Errorf("failed to remove member: %v", err)
	}
	if res.ModifiedCount == 0 {
		// already absent, treat as done
		return nil
	}

	go s.recordActivity(actorID, fmt.Sprintf("removed user %s from team %q", userID, team.Name), teamID.Hex())

	return nil
}

// UnassignMemberTasks unwinds the task assignments a removed member still
// holds within this team. Internal-only operation; idempotent per task.
func (s *TeamService) UnassignMemberTasks(ctx context.Context, teamID primitive.ObjectID, userID string) (int64, error) {
	modified, err := s.tasks.UnassignUserTasks(ctx, userID, teamID.Hex())
	if err != nil {
		return 0, fmt.Errorf("failed to unassign tasks for user %s in team %s: %v", userID, teamID.Hex(), err)
	}
	return modified, nil
}

// DeleteTeam removes the team record and fans out the remote cascade. The
// local deletion (team document including its memberships) is acknowledged
// first; the project and notification cascades run independently afterwards
// and their failures are only logged. Deleting an already-deleted team is a
// no-op success.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID primitive.ObjectID, actorID string) error {
	team, err := s.store.findByID(ctx, teamID)
	if err == models.ErrTeamNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if actorID != "" && !team.HasLeader(actorID) {
		return models.ErrForbidden
	}

	deleted, err := s.store.deleteByID(ctx, teamID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		// a concurrent delete got there first
		return nil
	}

	go s.cascadeTeam(teamID.Hex())

	return nil
}

// cascadeTeam issues each remote cascade leg independently; one leg failing
// does not block or undo the other. A crash before this point leaves
// orphaned children, which the design tolerates.
func (s *TeamService) cascadeTeam(teamID string) {
	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		ctx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
		defer cancel()
		deleted, err := s.projects.DeleteProjectsByTeam(ctx, teamID)
		if err != nil {
			logging.Logger.Warnf("Event ID: PROJECT_CASCADE_FAILED, Description: Failed to cascade-delete projects for team %s: %v", teamID, err)
			return
		}
		logging.Logger.Infof("Event ID: PROJECT_CASCADE_DONE, Description: Cascade-deleted %d projects for team %s", deleted, teamID)
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		ctx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
		defer cancel()
		if err := s.notifications.DeleteByReference(ctx, "Team", teamID); err != nil {
			logging.Logger.Warnf("Event ID: NOTIFICATION_CASCADE_FAILED, Description: Failed to delete notifications for team %s: %v", teamID, err)
		}
	}()

	<-done
	<-done
}

func (s *TeamService) recordActivity(actorID, action, teamID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
	defer cancel()
	err := s.activity.RecordActivity(ctx, ActivityRequest{
		UserID:      actorID,
		Action:      action,
		RelatedID:   teamID,
		RelatedType: "Team",
		TeamID:      teamID,
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: ACTIVITY_LOG_FAILED, Description: Failed to record activity for team %s: %v", teamID, err)
	}
}
