package services

import (
	"context"
	"fmt"
	"time"

	"taskhub/analytics-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ActivityService struct {
	activityCollection *mongo.Collection
}

func NewActivityService(activityCollection *mongo.Collection) *ActivityService {
	return &ActivityService{activityCollection: activityCollection}
}

// EnsureIndexes creates the retention and query indexes. The TTL index
// expires entries once they are older than the configured retention.
func (s *ActivityService) EnsureIndexes(ctx context.Context, retention time.Duration) error {
	ttlSeconds := int32(retention.Seconds())
	_, err := s.activityCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(ttlSeconds),
		},
		{
			Keys: bson.D{{Key: "teamId", Value: 1}, {Key: "timestamp", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create activity indexes: %v", err)
	}
	return nil
}

// RecordRequest carries one activity append.
type RecordRequest struct {
	UserID      string             `json:"userId"`
	Action      string             `json:"action"`
	RelatedID   string             `json:"relatedId"`
	RelatedType models.RelatedType `json:"relatedType"`
	TeamID      string             `json:"teamId,omitempty"`
}

// NewActivityEntry validates a record request and stamps it into an
// append-ready entry.
func NewActivityEntry(req RecordRequest, now time.Time) (*models.ActivityLog, error) {
	if req.UserID == "" || req.Action == "" {
		return nil, fmt.Errorf("%w: userId and action are required", models.ErrValidation)
	}
	if !models.ValidRelatedType(req.RelatedType) {
		return nil, fmt.Errorf("%w: unknown related type %q", models.ErrValidation, req.RelatedType)
	}

	return &models.ActivityLog{
		ID:          primitive.NewObjectID(),
		UserID:      req.UserID,
		Action:      req.Action,
		RelatedID:   req.RelatedID,
		RelatedType: req.RelatedType,
		TeamID:      req.TeamID,
		Timestamp:   now,
	}, nil
}

// RecordActivity appends one entry. Entries are never updated afterwards.
func (s *ActivityService) RecordActivity(ctx context.Context, req RecordRequest) (*models.ActivityLog, error) {
	entry, err := NewActivityEntry(req, time.Now())
	if err != nil {
		return nil, err
	}

	if _, err := s.activityCollection.InsertOne(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record activity: %v", err)
	}
	return entry, nil
}

// GetActivityByTeam returns the team's most recent entries, newest first.
func (s *ActivityService) GetActivityByTeam(ctx context.Context, teamID string, limit int64) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := s.activityCollection.Find(ctx, bson.M{"teamId": teamID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity for team %s: %v", teamID, err)
	}
	defer cursor.Close(ctx)

	entries := []models.ActivityLog{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode activity entries: %v", err)
	}
	return entries, nil
}

// GetActivityByUser returns the user's most recent entries, newest first.
func (s *ActivityService) GetActivityByUser(ctx context.Context, userID string, limit int64) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := s.activityCollection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity for user %s: %v", userID, err)
	}
	defer cursor.Close(ctx)

	entries := []models.ActivityLog{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode activity entries: %v", err)
	}
	return entries, nil
}
