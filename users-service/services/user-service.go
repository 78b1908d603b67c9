package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskhub/logging"
	"taskhub/users-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserService struct {
	userCollection *mongo.Collection
}

func NewUserService(userCollection *mongo.Collection) *UserService {
	return &UserService{userCollection: userCollection}
}

// EnsureIndexes creates the unique lookup indexes.
func (s *UserService) EnsureIndexes(ctx context.Context) error {
	_, err := s.userCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %v", err)
	}
	return nil
}

func (s *UserService) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Username == "" || user.Email == "" {
		return nil, fmt.Errorf("%w: username and email are required", models.ErrValidation)
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()

	if _, err := s.userCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: username or email already taken", models.ErrValidation)
		}
		return nil, fmt.Errorf("failed to create user: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_CREATED, Description: Created user %s (%s)", user.Username, user.ID.Hex())
	return &user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrUserNotFound
	}

	var user models.User
	if err := s.userCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user %s: %v", id, err)
	}
	return &user, nil
}

// GetUserByEmail returns the single user owning the address, or not-found.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.userCollection.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user by email: %v", err)
	}
	return &user, nil
}

// BatchGetUsers resolves a set of user ids in one query. Unknown or
// malformed ids are skipped rather than failing the whole batch, so
// callers can degrade to raw identifiers for what did not resolve.
func (s *UserService) BatchGetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			logging.Logger.Warnf("Event ID: USER_BATCH_SKIP, Description: Skipping malformed user id %q", id)
			continue
		}
		objectIDs = append(objectIDs, objectID)
	}
	if len(objectIDs) == 0 {
		return []models.User{}, nil
	}

	cursor, err := s.userCollection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %v", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}
