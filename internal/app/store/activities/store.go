// internal/app/store/activities/store.go
package activitystore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the activities collection name.
const Collection = "activities"

// Store is the append-only activity log. There is no update or delete.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create appends a. Titles outside the closed set are refused here as
// well as in models.NewActivity.
func (s *Store) Create(ctx context.Context, a models.Activity) error {
	if !a.Title.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownActivityTitle, string(a.Title))
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, a)
	return err
}

// Record builds and appends an activity in one step.
func (s *Store) Record(ctx context.Context, title models.ActivityTitle, user, room primitive.ObjectID) error {
	a, err := models.NewActivity(title, user, room)
	if err != nil {
		return err
	}
	return s.Create(ctx, a)
}

// ListByRoom returns a room's activities, oldest first.
func (s *Store) ListByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Activity, error) {
	return s.find(ctx, bson.M{"room": roomID}, 1)
}

// ListByUser returns a user's activities, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Activity, error) {
	return s.find(ctx, bson.M{"user": userID}, -1)
}

// CountByRoom counts a room's activities with the given title.
func (s *Store) CountByRoom(ctx context.Context, roomID primitive.ObjectID, title models.ActivityTitle) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"room": roomID, "title": title})
}

func (s *Store) find(ctx context.Context, filter bson.M, dir int) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Activity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
