// internal/app/store/notifications/store.go
package notificationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the notifications collection name.
const Collection = "notifications"

var errBadType = errors.New("unknown notification type")

// Store holds per-recipient inbox entries.
type Store struct {
	c *mongo.Collection
}

// New creates a new notification Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts n, filling id and timestamps when unset.
func (s *Store) Create(ctx context.Context, n models.Notification) error {
	if !n.Type.Valid() {
		return errBadType
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, n)
	return err
}

// GetByID loads a notification. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Resolve moves a pending notification to its terminal type and marks it
// resolved (and read, for invitation outcomes). The update only matches unresolved documents, so
// resolved is false when another resolution got there first (or the
// notification does not exist).
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, to models.NotificationType) (resolved bool, err error) {
	if !to.Valid() {
		return false, errBadType
	}
	set := bson.M{
		"type":        to,
		"is_resolved": true,
		"updated_at":  time.Now().UTC(),
	}
	if to.ReadOnResolve() {
		set["is_read"] = true
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_resolved": false},
		bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// ListForRecipient returns the inbox of userID, newest first.
func (s *Store) ListForRecipient(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"to": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAllRead marks every unread notification of userID read.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"to": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountUnread counts userID's unread notifications.
func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"to": userID, "is_read": false})
}

// CountByType counts notifications addressed to userID with the given type.
func (s *Store) CountByType(ctx context.Context, userID primitive.ObjectID, typ models.NotificationType) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"to": userID, "type": typ})
}

// DeleteForRoom removes notifications that reference a deleted room.
func (s *Store) DeleteForRoom(ctx context.Context, roomID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"room": roomID})
	return err
}
