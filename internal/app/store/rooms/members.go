package roomstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AddContributor adds userID to the room only if absent. added is false
// when the user was already a contributor or the room does not exist.
// Join/leave toggles are decided by this single conditional update.
func (s *Store) AddContributor(ctx context.Context, roomID, userID primitive.ObjectID) (added bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": roomID, "contributors": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"contributors": userID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// RemoveContributor removes userID from the room only if present.
func (s *Store) RemoveContributor(ctx context.Context, roomID, userID primitive.ObjectID) (removed bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": roomID, "contributors": userID},
		bson.M{
			"$pull": bson.M{"contributors": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Contributors returns the room's current contributor ids.
// Returns mongo.ErrNoDocuments if the room does not exist.
func (s *Store) Contributors(ctx context.Context, roomID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var doc struct {
		Contributors []primitive.ObjectID `bson:"contributors"`
	}
	opts := options.FindOne().SetProjection(bson.M{"contributors": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": roomID}, opts).Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Contributors == nil {
		doc.Contributors = []primitive.ObjectID{}
	}
	return doc.Contributors, nil
}

// RemoveUserEverywhere pulls userID from every room's contributors, for
// account deletion.
func (s *Store) RemoveUserEverywhere(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"contributors": userID},
		bson.M{
			"$pull": bson.M{"contributors": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}
