package userstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership and social-graph edges. Every write is a single-document
// array update; the conditional variants report whether they changed the
// document so callers can decide a toggle without reading first.

// AddRoom puts roomID in the user's rooms (no duplicates).
func (s *Store) AddRoom(ctx context.Context, userID, roomID primitive.ObjectID) error {
	return s.edge(ctx, userID, "$addToSet", "rooms", roomID)
}

// RemoveRoom takes roomID out of the user's rooms.
func (s *Store) RemoveRoom(ctx context.Context, userID, roomID primitive.ObjectID) error {
	return s.edge(ctx, userID, "$pull", "rooms", roomID)
}

// RemoveRoomEverywhere unlinks a deleted room from every member.
func (s *Store) RemoveRoomEverywhere(ctx context.Context, roomID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx, bson.M{"rooms": roomID}, bson.M{"$pull": bson.M{"rooms": roomID}})
	return err
}

// AddFollower adds followerID to target's followers only if absent.
// added is false when the follower was already there (or target is missing).
func (s *Store) AddFollower(ctx context.Context, targetID, followerID primitive.ObjectID) (added bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": targetID, "followers": bson.M{"$ne": followerID}},
		bson.M{
			"$addToSet": bson.M{"followers": followerID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// RemoveFollower removes followerID from target's followers only if present.
func (s *Store) RemoveFollower(ctx context.Context, targetID, followerID primitive.ObjectID) (removed bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": targetID, "followers": followerID},
		bson.M{
			"$pull": bson.M{"followers": followerID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// AddFollowing puts targetID in the user's following list.
func (s *Store) AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return s.edge(ctx, userID, "$addToSet", "following", targetID)
}

// RemoveFollowing takes targetID out of the user's following list.
func (s *Store) RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return s.edge(ctx, userID, "$pull", "following", targetID)
}

func (s *Store) edge(ctx context.Context, id primitive.ObjectID, op, field string, v primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		op:     bson.M{field: v},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}
