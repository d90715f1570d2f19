package userstore

import (
	"context"

	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeaturedLimit is how many users GET /user/featured returns.
const FeaturedLimit = 5

// List returns users sorted by name. An empty specialization lists everyone.
func (s *Store) List(ctx context.Context, specialization string) ([]models.User, error) {
	filter := bson.M{}
	if specialization != "" {
		filter["specialization"] = specialization
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

// ListByIDs returns the users named by ids, sorted by name. Unknown ids are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

// Search runs a text search over name, about and skills, best match first.
func (s *Store) Search(ctx context.Context, query string) ([]models.User, error) {
	if query == "" {
		return []models.User{}, nil
	}
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}})
	return s.find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
}

// Featured returns the users with the most followers.
func (s *Store) Featured(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = FeaturedLimit
	}
	pipeline := bson.A{
		bson.M{"$addFields": bson.M{"follower_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$followers", bson.A{}}}}}},
		bson.M{"$sort": bson.D{{Key: "follower_count", Value: -1}, {Key: "_id", Value: 1}}},
		bson.M{"$limit": limit},
		bson.M{"$project": bson.M{"follower_count": 0}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Summaries loads the name/avatar projection for ids, keyed by id.
func (s *Store) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "name": 1, "avatar": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var us models.UserSummary
		if err := cur.Decode(&us); err != nil {
			return nil, err
		}
		out[us.ID] = us
	}
	return out, cur.Err()
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
