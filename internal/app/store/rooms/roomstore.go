package roomstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/roomhub/internal/app/system/normalize"
	"github.com/dalemusser/roomhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the rooms collection name.
const Collection = "rooms"

// RecentLimit is how many rooms GET /room/recent returns.
const RecentLimit = 3

var (
	// ErrDuplicateTitle is returned when a room with the same title exists.
	ErrDuplicateTitle = errors.New("room with this title already exists")
	ErrBadTopic       = errors.New("unknown topic")
	ErrBadType        = errors.New(`type must be "public"|"private"`)
	ErrTitleRequired  = errors.New("title is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// GetByID loads a room. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	var r models.Room
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a room whose admin is its first contributor.
func (s *Store) Create(ctx context.Context, r models.Room) (models.Room, error) {
	r.ID = primitive.NewObjectID()
	r.Title = normalize.Title(r.Title)
	if r.Title == "" {
		return models.Room{}, ErrTitleRequired
	}

	topic, ok := normalize.Topic(r.Topic)
	if !ok {
		return models.Room{}, ErrBadTopic
	}
	r.Topic = topic
	typ, ok := normalize.RoomType(r.Type)
	if !ok {
		return models.Room{}, ErrBadType
	}
	r.Type = typ
	if r.Image == "" {
		r.Image = models.DefaultRoomImage
	}

	r.Contributors = []primitive.ObjectID{r.Admin}
	r.Messages = []models.Message{}
	r.Links = []models.Link{}
	r.Files = []models.File{}
	r.Tasks = []models.Task{}

	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Room{}, ErrDuplicateTitle
		}
		return models.Room{}, err
	}
	return r, nil
}

// Delete removes a room. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns rooms newest first. An empty topic lists all rooms.
// Embedded collections are left out.
func (s *Store) List(ctx context.Context, topic string, limit int64) ([]models.Room, error) {
	filter := bson.M{}
	if topic != "" {
		filter["topic"] = topic
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(listProjection)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, filter, opts)
}

// ListByIDs returns the rooms named by ids, newest first.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Room, error) {
	if len(ids) == 0 {
		return []models.Room{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(listProjection)
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

// TextSearch searches title, description and topic, best match first.
func (s *Store) TextSearch(ctx context.Context, query string) ([]models.Room, error) {
	if query == "" {
		return []models.Room{}, nil
	}
	proj := bson.M{"score": bson.M{"$meta": "textScore"}}
	for k, v := range listProjection {
		proj[k] = v
	}
	opts := options.Find().
		SetProjection(proj).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}})
	return s.find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
}

// Summaries loads the small projection for ids, keyed by id.
func (s *Store) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.RoomSummary, error) {
	out := make(map[primitive.ObjectID]models.RoomSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "title": 1, "description": 1, "image": 1, "topic": 1, "type": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var rs models.RoomSummary
		if err := cur.Decode(&rs); err != nil {
			return nil, err
		}
		out[rs.ID] = rs
	}
	return out, cur.Err()
}

// Each streams every room to fn (used to rebuild the search index).
func (s *Store) Each(ctx context.Context, fn func(models.Room) error) error {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetProjection(listProjection))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var r models.Room
		if err := cur.Decode(&r); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return cur.Err()
}

var listProjection = bson.M{"messages": 0, "links": 0, "files": 0, "tasks": 0}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Room, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Room{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
