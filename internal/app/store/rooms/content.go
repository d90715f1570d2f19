package roomstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/roomhub/internal/app/system/normalize"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Embedded room content: messages, links, files and tasks. Each append is a
// $push on the room document; a missing room yields mongo.ErrNoDocuments.

var (
	ErrBadTaskStatus = errors.New(`status must be "not started"|"in progress"|"finished"`)
	// ErrTaskNotFound is returned when the room has no task with the given id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrLinkNotFound is returned when the room has no link with the given id.
	ErrLinkNotFound = errors.New("link not found")
)

// AddMessage appends a message.
func (s *Store) AddMessage(ctx context.Context, roomID, sender primitive.ObjectID, body string) (models.Message, error) {
	m := models.Message{
		ID:        primitive.NewObjectID(),
		Sender:    sender,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	return m, s.push(ctx, roomID, "messages", m)
}

// AddLink appends a link.
func (s *Store) AddLink(ctx context.Context, roomID primitive.ObjectID, name, link string) (models.Link, error) {
	l := models.Link{ID: primitive.NewObjectID(), Name: name, Link: link}
	return l, s.push(ctx, roomID, "links", l)
}

// DeleteLink removes the link with linkID.
func (s *Store) DeleteLink(ctx context.Context, roomID, linkID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": roomID, "links._id": linkID},
		bson.M{
			"$pull": bson.M{"links": bson.M{"_id": linkID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missing(ctx, roomID, ErrLinkNotFound)
	}
	return nil
}

// AddFile appends an uploaded file reference.
func (s *Store) AddFile(ctx context.Context, roomID, sender primitive.ObjectID, link string) (models.File, error) {
	f := models.File{
		ID:        primitive.NewObjectID(),
		Sender:    sender,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	return f, s.push(ctx, roomID, "files", f)
}

// AddTask appends a task, defaulting its status to "not started".
func (s *Store) AddTask(ctx context.Context, roomID primitive.ObjectID, t models.Task) (models.Task, error) {
	status, ok := normalize.TaskStatus(t.Status)
	if !ok {
		return models.Task{}, ErrBadTaskStatus
	}
	t.ID = primitive.NewObjectID()
	t.Status = status
	return t, s.push(ctx, roomID, "tasks", t)
}

// SetTaskStatus updates one task's status in place and returns the task.
func (s *Store) SetTaskStatus(ctx context.Context, roomID, taskID primitive.ObjectID, status string) (models.Task, error) {
	st, ok := normalize.TaskStatus(status)
	if !ok || status == "" {
		return models.Task{}, ErrBadTaskStatus
	}

	var doc struct {
		Tasks []models.Task `bson:"tasks"`
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"tasks": bson.M{"$elemMatch": bson.M{"_id": taskID}}})
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": roomID, "tasks._id": taskID},
		bson.M{"$set": bson.M{"tasks.$.status": st, "updated_at": time.Now().UTC()}},
		opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, s.missing(ctx, roomID, ErrTaskNotFound)
	}
	if err != nil {
		return models.Task{}, err
	}
	if len(doc.Tasks) == 0 {
		return models.Task{}, ErrTaskNotFound
	}
	return doc.Tasks[0], nil
}

func (s *Store) push(ctx context.Context, roomID primitive.ObjectID, field string, v any) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": roomID}, bson.M{
		"$push": bson.M{field: v},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// missing tells a missing room apart from a missing embedded item.
func (s *Store) missing(ctx context.Context, roomID primitive.ObjectID, itemErr error) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": roomID})
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return itemErr
}
