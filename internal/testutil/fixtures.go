package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures inserts documents directly, bypassing store validation, so
// tests can set up exact states.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a Guest user with an unusable password hash.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		Email:          email,
		PasswordHash:   "x",
		Avatar:         models.DefaultAvatar,
		Specialization: models.SpecGuest,
		Skills:         []string{},
		Rooms:          []primitive.ObjectID{},
		Following:      []primitive.ObjectID{},
		Followers:      []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("CreateUser(%q): %v", email, err)
	}
	return u
}

// CreateRoom inserts a public General room with admin as its only
// contributor and links the room on the admin's side too.
func (f *Fixtures) CreateRoom(ctx context.Context, title string, admin primitive.ObjectID) models.Room {
	f.t.Helper()
	now := time.Now().UTC()
	r := models.Room{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Image:        models.DefaultRoomImage,
		Topic:        models.TopicGeneral,
		Type:         models.RoomPublic,
		Admin:        admin,
		Contributors: []primitive.ObjectID{admin},
		Messages:     []models.Message{},
		Links:        []models.Link{},
		Files:        []models.File{},
		Tasks:        []models.Task{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("rooms").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("CreateRoom(%q): %v", title, err)
	}
	if _, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": admin},
		bson.M{"$addToSet": bson.M{"rooms": r.ID}},
	); err != nil {
		f.t.Fatalf("CreateRoom(%q) link admin: %v", title, err)
	}
	return r
}

// CreateNotification inserts a pending notification.
func (f *Fixtures) CreateNotification(ctx context.Context, typ models.NotificationType, to, from primitive.ObjectID, room *primitive.ObjectID) models.Notification {
	f.t.Helper()
	n := models.NewNotification(typ, to, from, room)
	if _, err := f.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("CreateNotification(%s): %v", typ, err)
	}
	return n
}
