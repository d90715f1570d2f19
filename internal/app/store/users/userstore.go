package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/roomhub/internal/app/system/normalize"
	"github.com/dalemusser/roomhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the users collection name.
const Collection = "users"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

var (
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail    = errors.New("a user with this email already exists")
	ErrBadSpecialization = errors.New("unknown specialization")
	errNoPassword        = errors.New("password hash is required")
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing fields and applying defaults.
// The caller hashes the password.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Skills = normalize.Skills(u.Skills)

	sp, ok := normalize.Specialization(u.Specialization)
	if !ok {
		return models.User{}, ErrBadSpecialization
	}
	u.Specialization = sp
	if u.PasswordHash == "" {
		return models.User{}, errNoPassword
	}
	if u.Avatar == "" {
		u.Avatar = models.DefaultAvatar
	}
	u.Rooms = []primitive.ObjectID{}
	u.Following = []primitive.ObjectID{}
	u.Followers = []primitive.ObjectID{}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the editable profile fields. Nil fields are left alone.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	Specialization *string
	About          *string
	Skills         []string
	SetSkills      bool
}

// UpdateProfile applies upd and returns the updated user.
// Returns ErrDuplicateEmail if the new email belongs to someone else.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Email != nil {
		set["email"] = normalize.Email(*upd.Email)
	}
	if upd.Specialization != nil {
		sp, ok := normalize.Specialization(*upd.Specialization)
		if !ok {
			return nil, ErrBadSpecialization
		}
		set["specialization"] = sp
	}
	if upd.About != nil {
		set["about"] = *upd.About
	}
	if upd.SetSkills {
		set["skills"] = normalize.Skills(upd.Skills)
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

// SetAvatar replaces the avatar URL.
func (s *Store) SetAvatar(ctx context.Context, id primitive.ObjectID, url string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"avatar": url, "updated_at": time.Now().UTC()}})
	return err
}

// Delete removes a user and unlinks them from everyone's social edges.
// Returns the number of user documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		return 0, nil
	}
	if _, err := s.c.UpdateMany(ctx,
		bson.M{"$or": bson.A{bson.M{"followers": id}, bson.M{"following": id}}},
		bson.M{"$pull": bson.M{"followers": id, "following": id}},
	); err != nil {
		return res.DeletedCount, err
	}
	return res.DeletedCount, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}
