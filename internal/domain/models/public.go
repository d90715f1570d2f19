package models

import (
	"time"

	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublicUser is the user representation returned by the API. It never
// carries the password hash or folded name.
type PublicUser struct {
	ID             primitive.ObjectID   `json:"id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	About          string               `json:"about"`
	Avatar         string               `json:"avatar"`
	Specialization string               `json:"specialization"`
	Skills         []string             `json:"skills"`
	Rooms          []primitive.ObjectID `json:"rooms"`
	Following      []primitive.ObjectID `json:"following"`
	Followers      []primitive.ObjectID `json:"followers"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Public projects u for responses.
func (u User) Public() PublicUser {
	var p PublicUser
	// copier only errors on nil or non-struct arguments; both are fixed
	// struct pointers here.
	_ = copier.Copy(&p, &u)
	p.Skills = append([]string{}, u.Skills...)
	p.Rooms = append([]primitive.ObjectID{}, u.Rooms...)
	p.Following = append([]primitive.ObjectID{}, u.Following...)
	p.Followers = append([]primitive.ObjectID{}, u.Followers...)
	return p
}

// PublicUsers projects each user in us.
func PublicUsers(us []User) []PublicUser {
	out := make([]PublicUser, 0, len(us))
	for _, u := range us {
		out = append(out, u.Public())
	}
	return out
}
