// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultAvatar is assigned to users who sign up without a picture.
const DefaultAvatar = "https://i.pinimg.com/736x/c0/74/9b/c0749b7cc401421662ae901ec8f9f660.jpg"

// User is a registered account together with its social graph and room
// memberships.
//
// NOTE:
//   - Rooms mirrors Room.Contributors: a user is listed in a room's
//     contributors exactly when the room id is in Rooms.
//   - Following/Followers are kept symmetric: A.Following contains B
//     exactly when B.Followers contains A.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name           string               `bson:"name" json:"name"`
	NameCI         string               `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email          string               `bson:"email" json:"email"`
	PasswordHash   string               `bson:"password" json:"-"`
	About          string               `bson:"about" json:"about"`
	Avatar         string               `bson:"avatar" json:"avatar"`
	Specialization string               `bson:"specialization" json:"specialization"`
	Skills         []string             `bson:"skills" json:"skills"`
	Rooms          []primitive.ObjectID `bson:"rooms" json:"rooms"`
	Following      []primitive.ObjectID `bson:"following" json:"following"`
	Followers      []primitive.ObjectID `bson:"followers" json:"followers"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsFollowedBy reports whether id is in u.Followers.
func (u User) IsFollowedBy(id primitive.ObjectID) bool {
	return containsID(u.Followers, id)
}

// InRoom reports whether roomID is in u.Rooms.
func (u User) InRoom(roomID primitive.ObjectID) bool {
	return containsID(u.Rooms, roomID)
}

// UserSummary is the small projection embedded in populated responses
// (message senders, task assignees, room admins, activity actors).
type UserSummary struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	Avatar string             `bson:"avatar" json:"avatar"`
}

// Canonical specialization identifiers.
const (
	SpecSoftwareEngineer  = "Software Engineer"
	SpecDataScientist     = "Data Scientist"
	SpecBusinessAnalyst   = "Business Analyst"
	SpecDesigner          = "Designer"
	SpecProjectManager    = "Project Manager"
	SpecFrontEndDeveloper = "Front-End Developer"
	SpecBackEndDeveloper  = "Back-End Developer"
	SpecFullStack         = "Full Stack Developer"
	SpecQAEngineer        = "QA Engineer"
	SpecDevOpsEngineer    = "Dev-Ops Engineer"
	SpecGuest             = "Guest" // default
)

// Specializations is the full set of allowed specialization values.
var Specializations = []string{
	SpecSoftwareEngineer,
	SpecDataScientist,
	SpecBusinessAnalyst,
	SpecDesigner,
	SpecProjectManager,
	SpecFrontEndDeveloper,
	SpecBackEndDeveloper,
	SpecFullStack,
	SpecQAEngineer,
	SpecDevOpsEngineer,
	SpecGuest,
}

// IsValidSpecialization reports whether s is one of Specializations.
func IsValidSpecialization(s string) bool {
	return containsString(Specializations, s)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
