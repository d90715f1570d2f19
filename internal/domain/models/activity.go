// internal/domain/models/activity.go
package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityTitle is the canonical label of a logged action. The set is
// closed: only the constants below are valid.
type ActivityTitle string

const (
	ActivityCreateRoom       ActivityTitle = "createRoom"
	ActivityJoinRoom         ActivityTitle = "joinRoom"
	ActivityLeaveRoom        ActivityTitle = "leaveRoom"
	ActivitySendInvite       ActivityTitle = "sendInvite"
	ActivityAcceptInvite     ActivityTitle = "acceptInvite"
	ActivityRejectInvite     ActivityTitle = "rejectInvite"
	ActivityRequestRoom      ActivityTitle = "requestRoom"
	ActivityAcceptRequest    ActivityTitle = "acceptRequest"
	ActivityRejectRequest    ActivityTitle = "rejectRequest"
	ActivityCreateTask       ActivityTitle = "createTask"
	ActivityUpdateTaskStatus ActivityTitle = "updateTaskStatus"
	ActivityCreateLink       ActivityTitle = "createLink"
	ActivityDeleteLink       ActivityTitle = "deleteLink"
	ActivityUploadFile       ActivityTitle = "uploadFile"
)

// ErrUnknownActivityTitle is returned for labels outside the closed set.
var ErrUnknownActivityTitle = errors.New("unknown activity title")

// Valid reports whether t is one of the defined titles.
func (t ActivityTitle) Valid() bool {
	switch t {
	case ActivityCreateRoom, ActivityJoinRoom, ActivityLeaveRoom,
		ActivitySendInvite, ActivityAcceptInvite, ActivityRejectInvite,
		ActivityRequestRoom, ActivityAcceptRequest, ActivityRejectRequest,
		ActivityCreateTask, ActivityUpdateTaskStatus,
		ActivityCreateLink, ActivityDeleteLink, ActivityUploadFile:
		return true
	}
	return false
}

// ParseActivityTitle converts s to an ActivityTitle, rejecting unknown labels.
func ParseActivityTitle(s string) (ActivityTitle, error) {
	t := ActivityTitle(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownActivityTitle, s)
	}
	return t, nil
}

// Activity is an append-only record of a notable action by a user in a room.
type Activity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     ActivityTitle      `bson:"title" json:"title"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Room      primitive.ObjectID `bson:"room" json:"room"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// NewActivity builds an Activity with a fresh id and timestamp.
// It is the only constructor callers should use; it refuses unknown titles.
func NewActivity(title ActivityTitle, user, room primitive.ObjectID) (Activity, error) {
	if !title.Valid() {
		return Activity{}, fmt.Errorf("%w: %q", ErrUnknownActivityTitle, string(title))
	}
	return Activity{
		ID:        primitive.NewObjectID(),
		Title:     title,
		User:      user,
		Room:      room,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ActivityView is an Activity with its actor populated, as returned by the
// room and user activity endpoints.
type ActivityView struct {
	ID        primitive.ObjectID `json:"id"`
	Title     ActivityTitle      `json:"title"`
	User      *UserSummary       `json:"user"`
	Room      primitive.ObjectID `json:"room"`
	CreatedAt time.Time          `json:"created_at"`
}

// ActivityViews pairs each activity with its actor's summary. Actors missing
// from users are left nil.
func ActivityViews(acts []Activity, users map[primitive.ObjectID]UserSummary) []ActivityView {
	out := make([]ActivityView, 0, len(acts))
	for _, a := range acts {
		v := ActivityView{ID: a.ID, Title: a.Title, Room: a.Room, CreatedAt: a.CreatedAt}
		if us, ok := users[a.User]; ok {
			v.User = &us
		}
		out = append(out, v)
	}
	return out
}

// ActivityActors returns the distinct actors of acts.
func ActivityActors(acts []Activity) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(acts))
	ids := make([]primitive.ObjectID, 0, len(acts))
	for _, a := range acts {
		if !seen[a.User] {
			seen[a.User] = true
			ids = append(ids, a.User)
		}
	}
	return ids
}
