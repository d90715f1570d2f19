// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType identifies which workflow event a notification carries.
type NotificationType string

const (
	NotifyInvitation         NotificationType = "invitation"
	NotifyRequest            NotificationType = "request"
	NotifyRequestAccepted    NotificationType = "requestAccepted"
	NotifyRequestRejected    NotificationType = "requestRejected"
	NotifyFollow             NotificationType = "follow"
	NotifyInvitationAccepted NotificationType = "invitationAccepted"
	NotifyInvitationRejected NotificationType = "invitationRejected"
)

// Valid reports whether t is one of the defined notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotifyInvitation, NotifyRequest, NotifyRequestAccepted,
		NotifyRequestRejected, NotifyFollow,
		NotifyInvitationAccepted, NotifyInvitationRejected:
		return true
	}
	return false
}

// Pending reports whether t is a type that still awaits a decision.
func (t NotificationType) Pending() bool {
	return t == NotifyInvitation || t == NotifyRequest
}

// ReadOnResolve reports whether resolving a notification into t also marks
// it read. Only the invitee's own decisions do; a resolved join request stays
// unread until the admin opens the inbox.
func (t NotificationType) ReadOnResolve() bool {
	return t == NotifyInvitationAccepted || t == NotifyInvitationRejected
}

// Notification is one inbox entry for a recipient.
//
// Lifecycle for invitation/request lineages:
//
//	pending (type invitation|request, IsResolved=false)
//	  -> resolved-accepted (type *Accepted, IsResolved=true)
//	  -> resolved-rejected (type *Rejected, IsResolved=true)
//
// The same document transitions in place; IsResolved=true is terminal.
type Notification struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	To         primitive.ObjectID  `bson:"to" json:"to"`
	From       *primitive.ObjectID `bson:"from,omitempty" json:"from,omitempty"`
	Room       *primitive.ObjectID `bson:"room,omitempty" json:"room,omitempty"`
	Type       NotificationType    `bson:"type" json:"type"`
	IsRead     bool                `bson:"is_read" json:"isRead"`
	IsResolved bool                `bson:"is_resolved" json:"isResolved"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NewNotification builds an unread, unresolved notification.
// room may be nil (follow notifications).
func NewNotification(typ NotificationType, to, from primitive.ObjectID, room *primitive.ObjectID) Notification {
	now := time.Now().UTC()
	f := from
	return Notification{
		ID:        primitive.NewObjectID(),
		To:        to,
		From:      &f,
		Room:      room,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NotificationView is a Notification with its references populated for the
// inbox endpoint.
type NotificationView struct {
	ID         primitive.ObjectID `json:"id"`
	To         *UserSummary       `json:"to"`
	From       *UserSummary       `json:"from,omitempty"`
	Room       *RoomSummary       `json:"room,omitempty"`
	Type       NotificationType   `json:"type"`
	IsRead     bool               `json:"isRead"`
	IsResolved bool               `json:"isResolved"`
	CreatedAt  time.Time          `json:"created_at"`
}

// RoomSummary is the small room projection used in populated responses.
type RoomSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Image       string             `bson:"image" json:"image"`
	Topic       string             `bson:"topic" json:"topic"`
	Type        string             `bson:"type" json:"type"`
}

// NotificationViews populates the user and room references of ns.
func NotificationViews(ns []Notification, users map[primitive.ObjectID]UserSummary, rooms map[primitive.ObjectID]RoomSummary) []NotificationView {
	out := make([]NotificationView, 0, len(ns))
	for _, n := range ns {
		v := NotificationView{
			ID:         n.ID,
			Type:       n.Type,
			IsRead:     n.IsRead,
			IsResolved: n.IsResolved,
			CreatedAt:  n.CreatedAt,
		}
		if us, ok := users[n.To]; ok {
			v.To = &us
		}
		if n.From != nil {
			if us, ok := users[*n.From]; ok {
				v.From = &us
			}
		}
		if n.Room != nil {
			if rs, ok := rooms[*n.Room]; ok {
				v.Room = &rs
			}
		}
		out = append(out, v)
	}
	return out
}

// NotificationRefs returns the distinct user and room ids ns refers to.
func NotificationRefs(ns []Notification) (users, rooms []primitive.ObjectID) {
	seenU := map[primitive.ObjectID]bool{}
	seenR := map[primitive.ObjectID]bool{}
	addU := func(id primitive.ObjectID) {
		if !seenU[id] {
			seenU[id] = true
			users = append(users, id)
		}
	}
	for _, n := range ns {
		addU(n.To)
		if n.From != nil {
			addU(*n.From)
		}
		if n.Room != nil && !seenR[*n.Room] {
			seenR[*n.Room] = true
			rooms = append(rooms, *n.Room)
		}
	}
	return users, rooms
}
