package models

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseActivityTitle(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"createRoom", false},
		{"joinRoom", false},
		{"uploadFile", false},
		{"rejectRequest", false},
		{"", true},
		{"JoinRoom", true},
		{"renameRoom", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseActivityTitle(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownActivityTitle) {
					t.Errorf("ParseActivityTitle(%q) error = %v, want ErrUnknownActivityTitle", tt.in, err)
				}
				return
			}
			if err != nil || string(got) != tt.in {
				t.Errorf("ParseActivityTitle(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestNewActivity(t *testing.T) {
	user, room := primitive.NewObjectID(), primitive.NewObjectID()

	a, err := NewActivity(ActivityCreateTask, user, room)
	if err != nil {
		t.Fatalf("NewActivity: %v", err)
	}
	if a.ID.IsZero() || a.CreatedAt.IsZero() {
		t.Error("expected id and timestamp to be set")
	}
	if a.User != user || a.Room != room {
		t.Error("user/room not carried over")
	}

	if _, err := NewActivity("deleteRoom", user, room); !errors.Is(err, ErrUnknownActivityTitle) {
		t.Errorf("expected ErrUnknownActivityTitle, got %v", err)
	}
}

func TestNotificationType(t *testing.T) {
	for _, typ := range []NotificationType{NotifyInvitation, NotifyRequest} {
		if !typ.Valid() || !typ.Pending() {
			t.Errorf("%s: expected valid and pending", typ)
		}
	}
	for _, typ := range []NotificationType{NotifyFollow, NotifyRequestAccepted, NotifyInvitationRejected} {
		if !typ.Valid() || typ.Pending() {
			t.Errorf("%s: expected valid and not pending", typ)
		}
	}
	if NotificationType("poke").Valid() {
		t.Error("unknown type reported valid")
	}

	n := NewNotification(NotifyFollow, primitive.NewObjectID(), primitive.NewObjectID(), nil)
	if n.IsRead || n.IsResolved || n.Room != nil || n.From == nil {
		t.Errorf("unexpected new notification state: %+v", n)
	}
}

func TestRoomAndUserMembership(t *testing.T) {
	u := User{ID: primitive.NewObjectID()}
	r := Room{ID: primitive.NewObjectID(), Contributors: []primitive.ObjectID{u.ID}}
	u.Rooms = []primitive.ObjectID{r.ID}

	if !r.HasContributor(u.ID) || !u.InRoom(r.ID) {
		t.Error("membership helpers disagree with fields")
	}
	if r.HasContributor(primitive.NewObjectID()) {
		t.Error("stranger reported as contributor")
	}
}
