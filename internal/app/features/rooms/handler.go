// internal/app/features/rooms/handler.go
package rooms

import (
	"github.com/dalemusser/roomhub/internal/app/membership"
	activitystore "github.com/dalemusser/roomhub/internal/app/store/activities"
	notificationstore "github.com/dalemusser/roomhub/internal/app/store/notifications"
	roomstore "github.com/dalemusser/roomhub/internal/app/store/rooms"
	userstore "github.com/dalemusser/roomhub/internal/app/store/users"
	"github.com/dalemusser/roomhub/internal/app/system/search"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Rooms         *roomstore.Store
	Users         *userstore.Store
	Activities    *activitystore.Store
	Notifications *notificationstore.Store
	Membership    *membership.Service
	Search        *search.Service
	Files         storage.Store
	Log           *zap.Logger
}

// NewHandler wires the room endpoints. files may be nil, in which case
// uploads are rejected.
func NewHandler(db *mongo.Database, svc *membership.Service, idx *search.Service, files storage.Store, logger *zap.Logger) *Handler {
	rooms := roomstore.New(db)
	if idx == nil {
		idx = search.NewService(nil, rooms, logger)
	}
	return &Handler{
		Rooms:         rooms,
		Users:         userstore.New(db),
		Activities:    activitystore.New(db),
		Notifications: notificationstore.New(db),
		Membership:    svc,
		Search:        idx,
		Files:         files,
		Log:           logger,
	}
}
