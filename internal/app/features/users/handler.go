// internal/app/features/users/handler.go
package users

import (
	"github.com/dalemusser/roomhub/internal/app/membership"
	activitystore "github.com/dalemusser/roomhub/internal/app/store/activities"
	roomstore "github.com/dalemusser/roomhub/internal/app/store/rooms"
	userstore "github.com/dalemusser/roomhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Rooms      *roomstore.Store
	Activities *activitystore.Store
	Membership *membership.Service
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, svc *membership.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Rooms:      roomstore.New(db),
		Activities: activitystore.New(db),
		Membership: svc,
		Log:        logger,
	}
}
