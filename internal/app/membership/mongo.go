package membership

import (
	activitystore "github.com/dalemusser/roomhub/internal/app/store/activities"
	notificationstore "github.com/dalemusser/roomhub/internal/app/store/notifications"
	roomstore "github.com/dalemusser/roomhub/internal/app/store/rooms"
	userstore "github.com/dalemusser/roomhub/internal/app/store/users"
	"github.com/dalemusser/roomhub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NewForDB wires a Service to the Mongo-backed stores of db.
func NewForDB(db *mongo.Database, runner txn.Runner, logger *zap.Logger) *Service {
	return New(roomstore.New(db), userstore.New(db), activitystore.New(db), notificationstore.New(db), runner, logger)
}
