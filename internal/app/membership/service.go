// Package membership coordinates the room, user, activity and notification
// stores to implement invitations, join requests, join/leave and
// follow/unfollow.
//
// Every operation reads and validates first; no write is attempted until all
// lookups and guards have passed. The writes of one operation are issued
// through a txn.Runner, so they share a transaction when the deployment
// supports one and are otherwise dispatched concurrently without rollback.
package membership

import (
	"context"
	"errors"

	"github.com/dalemusser/roomhub/internal/app/system/metrics"
	"github.com/dalemusser/roomhub/internal/app/system/txn"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RoomStore is the subset of the room store the workflow needs.
type RoomStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error)
	AddContributor(ctx context.Context, roomID, userID primitive.ObjectID) (bool, error)
	RemoveContributor(ctx context.Context, roomID, userID primitive.ObjectID) (bool, error)
	Contributors(ctx context.Context, roomID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// UserStore is the subset of the user store the workflow needs.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	AddRoom(ctx context.Context, userID, roomID primitive.ObjectID) error
	RemoveRoom(ctx context.Context, userID, roomID primitive.ObjectID) error
	AddFollower(ctx context.Context, targetID, followerID primitive.ObjectID) (bool, error)
	RemoveFollower(ctx context.Context, targetID, followerID primitive.ObjectID) (bool, error)
	AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error
	RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error
}

// ActivityStore appends activities.
type ActivityStore interface {
	Create(ctx context.Context, a models.Activity) error
}

// NotificationStore creates, loads and resolves notifications.
type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	Resolve(ctx context.Context, id primitive.ObjectID, to models.NotificationType) (bool, error)
}

// Service implements the membership workflow.
type Service struct {
	rooms         RoomStore
	users         UserStore
	activities    ActivityStore
	notifications NotificationStore
	runner        txn.Runner
	log           *zap.Logger
}

// New builds a Service. A nil runner means plain concurrent writes; a nil
// logger discards logs.
func New(rooms RoomStore, users UserStore, activities ActivityStore, notifications NotificationStore, runner txn.Runner, logger *zap.Logger) *Service {
	if runner == nil {
		runner = txn.None{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rooms:         rooms,
		users:         users,
		activities:    activities,
		notifications: notifications,
		runner:        runner,
		log:           logger,
	}
}

// JoinResult reports the direction of a join/leave toggle and the room's
// contributor list after the writes settled.
type JoinResult struct {
	Joined       bool
	Left         bool
	Contributors []primitive.ObjectID
}

// FollowResult reports the follow state after a toggle.
type FollowResult struct {
	Following bool
}

func (s *Service) done(op string, err error) {
	metrics.RecordTransition(op, outcome(err))
	if outcome(err) == "error" {
		s.log.Error("membership operation failed", zap.String("op", op), zap.Error(err))
	}
}

func (s *Service) room(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	r, err := s.rooms.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRoomNotFound
	}
	return r, err
}

func (s *Service) user(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *Service) notification(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotificationNotFound
	}
	return n, err
}

// resolve is the guarded transition of a pending notification to its
// terminal type.
func (s *Service) resolve(ctx context.Context, id primitive.ObjectID, to models.NotificationType) error {
	ok, err := s.notifications.Resolve(ctx, id, to)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyResolved
	}
	return nil
}

func (s *Service) createNotification(n models.Notification) txn.Write {
	return func(ctx context.Context) error { return s.notifications.Create(ctx, n) }
}

func (s *Service) appendActivity(a models.Activity) txn.Write {
	return func(ctx context.Context) error { return s.activities.Create(ctx, a) }
}

// addMember adds userID to the room's contributors and, only if that
// conditional update changed the room, links the room on the user's side and
// logs join. A concurrent join that got there first leaves nothing to do.
func (s *Service) addMember(roomID, userID primitive.ObjectID, join models.Activity) txn.Write {
	return func(ctx context.Context) error {
		added, err := s.rooms.AddContributor(ctx, roomID, userID)
		if err != nil || !added {
			return err
		}
		return txn.FanOut(ctx,
			func(ctx context.Context) error { return s.users.AddRoom(ctx, userID, roomID) },
			s.appendActivity(join),
		)
	}
}
