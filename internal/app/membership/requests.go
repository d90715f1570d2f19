package membership

import (
	"context"

	"github.com/dalemusser/roomhub/internal/app/system/txn"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SendRequest asks the admin of roomID to let actorID in. It returns the
// request notification addressed to the admin.
func (s *Service) SendRequest(ctx context.Context, roomID, actorID primitive.ObjectID) (n *models.Notification, err error) {
	defer func() { s.done("sendRequest", err) }()

	room, err := s.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.user(ctx, actorID); err != nil {
		return nil, err
	}
	if room.HasContributor(actorID) {
		return nil, ErrAlreadyMember
	}

	act, err := models.NewActivity(models.ActivityRequestRoom, actorID, roomID)
	if err != nil {
		return nil, err
	}
	req := models.NewNotification(models.NotifyRequest, room.Admin, actorID, &roomID)

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		return txn.FanOut(ctx, s.appendActivity(act), s.createNotification(req))
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// requestFor loads a join request addressed to actorID along with its room
// and requester.
func (s *Service) requestFor(ctx context.Context, notificationID, actorID primitive.ObjectID) (*models.Notification, *models.Room, *models.User, error) {
	n, err := s.notification(ctx, notificationID)
	if err != nil {
		return nil, nil, nil, err
	}
	if n.To != actorID {
		return nil, nil, nil, ErrNotRecipient
	}
	if !isRequest(n.Type) {
		return nil, nil, nil, ErrWrongNotificationType
	}
	if n.Room == nil {
		return nil, nil, nil, ErrRoomNotFound
	}
	if n.From == nil {
		return nil, nil, nil, ErrUserNotFound
	}
	room, err := s.room(ctx, *n.Room)
	if err != nil {
		return nil, nil, nil, err
	}
	requester, err := s.user(ctx, *n.From)
	if err != nil {
		return nil, nil, nil, err
	}
	if n.IsResolved {
		return nil, nil, nil, ErrAlreadyResolved
	}
	return n, room, requester, nil
}

// AcceptRequest admits the requester into the room and tells them so.
func (s *Service) AcceptRequest(ctx context.Context, notificationID, actorID primitive.ObjectID) (err error) {
	defer func() { s.done("acceptRequest", err) }()

	n, room, requester, err := s.requestFor(ctx, notificationID, actorID)
	if err != nil {
		return err
	}
	if room.HasContributor(requester.ID) {
		return ErrAlreadyMember
	}

	join, err := models.NewActivity(models.ActivityJoinRoom, requester.ID, room.ID)
	if err != nil {
		return err
	}
	notify := s.createNotification(
		models.NewNotification(models.NotifyRequestAccepted, requester.ID, actorID, &room.ID))

	return s.runner.Run(ctx, func(ctx context.Context) error {
		if err := s.resolve(ctx, n.ID, models.NotifyRequestAccepted); err != nil {
			return err
		}
		return txn.FanOut(ctx, notify, s.addMember(room.ID, requester.ID, join))
	})
}

// RejectRequest declines a join request and tells the requester.
func (s *Service) RejectRequest(ctx context.Context, notificationID, actorID primitive.ObjectID) (err error) {
	defer func() { s.done("rejectRequest", err) }()

	n, room, requester, err := s.requestFor(ctx, notificationID, actorID)
	if err != nil {
		return err
	}

	// No activity: a declined request leaves no trace in the room's log.
	notify := s.createNotification(models.NewNotification(models.NotifyRequestRejected, requester.ID, actorID, &room.ID))

	return s.runner.Run(ctx, func(ctx context.Context) error {
		if err := s.resolve(ctx, n.ID, models.NotifyRequestRejected); err != nil {
			return err
		}
		return txn.FanOut(ctx, notify)
	})
}
