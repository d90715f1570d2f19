package membership

import (
	"context"

	"github.com/dalemusser/roomhub/internal/app/system/txn"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func isInvitation(t models.NotificationType) bool {
	return t == models.NotifyInvitation || t == models.NotifyInvitationAccepted || t == models.NotifyInvitationRejected
}

func isRequest(t models.NotificationType) bool {
	return t == models.NotifyRequest || t == models.NotifyRequestAccepted || t == models.NotifyRequestRejected
}

// SendInvitation invites toUserID into roomID on behalf of actorID, who must
// be a contributor. It returns the created invitation.
func (s *Service) SendInvitation(ctx context.Context, roomID, toUserID, actorID primitive.ObjectID) (n *models.Notification, err error) {
	defer func() { s.done("sendInvitation", err) }()

	room, err := s.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.user(ctx, toUserID); err != nil {
		return nil, err
	}
	if !room.HasContributor(actorID) {
		return nil, ErrNotContributor
	}
	if room.HasContributor(toUserID) {
		return nil, ErrAlreadyMember
	}

	act, err := models.NewActivity(models.ActivitySendInvite, actorID, roomID)
	if err != nil {
		return nil, err
	}
	invite := models.NewNotification(models.NotifyInvitation, toUserID, actorID, &roomID)

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		return txn.FanOut(ctx, s.createNotification(invite), s.appendActivity(act))
	})
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// invitationFor loads an invitation addressed to actorID along with its room
// and recipient.
func (s *Service) invitationFor(ctx context.Context, notificationID, actorID primitive.ObjectID) (*models.Notification, *models.Room, *models.User, error) {
	n, err := s.notification(ctx, notificationID)
	if err != nil {
		return nil, nil, nil, err
	}
	if n.To != actorID {
		return nil, nil, nil, ErrNotRecipient
	}
	if !isInvitation(n.Type) {
		return nil, nil, nil, ErrWrongNotificationType
	}
	if n.Room == nil {
		return nil, nil, nil, ErrRoomNotFound
	}
	room, err := s.room(ctx, *n.Room)
	if err != nil {
		return nil, nil, nil, err
	}
	u, err := s.user(ctx, n.To)
	if err != nil {
		return nil, nil, nil, err
	}
	if n.IsResolved {
		return nil, nil, nil, ErrAlreadyResolved
	}
	return n, room, u, nil
}

// AcceptInvitation adds the invitation's recipient to its room. When the
// recipient is already a contributor the invitation is still resolved as
// accepted, and ErrAlreadyMember is returned with no membership change.
func (s *Service) AcceptInvitation(ctx context.Context, notificationID, actorID primitive.ObjectID) (err error) {
	defer func() { s.done("acceptInvitation", err) }()

	n, room, u, err := s.invitationFor(ctx, notificationID, actorID)
	if err != nil {
		return err
	}

	if room.HasContributor(u.ID) {
		if err := s.resolve(ctx, n.ID, models.NotifyInvitationAccepted); err != nil {
			return err
		}
		return ErrAlreadyMember
	}

	join, err := models.NewActivity(models.ActivityJoinRoom, u.ID, room.ID)
	if err != nil {
		return err
	}
	writes := []txn.Write{s.addMember(room.ID, u.ID, join)}
	if n.From != nil {
		writes = append(writes, s.createNotification(
			models.NewNotification(models.NotifyInvitationAccepted, *n.From, u.ID, &room.ID)))
	}

	return s.runner.Run(ctx, func(ctx context.Context) error {
		if err := s.resolve(ctx, n.ID, models.NotifyInvitationAccepted); err != nil {
			return err
		}
		return txn.FanOut(ctx, writes...)
	})
}

// RejectInvitation declines an invitation and tells the inviter.
func (s *Service) RejectInvitation(ctx context.Context, notificationID, actorID primitive.ObjectID) (err error) {
	defer func() { s.done("rejectInvitation", err) }()

	n, room, u, err := s.invitationFor(ctx, notificationID, actorID)
	if err != nil {
		return err
	}

	reject, err := models.NewActivity(models.ActivityRejectInvite, u.ID, room.ID)
	if err != nil {
		return err
	}
	writes := []txn.Write{s.appendActivity(reject)}
	if n.From != nil {
		writes = append(writes, s.createNotification(
			models.NewNotification(models.NotifyInvitationRejected, *n.From, u.ID, &room.ID)))
	}

	return s.runner.Run(ctx, func(ctx context.Context) error {
		if err := s.resolve(ctx, n.ID, models.NotifyInvitationRejected); err != nil {
			return err
		}
		return txn.FanOut(ctx, writes...)
	})
}
