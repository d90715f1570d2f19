package membership

import (
	"context"
	"errors"

	"github.com/dalemusser/roomhub/internal/app/system/txn"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// JoinLeaveRoom adds actorID to the room if absent, otherwise removes them.
// The direction is decided by the conditional update on the room document,
// so a leave is only logged when the actor was actually removed.
func (s *Service) JoinLeaveRoom(ctx context.Context, roomID, actorID primitive.ObjectID) (res JoinResult, err error) {
	defer func() { s.done("joinLeaveRoom", err) }()

	if _, err := s.room(ctx, roomID); err != nil {
		return res, err
	}
	if _, err := s.user(ctx, actorID); err != nil {
		return res, err
	}

	join, err := models.NewActivity(models.ActivityJoinRoom, actorID, roomID)
	if err != nil {
		return res, err
	}
	leave, err := models.NewActivity(models.ActivityLeaveRoom, actorID, roomID)
	if err != nil {
		return res, err
	}

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		res = JoinResult{}
		added, err := s.rooms.AddContributor(ctx, roomID, actorID)
		if err != nil {
			return err
		}
		if added {
			res.Joined = true
			return txn.FanOut(ctx,
				func(ctx context.Context) error { return s.users.AddRoom(ctx, actorID, roomID) },
				s.appendActivity(join),
			)
		}

		removed, err := s.rooms.RemoveContributor(ctx, roomID, actorID)
		if err != nil {
			return err
		}
		if !removed {
			return nil
		}
		res.Left = true
		return txn.FanOut(ctx,
			func(ctx context.Context) error { return s.users.RemoveRoom(ctx, actorID, roomID) },
			s.appendActivity(leave),
		)
	})
	if err != nil {
		return JoinResult{}, err
	}

	// The room may have been deleted while the toggle ran.
	contributors, err := s.rooms.Contributors(ctx, roomID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return JoinResult{}, ErrRoomNotFound
	}
	if err != nil {
		return JoinResult{}, err
	}
	res.Contributors = contributors
	return res, nil
}

// FollowUnfollow makes actorID follow targetID, or stops following when it
// already does. Following notifies the target; unfollowing does not.
func (s *Service) FollowUnfollow(ctx context.Context, targetID, actorID primitive.ObjectID) (res FollowResult, err error) {
	defer func() { s.done("followUnfollow", err) }()

	if targetID == actorID {
		return res, ErrSelfFollow
	}
	if _, err := s.user(ctx, targetID); err != nil {
		return res, err
	}
	if _, err := s.user(ctx, actorID); err != nil {
		return res, err
	}

	follow := models.NewNotification(models.NotifyFollow, targetID, actorID, nil)

	err = s.runner.Run(ctx, func(ctx context.Context) error {
		added, err := s.users.AddFollower(ctx, targetID, actorID)
		if err != nil {
			return err
		}
		res.Following = added
		if added {
			return txn.FanOut(ctx,
				func(ctx context.Context) error { return s.users.AddFollowing(ctx, actorID, targetID) },
				s.createNotification(follow),
			)
		}

		removed, err := s.users.RemoveFollower(ctx, targetID, actorID)
		if err != nil || !removed {
			return err
		}
		return s.users.RemoveFollowing(ctx, actorID, targetID)
	})
	if err != nil {
		return FollowResult{}, err
	}
	return res, nil
}
