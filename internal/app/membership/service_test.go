package membership_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/roomhub/internal/app/membership"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newService(w *world) *membership.Service {
	return membership.New(fakeRooms{w}, fakeUsers{w}, fakeActivities{w}, fakeNotifications{w}, nil, zap.NewNop())
}

// assertSymmetric checks user ∈ room.contributors ⇔ room ∈ user.rooms.
func assertSymmetric(t *testing.T, w *world, roomID, userID primitive.ObjectID) {
	t.Helper()
	r := w.room(roomID)
	u := w.user(userID)
	assert.Equal(t, r.HasContributor(userID), u.InRoom(roomID),
		"membership asymmetry: contributors=%v rooms=%v", r.Contributors, u.Rooms)
}

func TestAcceptInvitation_EndToEnd(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	b := w.addUser("bob")
	alpha := w.addRoom("Alpha", a)

	invite, err := svc.SendInvitation(ctx, alpha, b, a)
	require.NoError(t, err)

	pending := w.notification(invite.ID)
	assert.Equal(t, models.NotifyInvitation, pending.Type)
	assert.False(t, pending.IsResolved)
	assert.Equal(t, 1, w.activityCount(models.ActivitySendInvite, a, alpha))

	require.NoError(t, svc.AcceptInvitation(ctx, invite.ID, b))

	assert.True(t, w.room(alpha).HasContributor(b))
	assert.True(t, w.user(b).InRoom(alpha))
	assertSymmetric(t, w, alpha, b)

	resolved := w.notification(invite.ID)
	assert.Equal(t, models.NotifyInvitationAccepted, resolved.Type)
	assert.True(t, resolved.IsResolved)
	assert.True(t, resolved.IsRead)
	assert.Equal(t, 1, w.activityCount(models.ActivityJoinRoom, b, alpha))

	// The inviter hears about the outcome.
	inbox := w.inbox(a)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotifyInvitationAccepted, inbox[0].Type)
	assert.Equal(t, b, *inbox[0].From)
}

func TestAcceptInvitation_AlreadyMemberResolvesWithoutDuplicating(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	b := w.addUser("bob")
	alpha := w.addRoom("Alpha", a)

	invite, err := svc.SendInvitation(ctx, alpha, b, a)
	require.NoError(t, err)

	// b joins on their own before answering the invitation.
	res, err := svc.JoinLeaveRoom(ctx, alpha, b)
	require.NoError(t, err)
	require.True(t, res.Joined)

	err = svc.AcceptInvitation(ctx, invite.ID, b)
	assert.ErrorIs(t, err, membership.ErrAlreadyMember)
	assert.ErrorIs(t, err, membership.ErrConflict)

	assert.Equal(t, 1, count(w.room(alpha).Contributors, b))
	assert.Equal(t, 1, count(w.user(b).Rooms, alpha))

	n := w.notification(invite.ID)
	assert.Equal(t, models.NotifyInvitationAccepted, n.Type)
	assert.True(t, n.IsResolved)
	assert.True(t, n.IsRead)
	assert.Equal(t, 1, w.activityCount(models.ActivityJoinRoom, b, alpha), "no second join recorded")
}

func TestResolution_IsMonotonic(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	b := w.addUser("bob")
	alpha := w.addRoom("Alpha", a)

	invite, err := svc.SendInvitation(ctx, alpha, b, a)
	require.NoError(t, err)
	require.NoError(t, svc.RejectInvitation(ctx, invite.ID, b))

	assert.ErrorIs(t, svc.AcceptInvitation(ctx, invite.ID, b), membership.ErrAlreadyResolved)
	assert.ErrorIs(t, svc.RejectInvitation(ctx, invite.ID, b), membership.ErrAlreadyResolved)

	n := w.notification(invite.ID)
	assert.Equal(t, models.NotifyInvitationRejected, n.Type)
	assert.True(t, n.IsResolved)
	assert.False(t, w.room(alpha).HasContributor(b))
	assertSymmetric(t, w, alpha, b)
	assert.Equal(t, 1, w.activityCount(models.ActivityRejectInvite, b, alpha))
}

func TestRejectRequest_EndToEnd(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	c := w.addUser("carol")
	alpha := w.addRoom("Alpha", a)

	req, err := svc.SendRequest(ctx, alpha, c)
	require.NoError(t, err)
	assert.Equal(t, a, req.To)
	assert.Equal(t, 1, w.activityCount(models.ActivityRequestRoom, c, alpha))

	require.NoError(t, svc.RejectRequest(ctx, req.ID, a))

	original := w.notification(req.ID)
	assert.Equal(t, models.NotifyRequestRejected, original.Type)
	assert.True(t, original.IsResolved)
	assert.False(t, original.IsRead)
	assert.Equal(t, 0, w.activityCount(models.ActivityRejectRequest, a, alpha))

	inbox := w.inbox(c)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotifyRequestRejected, inbox[0].Type)
	assert.Equal(t, a, *inbox[0].From)

	assert.False(t, w.room(alpha).HasContributor(c))
	assertSymmetric(t, w, alpha, c)
}

func TestAcceptRequest_SecondAcceptIsRefused(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	c := w.addUser("carol")
	alpha := w.addRoom("Alpha", a)

	req, err := svc.SendRequest(ctx, alpha, c)
	require.NoError(t, err)

	require.NoError(t, svc.AcceptRequest(ctx, req.ID, a))
	assert.True(t, w.room(alpha).HasContributor(c))
	assertSymmetric(t, w, alpha, c)

	// c leaves, then the admin replays the old request.
	res, err := svc.JoinLeaveRoom(ctx, alpha, c)
	require.NoError(t, err)
	require.True(t, res.Left)

	assert.ErrorIs(t, svc.AcceptRequest(ctx, req.ID, a), membership.ErrAlreadyResolved)
	assert.False(t, w.room(alpha).HasContributor(c))
	assert.Equal(t, 1, w.activityCount(models.ActivityJoinRoom, c, alpha))

	inbox := w.inbox(c)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotifyRequestAccepted, inbox[0].Type)
}

func TestAcceptRequest_RequesterAlreadyMember(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	c := w.addUser("carol")
	alpha := w.addRoom("Alpha", a)

	req, err := svc.SendRequest(ctx, alpha, c)
	require.NoError(t, err)
	_, err = svc.JoinLeaveRoom(ctx, alpha, c)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.AcceptRequest(ctx, req.ID, a), membership.ErrAlreadyMember)
	assert.Equal(t, 1, count(w.room(alpha).Contributors, c))
	assert.False(t, w.notification(req.ID).IsResolved)
}

func TestAcceptRequest_ConcurrentJoinWinsRace(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	c := w.addUser("carol")
	alpha := w.addRoom("Alpha", a)

	req, err := svc.SendRequest(ctx, alpha, c)
	require.NoError(t, err)

	// c lands in the room between the membership check and the write.
	w.beforeAddContributor = func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		r := w.rooms[alpha]
		r.Contributors = append(r.Contributors, c)
	}

	require.NoError(t, svc.AcceptRequest(ctx, req.ID, a))
	assert.Equal(t, 1, count(w.room(alpha).Contributors, c))
	assert.Zero(t, w.activityCount(models.ActivityJoinRoom, c, alpha))
	assert.False(t, w.user(c).InRoom(alpha), "room linked on the user side by the losing write")
	assert.True(t, w.notification(req.ID).IsResolved)
	require.Len(t, w.inbox(c), 1)
}

func TestSendRequest_ContributorIsRefused(t *testing.T) {
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	alpha := w.addRoom("Alpha", a)

	_, err := svc.SendRequest(context.Background(), alpha, a)
	assert.ErrorIs(t, err, membership.ErrAlreadyMember)
	assert.Empty(t, w.inbox(a))
}

func TestFollowUnfollow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	d := w.addUser("dave")
	e := w.addUser("erin")

	res, err := svc.FollowUnfollow(ctx, e, d)
	require.NoError(t, err)
	assert.True(t, res.Following)
	assert.Contains(t, w.user(e).Followers, d)
	assert.Contains(t, w.user(d).Following, e)

	inbox := w.inbox(e)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotifyFollow, inbox[0].Type)
	assert.False(t, inbox[0].IsRead)
	assert.Nil(t, inbox[0].Room)

	res, err = svc.FollowUnfollow(ctx, e, d)
	require.NoError(t, err)
	assert.False(t, res.Following)
	assert.NotContains(t, w.user(e).Followers, d)
	assert.NotContains(t, w.user(d).Following, e)
	assert.Len(t, w.inbox(e), 1, "unfollow must not notify")
}

func TestFollowUnfollow_Self(t *testing.T) {
	w := newWorld()
	svc := newService(w)
	d := w.addUser("dave")

	_, err := svc.FollowUnfollow(context.Background(), d, d)
	assert.ErrorIs(t, err, membership.ErrSelfFollow)
	assert.ErrorIs(t, err, membership.ErrValidation)
}

func TestJoinLeaveRoom_IsItsOwnInverse(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	b := w.addUser("bob")
	alpha := w.addRoom("Alpha", a)
	before := w.room(alpha).Contributors

	joined, err := svc.JoinLeaveRoom(ctx, alpha, b)
	require.NoError(t, err)
	assert.True(t, joined.Joined)
	assert.ElementsMatch(t, []primitive.ObjectID{a, b}, joined.Contributors)
	assertSymmetric(t, w, alpha, b)

	left, err := svc.JoinLeaveRoom(ctx, alpha, b)
	require.NoError(t, err)
	assert.True(t, left.Left)
	assert.ElementsMatch(t, before, left.Contributors)
	assertSymmetric(t, w, alpha, b)

	assert.Equal(t, 1, w.activityCount(models.ActivityJoinRoom, b, alpha))
	assert.Equal(t, 1, w.activityCount(models.ActivityLeaveRoom, b, alpha))
}

// racingRooms reports the actor as already present on add and already gone
// on remove, as happens when a concurrent leave lands between the two
// conditional updates.
type racingRooms struct{ fakeRooms }

func (racingRooms) AddContributor(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return false, nil
}

func (racingRooms) RemoveContributor(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return false, nil
}

func TestJoinLeaveRoom_NoPhantomLeave(t *testing.T) {
	w := newWorld()
	svc := membership.New(racingRooms{fakeRooms{w}}, fakeUsers{w}, fakeActivities{w}, fakeNotifications{w}, nil, nil)

	a := w.addUser("alice")
	b := w.addUser("bob")
	alpha := w.addRoom("Alpha", a)

	res, err := svc.JoinLeaveRoom(context.Background(), alpha, b)
	require.NoError(t, err)
	assert.False(t, res.Joined)
	assert.False(t, res.Left)
	assert.Zero(t, w.activityTotal())
}

func TestJoinLeaveRoom_RoomDeletedMidToggle(t *testing.T) {
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	b := w.addUser("bob")
	alpha := w.addRoom("Alpha", a)

	w.beforeAddContributor = func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.rooms, alpha)
	}

	_, err := svc.JoinLeaveRoom(context.Background(), alpha, b)
	assert.ErrorIs(t, err, membership.ErrRoomNotFound)
	assert.Zero(t, w.activityTotal())
}

func TestJoinLeaveRoom_ConcurrentJoinsKeepEveryone(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	alpha := w.addRoom("Alpha", a)

	const n = 20
	ids := make([]primitive.ObjectID, n)
	for i := range ids {
		ids[i] = w.addUser("user")
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id primitive.ObjectID) {
			defer wg.Done()
			_, err := svc.JoinLeaveRoom(ctx, alpha, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Len(t, w.room(alpha).Contributors, n+1)
	for _, id := range ids {
		assertSymmetric(t, w, alpha, id)
	}
}

func TestOperations_LookupMissesBeforeWrites(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	alpha := w.addRoom("Alpha", a)
	ghost := primitive.NewObjectID()

	_, err := svc.SendInvitation(ctx, ghost, a, a)
	assert.ErrorIs(t, err, membership.ErrRoomNotFound)

	_, err = svc.SendInvitation(ctx, alpha, ghost, a)
	assert.ErrorIs(t, err, membership.ErrUserNotFound)

	_, err = svc.SendRequest(ctx, ghost, a)
	assert.ErrorIs(t, err, membership.ErrRoomNotFound)

	_, err = svc.JoinLeaveRoom(ctx, ghost, a)
	assert.ErrorIs(t, err, membership.ErrRoomNotFound)

	_, err = svc.FollowUnfollow(ctx, ghost, a)
	assert.ErrorIs(t, err, membership.ErrUserNotFound)

	for name, op := range map[string]func(context.Context, primitive.ObjectID, primitive.ObjectID) error{
		"acceptInvitation": svc.AcceptInvitation,
		"rejectInvitation": svc.RejectInvitation,
		"acceptRequest":    svc.AcceptRequest,
		"rejectRequest":    svc.RejectRequest,
	} {
		err := op(ctx, ghost, a)
		assert.ErrorIs(t, err, membership.ErrNotificationNotFound, name)
		assert.ErrorIs(t, err, membership.ErrNotFound, name)
	}

	assert.Zero(t, w.activityTotal())
	assert.Empty(t, w.inbox(a))
}

func TestOperations_Authorization(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	b := w.addUser("bob")
	mallory := w.addUser("mallory")
	alpha := w.addRoom("Alpha", a)

	_, err := svc.SendInvitation(ctx, alpha, b, mallory)
	assert.ErrorIs(t, err, membership.ErrForbidden)

	invite, err := svc.SendInvitation(ctx, alpha, b, a)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.AcceptInvitation(ctx, invite.ID, mallory), membership.ErrForbidden)

	req, err := svc.SendRequest(ctx, alpha, mallory)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.AcceptRequest(ctx, req.ID, mallory), membership.ErrForbidden)

	_, err = svc.SendInvitation(ctx, alpha, a, a)
	assert.ErrorIs(t, err, membership.ErrAlreadyMember)

	assert.False(t, w.room(alpha).HasContributor(mallory))
	assert.False(t, w.notification(invite.ID).IsResolved)
}

func TestOperations_WrongNotificationType(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	c := w.addUser("carol")
	alpha := w.addRoom("Alpha", a)

	req, err := svc.SendRequest(ctx, alpha, c)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.AcceptInvitation(ctx, req.ID, a), membership.ErrWrongNotificationType)

	_, err = svc.FollowUnfollow(ctx, c, a)
	require.NoError(t, err)
	follow := w.inbox(c)[0]
	assert.ErrorIs(t, svc.AcceptRequest(ctx, follow.ID, c), membership.ErrWrongNotificationType)
}

func TestSendInvitation_FanOutIsBestEffort(t *testing.T) {
	w := newWorld()
	svc := newService(w)

	a := w.addUser("alice")
	b := w.addUser("bob")
	alpha := w.addRoom("Alpha", a)

	boom := errors.New("insert failed")
	w.failNotificationCreate = boom

	_, err := svc.SendInvitation(context.Background(), alpha, b, a)
	assert.ErrorIs(t, err, boom)
	// The sibling write is neither cancelled nor rolled back.
	assert.Equal(t, 1, w.activityCount(models.ActivitySendInvite, a, alpha))
}

func TestParseID(t *testing.T) {
	id := primitive.NewObjectID()
	got, err := membership.ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = membership.ParseID("not-an-id")
	assert.ErrorIs(t, err, membership.ErrInvalidID)
}
