package membership_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// world is an in-memory stand-in for the four collections. Reads return
// copies so the service never observes later writes through a pointer.
type world struct {
	mu            sync.Mutex
	users         map[primitive.ObjectID]*models.User
	rooms         map[primitive.ObjectID]*models.Room
	activities    []models.Activity
	notifications []*models.Notification

	failNotificationCreate error
	// beforeAddContributor runs ahead of each AddContributor, without the
	// lock held, to stage a concurrent change.
	beforeAddContributor func()
}

func newWorld() *world {
	return &world{
		users: map[primitive.ObjectID]*models.User{},
		rooms: map[primitive.ObjectID]*models.Room{},
	}
}

func (w *world) addUser(name string) primitive.ObjectID {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := primitive.NewObjectID()
	w.users[id] = &models.User{ID: id, Name: name, Email: name + "@example.com"}
	return id
}

func (w *world) addRoom(title string, admin primitive.ObjectID) primitive.ObjectID {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := primitive.NewObjectID()
	w.rooms[id] = &models.Room{ID: id, Title: title, Admin: admin, Contributors: []primitive.ObjectID{admin}}
	w.users[admin].Rooms = append(w.users[admin].Rooms, id)
	return id
}

func (w *world) user(id primitive.ObjectID) models.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	u := *w.users[id]
	u.Rooms = slices.Clone(u.Rooms)
	u.Following = slices.Clone(u.Following)
	u.Followers = slices.Clone(u.Followers)
	return u
}

func (w *world) room(id primitive.ObjectID) models.Room {
	w.mu.Lock()
	defer w.mu.Unlock()
	r := *w.rooms[id]
	r.Contributors = slices.Clone(r.Contributors)
	return r
}

func (w *world) notification(id primitive.ObjectID) models.Notification {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, n := range w.notifications {
		if n.ID == id {
			return *n
		}
	}
	return models.Notification{}
}

// inbox returns the notifications addressed to id, in creation order.
func (w *world) inbox(id primitive.ObjectID) []models.Notification {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []models.Notification
	for _, n := range w.notifications {
		if n.To == id {
			out = append(out, *n)
		}
	}
	return out
}

func (w *world) activityCount(title models.ActivityTitle, user, room primitive.ObjectID) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := 0
	for _, a := range w.activities {
		if a.Title == title && a.User == user && a.Room == room {
			c++
		}
	}
	return c
}

func (w *world) activityTotal() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.activities)
}

func count(ids []primitive.ObjectID, id primitive.ObjectID) int {
	c := 0
	for _, v := range ids {
		if v == id {
			c++
		}
	}
	return c
}

func addTo(ids []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	if slices.Contains(ids, id) {
		return ids, false
	}
	return append(ids, id), true
}

func pullFrom(ids []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	i := slices.Index(ids, id)
	if i < 0 {
		return ids, false
	}
	return slices.Delete(ids, i, i+1), true
}

type fakeRooms struct{ w *world }

func (f fakeRooms) GetByID(_ context.Context, id primitive.ObjectID) (*models.Room, error) {
	f.w.mu.Lock()
	_, ok := f.w.rooms[id]
	f.w.mu.Unlock()
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	r := f.w.room(id)
	return &r, nil
}

func (f fakeRooms) AddContributor(_ context.Context, roomID, userID primitive.ObjectID) (bool, error) {
	if f.w.beforeAddContributor != nil {
		f.w.beforeAddContributor()
	}
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	r, ok := f.w.rooms[roomID]
	if !ok {
		return false, nil
	}
	var added bool
	r.Contributors, added = addTo(r.Contributors, userID)
	return added, nil
}

func (f fakeRooms) RemoveContributor(_ context.Context, roomID, userID primitive.ObjectID) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	r, ok := f.w.rooms[roomID]
	if !ok {
		return false, nil
	}
	var removed bool
	r.Contributors, removed = pullFrom(r.Contributors, userID)
	return removed, nil
}

func (f fakeRooms) Contributors(_ context.Context, roomID primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	r, ok := f.w.rooms[roomID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return slices.Clone(r.Contributors), nil
}

type fakeUsers struct{ w *world }

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.w.mu.Lock()
	_, ok := f.w.users[id]
	f.w.mu.Unlock()
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	u := f.w.user(id)
	return &u, nil
}

func (f fakeUsers) mutate(id primitive.ObjectID, fn func(u *models.User)) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if u, ok := f.w.users[id]; ok {
		fn(u)
	}
}

func (f fakeUsers) AddRoom(_ context.Context, userID, roomID primitive.ObjectID) error {
	f.mutate(userID, func(u *models.User) { u.Rooms, _ = addTo(u.Rooms, roomID) })
	return nil
}

func (f fakeUsers) RemoveRoom(_ context.Context, userID, roomID primitive.ObjectID) error {
	f.mutate(userID, func(u *models.User) { u.Rooms, _ = pullFrom(u.Rooms, roomID) })
	return nil
}

func (f fakeUsers) AddFollower(_ context.Context, targetID, followerID primitive.ObjectID) (added bool, err error) {
	f.mutate(targetID, func(u *models.User) { u.Followers, added = addTo(u.Followers, followerID) })
	return added, nil
}

func (f fakeUsers) RemoveFollower(_ context.Context, targetID, followerID primitive.ObjectID) (removed bool, err error) {
	f.mutate(targetID, func(u *models.User) { u.Followers, removed = pullFrom(u.Followers, followerID) })
	return removed, nil
}

func (f fakeUsers) AddFollowing(_ context.Context, userID, targetID primitive.ObjectID) error {
	f.mutate(userID, func(u *models.User) { u.Following, _ = addTo(u.Following, targetID) })
	return nil
}

func (f fakeUsers) RemoveFollowing(_ context.Context, userID, targetID primitive.ObjectID) error {
	f.mutate(userID, func(u *models.User) { u.Following, _ = pullFrom(u.Following, targetID) })
	return nil
}

type fakeActivities struct{ w *world }

func (f fakeActivities) Create(_ context.Context, a models.Activity) error {
	if !a.Title.Valid() {
		return models.ErrUnknownActivityTitle
	}
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	f.w.activities = append(f.w.activities, a)
	return nil
}

type fakeNotifications struct{ w *world }

func (f fakeNotifications) Create(_ context.Context, n models.Notification) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.w.failNotificationCreate != nil {
		return f.w.failNotificationCreate
	}
	f.w.notifications = append(f.w.notifications, &n)
	return nil
}

func (f fakeNotifications) GetByID(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, n := range f.w.notifications {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f fakeNotifications) Resolve(_ context.Context, id primitive.ObjectID, to models.NotificationType) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, n := range f.w.notifications {
		if n.ID == id && !n.IsResolved {
			n.Type = to
			n.IsRead = n.IsRead || to.ReadOnResolve()
			n.IsResolved = true
			n.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}
