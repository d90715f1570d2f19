package search

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeIndex struct {
	healthy bool
	hits    []string
	err     error
	indexed []RoomRecord
	deleted []string
	batches int
}

func (f *fakeIndex) Healthy(context.Context) bool { return f.healthy }

func (f *fakeIndex) SearchRooms(context.Context, string, int) ([]string, error) {
	return f.hits, f.err
}

func (f *fakeIndex) IndexRooms(_ context.Context, recs []RoomRecord) error {
	f.batches++
	f.indexed = append(f.indexed, recs...)
	return nil
}

func (f *fakeIndex) DeleteRoom(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRooms struct {
	rooms      []models.Room
	textCalled bool
}

func (f *fakeRooms) TextSearch(context.Context, string) ([]models.Room, error) {
	f.textCalled = true
	return f.rooms, nil
}

func (f *fakeRooms) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Room, error) {
	var out []models.Room
	// Return in storage order, not request order.
	for _, r := range f.rooms {
		for _, id := range ids {
			if r.ID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeRooms) Each(_ context.Context, fn func(models.Room) error) error {
	for _, r := range f.rooms {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func threeRooms() []models.Room {
	return []models.Room{
		{ID: primitive.NewObjectID(), Title: "Alpha", Topic: models.TopicDesign},
		{ID: primitive.NewObjectID(), Title: "Beta", Topic: models.TopicGaming},
		{ID: primitive.NewObjectID(), Title: "Gamma", Topic: models.TopicIT},
	}
}

func TestRooms_UsesIndexRanking(t *testing.T) {
	rooms := &fakeRooms{rooms: threeRooms()}
	gone := primitive.NewObjectID()
	idx := &fakeIndex{healthy: true, hits: []string{rooms.rooms[2].ID.Hex(), gone.Hex(), rooms.rooms[0].ID.Hex()}}
	svc := NewService(idx, rooms, zap.NewNop())

	got, err := svc.Rooms(context.Background(), "a")
	if err != nil {
		t.Fatalf("Rooms: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Gamma" || got[1].Title != "Alpha" {
		t.Errorf("unexpected result order: %+v", got)
	}
	if rooms.textCalled {
		t.Error("text index consulted while search index is healthy")
	}
}

func TestRooms_FallsBackToTextIndex(t *testing.T) {
	tests := []struct {
		name  string
		index Index
	}{
		{"no index", nil},
		{"unhealthy", &fakeIndex{healthy: false}},
		{"query error", &fakeIndex{healthy: true, err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms := &fakeRooms{rooms: threeRooms()}
			svc := NewService(tt.index, rooms, zap.NewNop())
			got, err := svc.Rooms(context.Background(), "alpha")
			if err != nil {
				t.Fatalf("Rooms: %v", err)
			}
			if !rooms.textCalled || len(got) != 3 {
				t.Errorf("expected text fallback, got %d rooms (textCalled=%v)", len(got), rooms.textCalled)
			}
		})
	}
}

func TestRooms_BlankQuery(t *testing.T) {
	rooms := &fakeRooms{rooms: threeRooms()}
	svc := NewService(nil, rooms, nil)
	got, err := svc.Rooms(context.Background(), "   ")
	if err != nil || len(got) != 0 || rooms.textCalled {
		t.Errorf("blank query = %v, %v (textCalled=%v)", got, err, rooms.textCalled)
	}
}

func TestReindex_Batches(t *testing.T) {
	rooms := &fakeRooms{rooms: threeRooms()}
	idx := &fakeIndex{healthy: true}
	svc := NewService(idx, rooms, nil)

	n, err := svc.Reindex(context.Background(), 2)
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if n != 3 || len(idx.indexed) != 3 || idx.batches != 2 {
		t.Errorf("Reindex sent %d in %d batches (n=%d)", len(idx.indexed), idx.batches, n)
	}
	if idx.indexed[1].Title != "Beta" || idx.indexed[1].Topic != models.TopicGaming {
		t.Errorf("unexpected record %+v", idx.indexed[1])
	}
}

func TestIndexAndDelete_SkipWhenUnhealthy(t *testing.T) {
	idx := &fakeIndex{healthy: false}
	svc := NewService(idx, &fakeRooms{}, nil)
	r := threeRooms()[0]

	svc.IndexRoom(context.Background(), r)
	svc.DeleteRoom(context.Background(), r.ID)
	if len(idx.indexed) != 0 || len(idx.deleted) != 0 {
		t.Error("unhealthy index was written to")
	}

	idx.healthy = true
	svc.IndexRoom(context.Background(), r)
	svc.DeleteRoom(context.Background(), r.ID)
	if len(idx.indexed) != 1 || len(idx.deleted) != 1 || idx.deleted[0] != r.ID.Hex() {
		t.Errorf("indexed=%v deleted=%v", idx.indexed, idx.deleted)
	}
}
