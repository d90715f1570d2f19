// internal/app/system/search/search.go

// Package search finds rooms by free text. Meilisearch serves queries when
// it is configured and reachable; otherwise the rooms collection's $text
// index answers them.
package search

import (
	"context"
	"strings"

	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultLimit caps the number of hits returned by one query.
const DefaultLimit = 20

// RoomRecord is the document indexed for a room.
type RoomRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Topic       string `json:"topic"`
	Type        string `json:"type"`
}

// RecordFor projects r for indexing.
func RecordFor(r models.Room) RoomRecord {
	return RoomRecord{
		ID:          r.ID.Hex(),
		Title:       r.Title,
		Description: r.Description,
		Topic:       r.Topic,
		Type:        r.Type,
	}
}

// Index is a full-text room index.
type Index interface {
	Healthy(ctx context.Context) bool
	SearchRooms(ctx context.Context, query string, limit int) ([]string, error)
	IndexRooms(ctx context.Context, recs []RoomRecord) error
	DeleteRoom(ctx context.Context, id string) error
}

// RoomSource is the authoritative room store.
type RoomSource interface {
	TextSearch(ctx context.Context, query string) ([]models.Room, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Room, error)
	Each(ctx context.Context, fn func(models.Room) error) error
}

// Service searches rooms and keeps the index in step with room writes.
type Service struct {
	index Index
	rooms RoomSource
	log   *zap.Logger
}

// NewService builds a Service. index may be nil.
func NewService(index Index, rooms RoomSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{index: index, rooms: rooms, log: logger}
}

func (s *Service) indexUsable(ctx context.Context) bool {
	return s.index != nil && s.index.Healthy(ctx)
}

// Rooms returns rooms matching query, best match first.
func (s *Service) Rooms(ctx context.Context, query string) ([]models.Room, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Room{}, nil
	}

	if s.indexUsable(ctx) {
		rooms, err := s.fromIndex(ctx, query)
		if err == nil {
			return rooms, nil
		}
		s.log.Warn("search index query failed; falling back to text index", zap.Error(err))
	}
	return s.rooms.TextSearch(ctx, query)
}

func (s *Service) fromIndex(ctx context.Context, query string) ([]models.Room, error) {
	hexIDs, err := s.index.SearchRooms(ctx, query, DefaultLimit)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, h := range hexIDs {
		if id, err := primitive.ObjectIDFromHex(h); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []models.Room{}, nil
	}

	found, err := s.rooms.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Room, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}

	// Keep the index's ranking; drop hits whose room no longer exists.
	out := make([]models.Room, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// IndexRoom upserts r. Index failures are logged, not returned: the room
// write has already succeeded and the text index still finds it.
func (s *Service) IndexRoom(ctx context.Context, r models.Room) {
	if !s.indexUsable(ctx) {
		return
	}
	if err := s.index.IndexRooms(ctx, []RoomRecord{RecordFor(r)}); err != nil {
		s.log.Warn("index room", zap.String("room_id", r.ID.Hex()), zap.Error(err))
	}
}

// DeleteRoom drops a room from the index.
func (s *Service) DeleteRoom(ctx context.Context, id primitive.ObjectID) {
	if !s.indexUsable(ctx) {
		return
	}
	if err := s.index.DeleteRoom(ctx, id.Hex()); err != nil {
		s.log.Warn("delete room from index", zap.String("room_id", id.Hex()), zap.Error(err))
	}
}

// Reindex pushes every room to the index in batches and reports how many
// were sent.
func (s *Service) Reindex(ctx context.Context, batchSize int) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	var (
		batch []RoomRecord
		total int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.index.IndexRooms(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.rooms.Each(ctx, func(r models.Room) error {
		batch = append(batch, RecordFor(r))
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, flush()
}
