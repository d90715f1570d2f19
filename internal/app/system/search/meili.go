package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// RoomsIndex is the Meilisearch index uid for rooms.
const RoomsIndex = "roomhub_rooms"

// recheckAfter is how long an unhealthy client waits before probing again.
const recheckAfter = 10 * time.Second

// Meili implements Index on Meilisearch.
type Meili struct {
	client    meili.ServiceManager
	log       *zap.Logger
	healthy   atomic.Bool
	lastProbe atomic.Int64
}

// NewMeili creates a client and configures the rooms index. An unreachable
// server is not an error; queries fall back until it becomes healthy.
func NewMeili(url, apiKey string, logger *zap.Logger) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		log:    logger,
	}
	if m.probe() {
		m.configureIndex()
	} else {
		m.log.Warn("meilisearch unavailable; using text index", zap.String("url", url))
	}
	return m
}

func (m *Meili) probe() bool {
	m.lastProbe.Store(time.Now().UnixNano())
	_, err := m.client.Health()
	m.healthy.Store(err == nil)
	return err == nil
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        RoomsIndex,
		PrimaryKey: "id",
	}); err != nil {
		m.log.Debug("create index (may already exist)", zap.String("index", RoomsIndex), zap.Error(err))
	}

	index := m.client.Index(RoomsIndex)
	filterable := []interface{}{"topic", "type"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.Warn("update filterable attributes", zap.Error(err))
	}
	searchable := []string{"title", "description", "topic"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warn("update searchable attributes", zap.Error(err))
	}
}

// Healthy reports whether Meilisearch is reachable, probing again once
// recheckAfter has passed since an unhealthy result.
func (m *Meili) Healthy(context.Context) bool {
	if m.healthy.Load() {
		return true
	}
	if time.Since(time.Unix(0, m.lastProbe.Load())) < recheckAfter {
		return false
	}
	if m.probe() {
		m.log.Info("meilisearch recovered, reconfiguring index")
		m.configureIndex()
		return true
	}
	return false
}

// SearchRooms returns the ids of matching rooms in ranking order.
func (m *Meili) SearchRooms(_ context.Context, query string, limit int) ([]string, error) {
	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID:             RoomsIndex,
			Query:                query,
			Limit:                int64(limit),
			AttributesToRetrieve: []string{"id"},
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	var ids []string
	for _, sr := range resp.Results {
		for _, hit := range sr.Hits {
			if id := decodeString(hit, "id"); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// IndexRooms adds or replaces room records.
func (m *Meili) IndexRooms(_ context.Context, recs []RoomRecord) error {
	if len(recs) == 0 {
		return nil
	}
	_, err := m.client.Index(RoomsIndex).AddDocuments(recs, nil)
	return err
}

// DeleteRoom removes a room record.
func (m *Meili) DeleteRoom(_ context.Context, id string) error {
	_, err := m.client.Index(RoomsIndex).DeleteDocument(id, nil)
	return err
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
