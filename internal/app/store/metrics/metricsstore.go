package metricsstore

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals exported as gauges on /metrics.
type Counts struct {
	Users                int64
	Rooms                int64
	PendingNotifications int64
	Activities           int64
}

// FetchCounts returns the high-level entity counts.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts

	if n, err := db.Collection("users").EstimatedDocumentCount(ctx); err == nil {
		out.Users = n
	}
	if n, err := db.Collection("rooms").EstimatedDocumentCount(ctx); err == nil {
		out.Rooms = n
	}
	if n, err := db.Collection("notifications").CountDocuments(ctx, bson.M{"is_resolved": false, "type": bson.M{"$in": bson.A{"invitation", "request"}}}); err == nil {
		out.PendingNotifications = n
	}
	if n, err := db.Collection("activities").EstimatedDocumentCount(ctx); err == nil {
		out.Activities = n
	}

	return out
}

var (
	usersDesc   = prometheus.NewDesc("roomhub_users", "Registered users", nil, nil)
	roomsDesc   = prometheus.NewDesc("roomhub_rooms", "Existing rooms", nil, nil)
	pendingDesc = prometheus.NewDesc("roomhub_pending_notifications", "Invitations and join requests awaiting a decision", nil, nil)
	actsDesc    = prometheus.NewDesc("roomhub_activities", "Logged room activities", nil, nil)
)

// Collector exports FetchCounts as gauges, querying on every scrape.
type Collector struct {
	db      *mongo.Database
	timeout time.Duration
}

// NewCollector builds a Collector over db. Each scrape is bounded by timeout.
func NewCollector(db *mongo.Database, timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Collector{db: db, timeout: timeout}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- usersDesc
	ch <- roomsDesc
	ch <- pendingDesc
	ch <- actsDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	counts := FetchCounts(ctx, c.db)
	ch <- prometheus.MustNewConstMetric(usersDesc, prometheus.GaugeValue, float64(counts.Users))
	ch <- prometheus.MustNewConstMetric(roomsDesc, prometheus.GaugeValue, float64(counts.Rooms))
	ch <- prometheus.MustNewConstMetric(pendingDesc, prometheus.GaugeValue, float64(counts.PendingNotifications))
	ch <- prometheus.MustNewConstMetric(actsDesc, prometheus.GaugeValue, float64(counts.Activities))
}
