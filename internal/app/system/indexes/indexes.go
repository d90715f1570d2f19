// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup and by `roomhubctl indexes`. Every ensure*
function is idempotent. Errors are aggregated so one bad collection does not
hide problems in the others, and startup fails fast on any of them.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		name   string
		ensure func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"rooms", ensureRooms},
		{"activities", ensureActivities},
		{"notifications", ensureNotifications},
	}

	var problems []string
	for _, s := range sets {
		if err := s.ensure(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                       */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

type desiredIndex struct {
	model  mongo.IndexModel
	name   string
	sig    string
	unique bool
	text   bool
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{model: m}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique != nil && *m.Options.Unique
	}
	keys := m.Keys.(bson.D)
	d.sig = keySig(keys)
	for _, kv := range keys {
		if kv.Value == "text" {
			d.text = true
		}
	}
	return d
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

// listExisting returns the collection's indexes keyed by key signature and
// by name. A missing collection yields empty maps.
func listExisting(ctx context.Context, coll *mongo.Collection) (bySig, byName map[string]existingIndex) {
	bySig = map[string]existingIndex{}
	byName = map[string]existingIndex{}

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return bySig, byName
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		bySig[keySig(idx.Key)] = idx
		byName[idx.Name] = idx
	}
	return bySig, byName
}

// isDuplicateKeyErr reports an E11000 from any of the shapes the driver
// surfaces it in.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		bySig, byName := listExisting(ctx, coll)

		// Text indexes are listed as {_fts, _ftsx}, so match them by name.
		ex, found := bySig[d.sig]
		if d.text {
			ex, found = byName[d.name]
		}

		if found {
			exUnique := ex.Unique != nil && *ex.Unique
			if exUnique == d.unique && (d.name == "" || ex.Name == d.name) {
				log.Debug("reusing existing index", zap.Duration("took", time.Since(start)))
				continue
			}
			// Name or uniqueness drifted: drop and recreate under the desired spec.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), d.name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			errs = append(errs, createErr(coll.Name(), d, err))
			continue
		}
		log.Info("index ensured", zap.Bool("recreated", found), zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func createErr(coll string, d desiredIndex, err error) string {
	if !d.unique || !isDuplicateKeyErr(err) {
		return fmt.Sprintf("%s(%s): %v", coll, d.name, err)
	}
	field := strings.SplitN(d.sig, ":", 2)[0]
	return fmt.Sprintf("%s(%s): cannot create unique index, duplicate %s values present. Example finder: "+
		`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
		coll, d.name, field, coll, field)
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Login and signup lookups; email is stored lowercased.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Directory listing sorted by name.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_nameci__id"),
		},
		// GET /user/filter?specialization=
		{
			Keys:    bson.D{{Key: "specialization", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_specialization_nameci"),
		},
		// GET /user/search?query=
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "about", Value: "text"},
				{Key: "skills", Value: "text"},
			},
			Options: options.Index().SetName("txt_users_name_about_skills"),
		},
	})
}

func ensureRooms(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("rooms"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_rooms_title"),
		},
		// Recent rooms and topic filter.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_rooms_created"),
		},
		{
			Keys:    bson.D{{Key: "topic", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_rooms_topic_created"),
		},
		// Rooms a user contributes to.
		{
			Keys:    bson.D{{Key: "contributors", Value: 1}},
			Options: options.Index().SetName("idx_rooms_contributors"),
		},
		// Fallback search when no search engine is configured.
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "topic", Value: "text"},
			},
			Options: options.Index().SetName("txt_rooms_title_description_topic"),
		},
	})
}

func ensureActivities(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("activities"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activities_room_created"),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activities_user_created"),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("notifications"), []mongo.IndexModel{
		// Inbox, newest first.
		{
			Keys:    bson.D{{Key: "to", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notifications_to_created"),
		},
		// Unread badge count.
		{
			Keys:    bson.D{{Key: "to", Value: 1}, {Key: "is_read", Value: 1}},
			Options: options.Index().SetName("idx_notifications_to_isread"),
		},
	})
}
