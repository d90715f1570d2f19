// internal/app/system/txn/txn.go

// Package txn runs a group of related document writes either inside a
// MongoDB multi-document transaction or, when the deployment cannot run
// transactions, as a concurrent best-effort fan-out.
//
// Writes issued through FanOut inside a Runner.Run callback share the
// transaction when one is active (they run sequentially on the session
// context, since a session is not safe for concurrent use). Outside a
// transaction they are dispatched concurrently and FanOut waits for all of
// them; a failing write does not cancel or roll back its siblings.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/dalemusser/roomhub/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Write is one independent document write.
type Write func(ctx context.Context) error

// Runner executes a unit of work.
type Runner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// None runs fn directly with no transaction. Writes issued with FanOut
// inside fn are concurrent.
type None struct{}

// Run calls fn(ctx).
func (None) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Mongo runs units of work in a transaction on client. The first time the
// server reports that transactions are unsupported (standalone mongod), it
// logs once and falls back to None for the rest of the process lifetime.
type Mongo struct {
	client      *mongo.Client
	log         *zap.Logger
	unsupported atomic.Bool
}

// NewMongo returns a transactional Runner backed by client.
func NewMongo(client *mongo.Client, logger *zap.Logger) *Mongo {
	return &Mongo{client: client, log: logger}
}

// Run executes fn inside a transaction when possible.
func (m *Mongo) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.unsupported.Load() {
		return fn(ctx)
	}

	sess, err := m.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			m.fallback(err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		// The aborted transaction committed nothing, so fn can run again.
		m.fallback(err)
		return fn(ctx)
	}
	return err
}

func (m *Mongo) fallback(err error) {
	metrics.TransactionFallbacks.Inc()
	if m.unsupported.CompareAndSwap(false, true) && m.log != nil {
		m.log.Warn("mongo transactions unavailable; falling back to best-effort concurrent writes",
			zap.Error(err))
	}
}

// FanOut issues writes and waits for all of them to settle, returning the
// first error. Inside a transaction the writes run in order on the session
// context; otherwise they run concurrently.
func FanOut(ctx context.Context, writes ...Write) error {
	if InTransaction(ctx) {
		for _, w := range writes {
			if err := w(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	// A plain Group: one failing write must not cancel the others.
	var g errgroup.Group
	for _, w := range writes {
		w := w
		g.Go(func() error { return w(ctx) })
	}
	return g.Wait()
}

// InTransaction reports whether ctx carries a MongoDB session.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// IsNotSupported reports whether err means the server cannot run
// sessions/transactions (e.g. a standalone mongod). Errors labelled as
// retryable never qualify: they describe one transaction, not the server.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var le mongo.LabeledError
	if errors.As(err, &le) &&
		(le.HasErrorLabel(labelTransient) || le.HasErrorLabel(labelUnknownCommit)) {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transaction numbers only on replica set members
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "replica set member") ||
		strings.Contains(s, "does not support sessions")
}

const (
	labelTransient     = "TransientTransactionError"
	labelUnknownCommit = "UnknownTransactionCommitResult"
)
