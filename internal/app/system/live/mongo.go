package live

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Query describes a live collection query.
type Query struct {
	// Filter selects the snapshot documents.
	Filter bson.M
	// Match selects the change events that trigger a reload. Keys are
	// document field names; they are matched against fullDocument.
	// A nil Match reloads on every change to the collection.
	Match bson.M
	Sort  bson.D
}

// Watch streams snapshots of q over coll. It uses a change stream when the
// deployment supports one and otherwise polls every pollEvery.
func Watch[T any](ctx context.Context, coll *mongo.Collection, q Query, pollEvery time.Duration, log *zap.Logger) *Stream[T] {
	if log == nil {
		log = zap.NewNop()
	}

	open := func(ctx context.Context) (Waiter, func(), error) {
		cs, err := coll.Watch(ctx, changePipeline(q.Match),
			options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			if !IsChangeStreamUnsupported(err) {
				return nil, nil, err
			}
			log.Debug("change streams unavailable; polling",
				zap.String("collection", coll.Name()),
				zap.Duration("interval", pollEvery))
			return PollWaiter(pollEvery), nil, nil
		}
		cleanup := func() {
			cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = cs.Close(cctx)
		}
		return func(ctx context.Context) error {
			if cs.Next(ctx) {
				return nil
			}
			if err := cs.Err(); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			return ErrStreamEnded
		}, cleanup, nil
	}

	load := func(ctx context.Context) ([]T, error) {
		filter := q.Filter
		if filter == nil {
			filter = bson.M{}
		}
		opts := options.Find()
		if len(q.Sort) > 0 {
			opts.SetSort(q.Sort)
		}
		cur, err := coll.Find(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)
		var out []T
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	// A matched change can leave the snapshot as it was (a write to a
	// field outside Filter), so equal snapshots are skipped in both modes.
	return Start(ctx, open, load, Options{SkipUnchanged: true}, log)
}

func changePipeline(match bson.M) mongo.Pipeline {
	if len(match) == 0 {
		return mongo.Pipeline{}
	}
	m := bson.M{}
	for k, v := range match {
		m["fullDocument."+k] = v
	}
	return mongo.Pipeline{{{Key: "$match", Value: m}}}
}

// PollWaiter returns a Waiter that fires every interval.
func PollWaiter(interval time.Duration) Waiter {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return func(ctx context.Context) error {
		t := time.NewTimer(interval)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}

// IsChangeStreamUnsupported reports whether err means the server cannot
// open change streams (standalone mongod or an in-memory test server).
func IsChangeStreamUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 40573, 115: // ChangeStreamNotSupported-on-standalone, CommandNotSupported
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "only supported on replica sets") ||
		(strings.Contains(msg, "change stream") && strings.Contains(msg, "not supported"))
}
