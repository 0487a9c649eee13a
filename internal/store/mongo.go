package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kdudkov/scanrelay/pkg/model"
)

var _ EventStore = &MongoStore{}

type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewMongo(ctx context.Context, uri, db, collection string, timeout time.Duration) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, Unavailable("connect", err)
	}

	m := &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(collection),
		logger: slog.Default().With("logger", "mongo", "collection", db+"."+collection),
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// the driver reconnects by itself, an unreachable server is not fatal here
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		m.logger.Warn("mongodb is not reachable yet", slog.Any("error", err))
	} else {
		m.logger.Info("connected to mongodb")
	}

	return m, nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	return m.client.Disconnect(ctx)
}

func (m *MongoStore) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := m.coll.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, Unavailable("count", err)
	}

	return n, nil
}

func (m *MongoStore) Find(ctx context.Context, f Filter, sort Sort, limit int) ([]*model.RadioEvent, error) {
	opts := options.Find()

	switch sort {
	case NewestFirst:
		opts.SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	case OldestFirst:
		opts.SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	}

	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.coll.Find(ctx, mongoFilter(f), opts)
	if err != nil {
		return nil, Unavailable("find", err)
	}

	defer cur.Close(ctx)

	res := make([]*model.RadioEvent, 0)

	for cur.Next(ctx) {
		var doc bson.M

		if err := cur.Decode(&doc); err != nil {
			m.logger.Warn("skip undecodable event", slog.Any("error", err))
			continue
		}

		res = append(res, fromDocument(doc))
	}

	if err := cur.Err(); err != nil {
		return nil, Unavailable("find", err)
	}

	return res, nil
}

// Tail opens a change stream over inserts. It starts at the current end of
// the collection, nothing is replayed.
func (m *MongoStore) Tail(ctx context.Context) (Feed, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}

	cs, err := m.coll.Watch(ctx, pipeline)
	if err != nil {
		return nil, Unavailable("watch", err)
	}

	return &mongoFeed{cs: cs, logger: m.logger}, nil
}

type mongoFeed struct {
	cs     *mongo.ChangeStream
	logger *slog.Logger
}

type changeEvent struct {
	FullDocument bson.M `bson:"fullDocument"`
}

func (f *mongoFeed) Next(ctx context.Context) (*model.RadioEvent, error) {
	for {
		if !f.cs.Next(ctx) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			if err := f.cs.Err(); err != nil {
				return nil, Unavailable("change stream", err)
			}

			return nil, io.EOF
		}

		var ch changeEvent

		if err := f.cs.Decode(&ch); err != nil {
			f.logger.Warn("skip undecodable change", slog.Any("error", err))
			continue
		}

		if ch.FullDocument == nil {
			continue
		}

		return fromDocument(ch.FullDocument), nil
	}
}

func (f *mongoFeed) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := f.cs.Close(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func mongoFilter(f Filter) bson.D {
	d := bson.D{}

	if f.Talkgroup != "" {
		d = append(d, bson.E{Key: "talkgroupOrSource", Value: bson.D{{Key: "$in", Value: idVariants(f.Talkgroup)}}})
	}

	if f.Since != "" {
		d = append(d, bson.E{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: f.Since}}})
	}

	if len(f.ExcludeTypes) > 0 {
		d = append(d, bson.E{Key: "eventType", Value: bson.D{{Key: "$nin", Value: f.ExcludeTypes}}})
	}

	return d
}

// idVariants matches an id stored either as a string or as any numeric type.
func idVariants(id string) bson.A {
	a := bson.A{id}

	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		a = append(a, n)
	}

	return a
}

func fromDocument(doc bson.M) *model.RadioEvent {
	m := make(map[string]any, len(doc))

	for k, v := range doc {
		m[k] = plain(v)
	}

	return model.EventFromMap(m)
}

func plain(v any) any {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time()
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0)
	case primitive.Decimal128:
		return x.String()
	case bson.M:
		m := make(map[string]any, len(x))
		for k, v1 := range x {
			m[k] = plain(v1)
		}

		return m
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = plain(e.Value)
		}

		return m
	case bson.A:
		a := make([]any, len(x))
		for i, v1 := range x {
			a[i] = plain(v1)
		}

		return a
	default:
		return v
	}
}

func (m *MongoStore) String() string {
	return fmt.Sprintf("mongodb %s", m.coll.Name())
}
