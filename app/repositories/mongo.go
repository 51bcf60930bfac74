package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/scholarstream/scholarstream/pkg/logger"
	"github.com/scholarstream/scholarstream/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoStore wires every repository to db. The client behind db is
// shared and safe for concurrent use.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:        &mongoUsers{col: db.Collection(UsersCollection)},
		Scholarships: &mongoScholarships{col: db.Collection(ScholarshipsCollection)},
		Applications: &mongoApplications{col: db.Collection(ApplicationsCollection)},
		Reviews:      &mongoReviews{col: db.Collection(ReviewsCollection)},
		Payments:     &mongoPayments{col: db.Collection(PaymentsCollection)},
		Tx:           &mongoTransactor{client: db.Client()},
		ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, readpref.Primary())
		},
	}
}

// illegalOperation is the server code for a transaction started on a
// standalone mongod.
const illegalOperation = 20

type mongoTransactor struct {
	client *mongo.Client

	// standalone is set once the server has refused a transaction.
	standalone atomic.Bool
}

// WithinTransaction runs fn in a multi-document transaction. A standalone
// server cannot run one; fn then runs without it, and the unique indexes
// plus conditional updates are what keep writes consistent.
func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.standalone.Load() {
		return fn(ctx)
	}

	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if transactionsUnsupported(err) {
		if t.standalone.CompareAndSwap(false, true) {
			logger.WithCtx(ctx).Warn("mongo server does not support transactions; continuing without them")
		}
		return fn(ctx)
	}
	return err
}

// transactionsUnsupported reports the error a standalone mongod returns for
// the first statement of a transaction. Nothing was written in that case.
func transactionsUnsupported(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) || !se.HasErrorCode(illegalOperation) {
		return false
	}
	return strings.Contains(err.Error(), "Transaction numbers are only allowed")
}

// ── helpers ──────────────────────────────────────────────────────────────────

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// setDoc marshals a patch struct; nil pointer fields are dropped by their
// omitempty tags so only provided fields are written.
func setDoc(patch interface{}) (bson.M, error) {
	raw, err := bson.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal patch: %w", err)
	}
	return doc, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	defer metrics.ObserveStoreOp(col.Name(), "find", time.Now())
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter interface{}) (T, error) {
	defer metrics.ObserveStoreOp(col.Name(), "find_one", time.Now())
	var out T
	err := col.FindOne(ctx, filter).Decode(&out)
	return out, translate(err)
}

// patchOne applies $set and returns the updated document. An empty patch
// just re-reads the document.
func patchOne[T any](ctx context.Context, col *mongo.Collection, filter interface{}, patch interface{}) (T, error) {
	doc, err := setDoc(patch)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(doc) == 0 {
		return findOne[T](ctx, col, filter)
	}

	defer metrics.ObserveStoreOp(col.Name(), "update", time.Now())
	var out T
	err = col.FindOneAndUpdate(ctx, filter, bson.M{"$set": doc},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	return out, translate(err)
}

func deleteOne(ctx context.Context, col *mongo.Collection, filter interface{}) error {
	defer metrics.ObserveStoreOp(col.Name(), "delete", time.Now())
	res, err := col.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func newestFirst(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: -1}, {Key: "_id", Value: -1}})
}
