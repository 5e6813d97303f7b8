package storex

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo connects and pings the primary
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, New(ErrConnectionFailed).WithDetail("reason", "empty URI")
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(uri).SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, Wrap(ErrConnectionFailed, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, Wrap(ErrConnectionFailed, err)
	}
	return client, nil
}

// MapMongoError converts driver errors into registered store errors
func MapMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return Wrap(ErrRecordNotFound, err)
	case mongo.IsDuplicateKeyError(err):
		return Wrap(ErrConflict, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return Wrap(ErrConnectionFailed, err)
	default:
		return Wrap(ErrQueryFailed, err)
	}
}

// PaginateMongo counts filter matches and decodes one page sorted by sort
func PaginateMongo[T any](
	ctx context.Context,
	coll *mongo.Collection,
	opts PaginationOptions,
	filter bson.M,
	sort bson.D,
) (Paginated[T], error) {
	opts = opts.Normalize()

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return Paginated[T]{}, MapMongoError(err)
	}

	findOpts := options.Find().
		SetSort(sort).
		SetSkip(int64(opts.Offset())).
		SetLimit(int64(opts.PageSize))

	cursor, err := coll.Find(ctx, filter, findOpts)
	if err != nil {
		return Paginated[T]{}, MapMongoError(err)
	}
	defer cursor.Close(ctx)

	var items []T
	if err := cursor.All(ctx, &items); err != nil {
		return Paginated[T]{}, MapMongoError(err)
	}
	return NewPaginated(items, opts.Page, opts.PageSize, int(total)), nil
}
