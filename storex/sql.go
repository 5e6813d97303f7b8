package storex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PoolOptions tune the database/sql pool
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres connects with lib/pq and pings the server
func OpenPostgres(ctx context.Context, dsn string, pool PoolOptions) (*sqlx.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, New(ErrConnectionFailed).WithDetail("reason", "empty DSN")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, Wrap(ErrConnectionFailed, err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Wrap(ErrConnectionFailed, err)
	}
	return db, nil
}

// WithTx runs fn in a transaction, rolling back on error or panic
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return Wrap(ErrTxFailed, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return Wrap(ErrTxFailed, err)
	}
	return nil
}

// MapSQLError converts driver errors into registered store errors
func MapSQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Wrap(ErrRecordNotFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return Wrap(ErrConflict, err).WithDetail("constraint", pqErr.Constraint)
		case pqErr.Code == "22P02":
			return Wrap(ErrInvalidID, err)
		case pqErr.Code.Class() == "08":
			return Wrap(ErrConnectionFailed, err)
		}
	}
	return Wrap(ErrQueryFailed, err)
}

// PaginateSQL runs countQuery and then baseQuery with LIMIT/OFFSET appended.
// baseQuery must carry its own ORDER BY; rows are scanned with sqlx.
func PaginateSQL[T any](
	ctx context.Context,
	db sqlx.QueryerContext,
	opts PaginationOptions,
	baseQuery string,
	countQuery string,
	args ...any,
) (Paginated[T], error) {
	opts = opts.Normalize()

	var total int
	if err := sqlx.GetContext(ctx, db, &total, countQuery, args...); err != nil {
		return Paginated[T]{}, MapSQLError(err)
	}

	n := len(args)
	query := fmt.Sprintf("%s LIMIT $%d OFFSET $%d", baseQuery, n+1, n+2)

	var items []T
	if err := sqlx.SelectContext(ctx, db, &items, query, append(args, opts.PageSize, opts.Offset())...); err != nil {
		return Paginated[T]{}, MapSQLError(err)
	}
	return NewPaginated(items, opts.Page, opts.PageSize, total), nil
}
