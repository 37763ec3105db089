package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

// withTx returns a context carrying tx; repositories called with it join the
// transaction instead of using the pool.
func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

// maxTxAttempts bounds how often a transaction that lost a serialization
// conflict or deadlock is run again.
const maxTxAttempts = 3

// RunTx runs fn inside a serializable read-write transaction, running it
// again when it loses a serialization conflict. fn must therefore be safe to
// repeat. Nested calls join the outer transaction.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunTxWithOpts(ctx, nil, fn)
}

func (s *Store) RunTxWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context) error,
) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = runTx(ctx, s.pool, opts, fn)
		if !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}

	return err
}

func runTx(
	ctx context.Context,
	pool *pgxpool.Pool,
	opts *pgx.TxOptions,
	fn func(ctx context.Context) error,
) error {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	tx, err := pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(withTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{pool: s.pool} }
func (s *Store) Seats() *SeatRepo       { return &SeatRepo{pool: s.pool} }
func (s *Store) Users() *UserRepo       { return &UserRepo{pool: s.pool} }
func (s *Store) Bookings() *LedgerRepo  { return &LedgerRepo{pool: s.pool} }

// handle returns the transaction bound to ctx, or the pool.
func handle(ctx context.Context, pool *pgxpool.Pool) DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return pool
}

// inTx runs fn in the caller's transaction when there is one, otherwise in a
// new transaction with the given options.
func inTx(
	ctx context.Context,
	pool *pgxpool.Pool,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, db DB) error,
) error {
	if tx, ok := txFrom(ctx); ok {
		return fn(ctx, tx)
	}

	return runTx(ctx, pool, opts, func(ctx context.Context) error {
		tx, _ := txFrom(ctx)
		return fn(ctx, tx)
	})
}
