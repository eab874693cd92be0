package persistence

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// bookingLockName seeds the advisory lock key that serializes booking commits.
// Every club lives in its own database, so one key per database serializes all
// bookings for that club without cross-club contention.
const bookingLockName = "clubreserve/booking-commit"

func bookingLockKey() int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(bookingLockName))
	return int64(h.Sum64())
}

// ClubDB owns one pgx pool per club database, created lazily and keyed by DSN.
// Requests resolve a Handle once at entry and carry it explicitly; the
// registry itself is never passed down the call chain.
type ClubDB struct {
	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

// NewClubDB constructs an empty pool registry.
func NewClubDB() *ClubDB {
	return &ClubDB{pools: make(map[string]*pgxpool.Pool)}
}

// Handle returns the connection handle for the given club DSN, creating and
// verifying the pool on first use.
func (db *ClubDB) Handle(ctx context.Context, dsn string) (*Handle, error) {
	if dsn == "" {
		return nil, fmt.Errorf("club dsn is required")
	}

	db.mu.Lock()
	pool, ok := db.pools[dsn]
	db.mu.Unlock()
	if ok {
		return &Handle{pool: pool}, nil
	}

	pool, err := NewPool(ctx, PoolConfig{ConnString: dsn})
	if err != nil {
		return nil, fmt.Errorf("open club database: %w", err)
	}

	db.mu.Lock()
	if existing, ok := db.pools[dsn]; ok {
		// Lost the creation race; keep the winner.
		db.mu.Unlock()
		pool.Close()
		return &Handle{pool: existing}, nil
	}
	db.pools[dsn] = pool
	db.mu.Unlock()

	return &Handle{pool: pool}, nil
}

// Close shuts down every club pool.
func (db *ClubDB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	for dsn, pool := range db.pools {
		pool.Close()
		delete(db.pools, dsn)
	}
}

// Handle is the per-request connection handle for one club's database.
type Handle struct {
	pool *pgxpool.Pool
}

// NewHandle wraps an existing pool; used by tests and the CLI.
func NewHandle(pool *pgxpool.Pool) *Handle {
	if pool == nil {
		panic("Handle requires pool")
	}
	return &Handle{pool: pool}
}

// Pool exposes the underlying pool for plain queries.
func (h *Handle) Pool() *pgxpool.Pool {
	return h.pool
}

// WithTx executes fn inside a transaction, committing on success.
func (h *Handle) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := h.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// WithBookingLock executes fn inside a transaction that holds the club-wide
// booking advisory lock. The lock is transaction-scoped: it releases on commit
// or rollback, so a connection timeout cannot strand it. All booking commits
// for the club serialize through this lock; callers keep fn to the final
// re-check + insert so the critical section stays short.
func (h *Handle) WithBookingLock(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return h.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bookingLockKey()); err != nil {
			return fmt.Errorf("acquire booking lock: %w", err)
		}
		return fn(tx)
	})
}
