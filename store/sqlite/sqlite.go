/*
Package sqlite provides a SQLite-backed implementation of lawncare.Store.

PURPOSE:
  Default persistent store for subscription records and their six-slot
  override queues.

KEY TABLES:
  subscriptions: one row per customer. The override queue is stored as a
                 JSON array of six records with Unix-second dates.

COMPARE-AND-SWAP:
  Every row carries a revision. UpdateOverrides only writes when the stored
  revision equals the caller's:

    UPDATE subscriptions SET overrides_json = ?, revision = revision + 1
    WHERE customer_id = ? AND revision = ?

  Zero rows affected means the record is missing or someone else wrote
  first; the two cases are told apart inside the same transaction.

CONCURRENCY:
  Uses sync.RWMutex for in-process thread-safety. The revision predicate
  keeps writes safe across processes sharing the database file.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/visits.db", loc)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - lawncare/subscription.go: Store interface
  - store/memory: in-memory implementation for tests
  - store/postgres: pgx implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/greenround/visit-engine/generic"
	"github.com/greenround/visit-engine/lawncare"
)

// Store implements lawncare.Store using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	loc *time.Location
}

// New creates a new SQLite store with the given database path. Override dates
// are decoded as calendar days in loc. Use ":memory:" for an in-memory database.
func New(dbPath string, loc *time.Location) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if loc == nil {
		loc = time.UTC
	}
	store := &Store{db: db, loc: loc}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		customer_id TEXT PRIMARY KEY,
		plan TEXT NOT NULL,
		plan_day TEXT NOT NULL DEFAULT '',
		plan_start TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		overrides_json TEXT NOT NULL,
		revision INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	);

	-- Admin due-today scans filter by status
	CREATE INDEX IF NOT EXISTS idx_subscriptions_status
		ON subscriptions(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// READS
// =============================================================================

const selectColumns = `
	SELECT customer_id, plan, plan_day, plan_start, status, overrides_json, revision, updated_at
	FROM subscriptions
`

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get returns one subscription.
func (s *Store) Get(ctx context.Context, customerID string) (lawncare.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.get(ctx, s.db, customerID)
}

func (s *Store) get(ctx context.Context, q queryer, customerID string) (lawncare.Subscription, error) {
	row := q.QueryRowContext(ctx, selectColumns+" WHERE customer_id = ?", customerID)
	sub, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return lawncare.Subscription{}, lawncare.ErrSubscriptionNotFound
	}
	return sub, err
}

// List returns all subscriptions ordered by customer ID.
func (s *Store) List(ctx context.Context) ([]lawncare.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY customer_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []lawncare.Subscription{}
	for rows.Next() {
		sub, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(row scanner) (lawncare.Subscription, error) {
	var (
		sub       lawncare.Subscription
		planID    string
		planStart string
		status    string
		overrides string
		updatedAt string
	)

	err := row.Scan(&sub.CustomerID, &planID, &sub.PlanDay, &planStart, &status, &overrides, &sub.Revision, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sub, err
		}
		return sub, fmt.Errorf("failed to scan subscription: %w", err)
	}

	// Unknown identifiers decode to PlanNone and surface as "no plan".
	sub.Plan, _ = lawncare.ParsePlan(planID)
	sub.Status = lawncare.Status(status)
	if planStart != "" {
		if sub.PlanStart, err = time.Parse(time.RFC3339, planStart); err != nil {
			return sub, fmt.Errorf("subscription %s: invalid plan_start: %w", sub.CustomerID, err)
		}
	}
	if updatedAt != "" {
		if sub.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return sub, fmt.Errorf("subscription %s: invalid updated_at: %w", sub.CustomerID, err)
		}
	}

	sub.Overrides, err = lawncare.DecodeQueue([]byte(overrides), s.loc)
	if err != nil {
		return sub, fmt.Errorf("subscription %s: %w", sub.CustomerID, err)
	}
	return sub, nil
}

// =============================================================================
// WRITES
// =============================================================================

// Save upserts record fields. A new row starts with an empty queue at
// revision 1; an existing row keeps its queue and its revision is bumped.
func (s *Store) Save(ctx context.Context, sub lawncare.Subscription) (lawncare.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty, err := lawncare.EncodeQueue(lawncare.OverrideQueue{})
	if err != nil {
		return lawncare.Subscription{}, err
	}

	query := `
		INSERT INTO subscriptions (customer_id, plan, plan_day, plan_start, status, overrides_json, revision, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			plan = excluded.plan,
			plan_day = excluded.plan_day,
			plan_start = excluded.plan_start,
			status = excluded.status,
			revision = subscriptions.revision + 1,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		sub.CustomerID,
		sub.Plan.String(),
		sub.PlanDay,
		formatInstant(sub.PlanStart),
		string(sub.Status),
		string(empty),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return lawncare.Subscription{}, fmt.Errorf("failed to save subscription: %w", err)
	}

	return s.get(ctx, s.db, sub.CustomerID)
}

// UpdateOverrides replaces the queue if the stored revision matches.
func (s *Store) UpdateOverrides(ctx context.Context, customerID string, expectedRevision int64, queue lawncare.OverrideQueue) (lawncare.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := lawncare.EncodeQueue(queue)
	if err != nil {
		return lawncare.Subscription{}, err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lawncare.Subscription{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, `
		UPDATE subscriptions
		SET overrides_json = ?, revision = revision + 1, updated_at = ?
		WHERE customer_id = ? AND revision = ?
	`, string(encoded), time.Now().UTC().Format(time.RFC3339), customerID, expectedRevision)
	if err != nil {
		return lawncare.Subscription{}, fmt.Errorf("failed to update overrides: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return lawncare.Subscription{}, fmt.Errorf("failed to update overrides: %w", err)
	}

	if affected == 0 {
		var actual int64
		err := sqlTx.QueryRowContext(ctx, "SELECT revision FROM subscriptions WHERE customer_id = ?", customerID).Scan(&actual)
		if errors.Is(err, sql.ErrNoRows) {
			return lawncare.Subscription{}, lawncare.ErrSubscriptionNotFound
		}
		if err != nil {
			return lawncare.Subscription{}, fmt.Errorf("failed to read revision: %w", err)
		}
		return lawncare.Subscription{}, &generic.RevisionConflictError{Key: customerID, Expected: expectedRevision, Actual: actual}
	}

	sub, err := s.get(ctx, sqlTx, customerID)
	if err != nil {
		return lawncare.Subscription{}, err
	}
	if err := sqlTx.Commit(); err != nil {
		return lawncare.Subscription{}, fmt.Errorf("failed to commit overrides: %w", err)
	}
	return sub, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

var _ lawncare.Store = (*Store)(nil)
