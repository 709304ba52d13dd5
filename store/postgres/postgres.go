// Package postgres implements lawncare.Store on PostgreSQL through a pgx pool.
//
// The schema mirrors the SQLite store: one row per customer, the override
// queue as JSONB, and a revision column used for compare-and-swap writes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenround/visit-engine/generic"
	"github.com/greenround/visit-engine/lawncare"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
    customer_id TEXT PRIMARY KEY,
    plan        TEXT NOT NULL,
    plan_day    TEXT NOT NULL DEFAULT '',
    plan_start  TIMESTAMPTZ,
    status      TEXT NOT NULL,
    overrides   JSONB NOT NULL,
    revision    BIGINT NOT NULL DEFAULT 1,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions (status);
`

const selectColumns = `
    SELECT customer_id, plan, plan_day, plan_start, status, overrides, revision, updated_at
    FROM subscriptions
`

// Repository handles database operations for subscriptions.
type Repository struct {
	db  *pgxpool.Pool
	loc *time.Location
}

// NewRepository creates a new repository. Override dates are decoded as
// calendar days in loc.
func NewRepository(db *pgxpool.Pool, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{db: db, loc: loc}
}

// Connect opens a pool for databaseURL and applies the schema.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}
	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to apply schema: %w", err)
	}
	return pool, nil
}

// Get retrieves the subscription for a customer.
func (r *Repository) Get(ctx context.Context, customerID string) (lawncare.Subscription, error) {
	return r.get(ctx, r.db, customerID)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repository) get(ctx context.Context, q rowQuerier, customerID string) (lawncare.Subscription, error) {
	sub, err := r.scan(q.QueryRow(ctx, selectColumns+" WHERE customer_id = $1", customerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return lawncare.Subscription{}, lawncare.ErrSubscriptionNotFound
	}
	return sub, err
}

// List retrieves all subscriptions ordered by customer ID.
func (r *Repository) List(ctx context.Context) ([]lawncare.Subscription, error) {
	rows, err := r.db.Query(ctx, selectColumns+" ORDER BY customer_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []lawncare.Subscription{}
	for rows.Next() {
		sub, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *Repository) scan(row pgx.Row) (lawncare.Subscription, error) {
	var (
		sub       lawncare.Subscription
		planID    string
		planStart *time.Time
		status    string
		overrides []byte
	)
	err := row.Scan(&sub.CustomerID, &planID, &sub.PlanDay, &planStart, &status, &overrides, &sub.Revision, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sub, err
		}
		return sub, fmt.Errorf("failed to scan subscription: %w", err)
	}

	sub.Plan, _ = lawncare.ParsePlan(planID)
	sub.Status = lawncare.Status(status)
	if planStart != nil {
		sub.PlanStart = *planStart
	}
	sub.Overrides, err = lawncare.DecodeQueue(overrides, r.loc)
	if err != nil {
		return sub, fmt.Errorf("subscription %s: %w", sub.CustomerID, err)
	}
	return sub, nil
}

// Save creates a subscription or updates the record fields of an existing one.
func (r *Repository) Save(ctx context.Context, sub lawncare.Subscription) (lawncare.Subscription, error) {
	empty, err := lawncare.EncodeQueue(lawncare.OverrideQueue{})
	if err != nil {
		return lawncare.Subscription{}, err
	}

	var planStart *time.Time
	if !sub.PlanStart.IsZero() {
		t := sub.PlanStart.UTC()
		planStart = &t
	}

	query := `
        INSERT INTO subscriptions (customer_id, plan, plan_day, plan_start, status, overrides, revision, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, 1, NOW())
        ON CONFLICT (customer_id) DO UPDATE SET
            plan = EXCLUDED.plan,
            plan_day = EXCLUDED.plan_day,
            plan_start = EXCLUDED.plan_start,
            status = EXCLUDED.status,
            revision = subscriptions.revision + 1,
            updated_at = NOW()
    `
	if _, err := r.db.Exec(ctx, query,
		sub.CustomerID,
		sub.Plan.String(),
		sub.PlanDay,
		planStart,
		string(sub.Status),
		empty,
	); err != nil {
		return lawncare.Subscription{}, fmt.Errorf("failed to save subscription: %w", err)
	}
	return r.Get(ctx, sub.CustomerID)
}

// UpdateOverrides replaces the queue if the stored revision matches.
func (r *Repository) UpdateOverrides(ctx context.Context, customerID string, expectedRevision int64, queue lawncare.OverrideQueue) (lawncare.Subscription, error) {
	encoded, err := lawncare.EncodeQueue(queue)
	if err != nil {
		return lawncare.Subscription{}, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return lawncare.Subscription{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE subscriptions
        SET overrides = $1, revision = revision + 1, updated_at = NOW()
        WHERE customer_id = $2 AND revision = $3
    `, encoded, customerID, expectedRevision)
	if err != nil {
		return lawncare.Subscription{}, fmt.Errorf("failed to update overrides: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var actual int64
		err := tx.QueryRow(ctx, "SELECT revision FROM subscriptions WHERE customer_id = $1", customerID).Scan(&actual)
		if errors.Is(err, pgx.ErrNoRows) {
			return lawncare.Subscription{}, lawncare.ErrSubscriptionNotFound
		}
		if err != nil {
			return lawncare.Subscription{}, fmt.Errorf("failed to read revision: %w", err)
		}
		return lawncare.Subscription{}, &generic.RevisionConflictError{Key: customerID, Expected: expectedRevision, Actual: actual}
	}

	sub, err := r.get(ctx, tx, customerID)
	if err != nil {
		return lawncare.Subscription{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return lawncare.Subscription{}, fmt.Errorf("failed to commit overrides: %w", err)
	}
	return sub, nil
}

var _ lawncare.Store = (*Repository)(nil)
