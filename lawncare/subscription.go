/*
subscription.go - Subscription record and the store/notification boundary

PURPOSE:
  A Subscription is the slice of the customer record the scheduler needs:
  plan, start, status and the override queue. It is a versioned value: the
  Revision increases on every write and the override queue may only be
  replaced through a compare-and-swap on that revision.

KEY INTERFACES:
  Store:    read records, upsert records, compare-and-swap the override queue
  Notifier: receives a ChangeEvent after every successful queue write

IMPLEMENTATIONS:
  - store/memory: in-process, for tests and development
  - store/sqlite: default persistent store
  - store/postgres: pgx-backed store
  - notify: in-process broadcaster and RabbitMQ publisher
*/
package lawncare

import (
	"context"
	"strings"
	"time"
)

// Status mirrors the billing provider's subscription status.
type Status string

const (
	StatusTrial             Status = "trial"
	StatusTrialing          Status = "trialing"
	StatusActive            Status = "active"
	StatusPastDue           Status = "past_due"
	StatusCanceled          Status = "canceled"
	StatusIncomplete        Status = "incomplete"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusUnpaid            Status = "unpaid"
	StatusPaused            Status = "paused"
)

var statuses = map[Status]bool{
	StatusTrial: true, StatusTrialing: true, StatusActive: true, StatusPastDue: true,
	StatusCanceled: true, StatusIncomplete: true, StatusIncompleteExpired: true,
	StatusUnpaid: true, StatusPaused: true,
}

// ParseStatus decodes a status identifier, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !statuses[st] {
		return "", &UnknownStatusError{Status: raw}
	}
	return st, nil
}

// Serviceable reports whether visits are still carried out for this status.
func (s Status) Serviceable() bool {
	switch s {
	case StatusTrial, StatusTrialing, StatusActive, StatusPastDue:
		return true
	}
	return false
}

// Subscription is a customer's recurring plan.
type Subscription struct {
	CustomerID string
	Plan       Plan
	PlanDay    string
	PlanStart  time.Time
	Overrides  OverrideQueue
	Status     Status
	Revision   int64
	UpdatedAt  time.Time
}

// Store persists subscriptions.
type Store interface {
	// Get returns ErrSubscriptionNotFound when no record exists.
	Get(ctx context.Context, customerID string) (Subscription, error)

	// List returns every subscription ordered by customer ID.
	List(ctx context.Context) ([]Subscription, error)

	// Save upserts the record fields (plan, plan day, start, status). A new
	// record starts with an empty queue at revision 1; an existing record
	// keeps its queue and its revision is bumped.
	Save(ctx context.Context, sub Subscription) (Subscription, error)

	// UpdateOverrides replaces the queue only if the stored revision equals
	// expectedRevision, returning the stored record with the new revision.
	// A mismatch returns an error wrapping generic.ErrConcurrentModification.
	UpdateOverrides(ctx context.Context, customerID string, expectedRevision int64, queue OverrideQueue) (Subscription, error)
}

// ChangeReason says why the override queue changed.
type ChangeReason string

const (
	ChangeAdvanced ChangeReason = "advanced"
	ChangeEdited   ChangeReason = "edited"
)

// ChangeEvent is published after a successful queue write.
type ChangeEvent struct {
	ID           string
	CustomerID   string
	Reason       ChangeReason
	Revision     int64
	Subscription Subscription
	OccurredAt   time.Time
}

// Notifier delivers change events to observers.
type Notifier interface {
	Notify(ctx context.Context, event ChangeEvent) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, ChangeEvent) error { return nil }
