// Package memory provides an in-memory lawncare.Store for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/greenround/visit-engine/generic"
	"github.com/greenround/visit-engine/lawncare"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu            sync.RWMutex
	subscriptions map[string]lawncare.Subscription
	now           func() time.Time
}

func New() *Store {
	return &Store{
		subscriptions: make(map[string]lawncare.Subscription),
		now:           time.Now,
	}
}

func (m *Store) Get(_ context.Context, customerID string) (lawncare.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subscriptions[customerID]
	if !ok {
		return lawncare.Subscription{}, lawncare.ErrSubscriptionNotFound
	}
	return clone(sub), nil
}

func (m *Store) List(_ context.Context) ([]lawncare.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]lawncare.Subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		result = append(result, clone(sub))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CustomerID < result[j].CustomerID })
	return result, nil
}

// Save upserts the record fields. New records start with an empty queue.
func (m *Store) Save(_ context.Context, sub lawncare.Subscription) (lawncare.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.subscriptions[sub.CustomerID]
	if ok {
		sub.Overrides = existing.Overrides
		sub.Revision = existing.Revision + 1
	} else {
		sub.Overrides = lawncare.OverrideQueue{}
		sub.Revision = 1
	}
	sub.UpdatedAt = m.now().UTC()
	m.subscriptions[sub.CustomerID] = clone(sub)
	return clone(sub), nil
}

// UpdateOverrides is a compare-and-swap on the record revision.
func (m *Store) UpdateOverrides(_ context.Context, customerID string, expectedRevision int64, queue lawncare.OverrideQueue) (lawncare.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[customerID]
	if !ok {
		return lawncare.Subscription{}, lawncare.ErrSubscriptionNotFound
	}
	if sub.Revision != expectedRevision {
		return lawncare.Subscription{}, &generic.RevisionConflictError{
			Key:      customerID,
			Expected: expectedRevision,
			Actual:   sub.Revision,
		}
	}

	sub.Overrides = queue
	sub.Revision++
	sub.UpdatedAt = m.now().UTC()
	m.subscriptions[customerID] = clone(sub)
	return clone(sub), nil
}

// clone deep-copies the custom feature sets so callers never share them.
func clone(sub lawncare.Subscription) lawncare.Subscription {
	for i, o := range sub.Overrides {
		if o.CustomFeatures != nil {
			fs := *o.CustomFeatures
			sub.Overrides[i].CustomFeatures = &fs
		}
	}
	return sub
}

var _ lawncare.Store = (*Store)(nil)
