/*
service.go - Read requests, advancement writes and admin edits

PURPOSE:
  Service wraps the pure schedule computation with the store. Every read:
  1. Loads the subscription (revision r)
  2. Computes occurrences and evaluates the expiry trigger on slot 0
  3. If triggered, writes the shifted queue with compare-and-swap on r
  4. Notifies observers of a successful write
  5. Recomputes the view from the queue it ended up with

CONCURRENCY:
  Two readers may both see revision r and both decide to advance. Only one
  compare-and-swap succeeds; the loser re-reads and shows the winner's
  state. It never advances again in the same read, so one expired head
  shifts the queue exactly once.

PERSISTENCE FAILURES:
  Transient write errors are retried with linear backoff. When retries run
  out the advanced queue is still used for the returned view (marked
  Unsaved), the failure is logged and counted, and the next read tries again.
*/
package lawncare

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenround/visit-engine/generic"
	"github.com/greenround/visit-engine/logging"
	"github.com/greenround/visit-engine/metrics"
)

// RetryPolicy bounds in-place retries of override writes.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy is used when a Service is built without one.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}

// Service serves schedule reads and override edits.
type Service struct {
	Store    Store
	Notifier Notifier
	Location *time.Location
	Retry    RetryPolicy
	Clock    func() time.Time
	Log      zerolog.Logger
}

// NewService creates a service computing dates in loc.
func NewService(store Store, notifier Notifier, loc *time.Location, log zerolog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		Store:    store,
		Notifier: notifier,
		Location: loc,
		Retry:    DefaultRetryPolicy,
		Clock:    time.Now,
		Log:      logging.Component(log, "schedule"),
	}
}

// Schedule is the result of a read.
type Schedule struct {
	Subscription Subscription
	Occurrences  []Occurrence

	// NoPlan is set when the plan or start date is missing; Occurrences is empty.
	NoPlan bool
	// Advanced is set when this read shifted the override queue.
	Advanced bool
	// Unsaved is set when the shift could not be persisted.
	Unsaved bool
}

// Next returns the first occurrence, if any.
func (s Schedule) Next() (Occurrence, bool) {
	if len(s.Occurrences) == 0 {
		return Occurrence{}, false
	}
	return s.Occurrences[0], true
}

func (s *Service) now() time.Time {
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	return clock().In(s.Location)
}

// Today is the current calendar day in the service location.
func (s *Service) Today() generic.Date { return generic.DateOf(s.now()) }

// =============================================================================
// READS
// =============================================================================

// NextOccurrence reads the single-visit view for a customer.
func (s *Service) NextOccurrence(ctx context.Context, customerID string) (Schedule, error) {
	return s.read(ctx, "next", customerID, 1)
}

// NextSixOccurrences reads the six-visit view for a customer.
func (s *Service) NextSixOccurrences(ctx context.Context, customerID string) (Schedule, error) {
	return s.read(ctx, "six", customerID, QueueSize)
}

func (s *Service) read(ctx context.Context, view, customerID string, count int) (Schedule, error) {
	start := time.Now()
	defer func() { metrics.ReadDuration.WithLabelValues(view).Observe(time.Since(start).Seconds()) }()
	metrics.ScheduleReads.WithLabelValues(view).Inc()

	sub, err := s.Store.Get(ctx, customerID)
	if err != nil {
		return Schedule{}, err
	}
	return s.evaluate(ctx, sub, s.now(), count), nil
}

// evaluate runs one read: compute, maybe advance and persist, recompute.
func (s *Service) evaluate(ctx context.Context, sub Subscription, now time.Time, count int) Schedule {
	occurrences, _ := Occurrences(sub, now, count)
	var next generic.Date
	if len(occurrences) > 0 {
		next = occurrences[0].Date
	}

	schedule := Schedule{Subscription: sub}
	if advanced, fired := Advance(sub, now, next); fired {
		schedule.Advanced = true
		schedule.Subscription, schedule.Unsaved = s.commitAdvance(ctx, sub, advanced)
	}

	occurrences, err := Occurrences(schedule.Subscription, now, count)
	if err != nil {
		schedule.NoPlan = true
		metrics.NoPlanReads.WithLabelValues(noPlanReason(err)).Inc()
	}
	schedule.Occurrences = occurrences
	metrics.OccurrencesComputed.Add(float64(len(occurrences)))
	return schedule
}

// commitAdvance persists an advanced queue read at sub.Revision. It returns
// the subscription the view should use and whether that state is unsaved.
func (s *Service) commitAdvance(ctx context.Context, sub, advanced Subscription) (Subscription, bool) {
	log := s.Log.With().Str("customer_id", sub.CustomerID).Int64("revision", sub.Revision).Logger()

	stored, err := s.persist(ctx, sub.CustomerID, sub.Revision, advanced.Overrides)
	switch {
	case err == nil:
		metrics.Advancements.WithLabelValues(metrics.OutcomePersisted).Inc()
		log.Info().Int64("new_revision", stored.Revision).Msg("override queue advanced")
		s.notify(ctx, ChangeAdvanced, stored)
		return stored, false

	case generic.IsConflict(err):
		metrics.Advancements.WithLabelValues(metrics.OutcomeConflict).Inc()
		log.Debug().Err(err).Msg("advance lost to concurrent write, re-reading")
		latest, gerr := s.Store.Get(ctx, sub.CustomerID)
		if gerr != nil {
			log.Warn().Err(gerr).Msg("re-read after conflict failed, serving in-memory view")
			return advanced, true
		}
		return latest, false

	default:
		metrics.Advancements.WithLabelValues(metrics.OutcomeFailed).Inc()
		log.Error().Err(err).Msg("override queue advance not persisted, will retry on next read")
		return advanced, true
	}
}

func (s *Service) persist(ctx context.Context, customerID string, revision int64, queue OverrideQueue) (Subscription, error) {
	attempts := s.Retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var stored Subscription
		stored, err = s.Store.UpdateOverrides(ctx, customerID, revision, queue)
		if err == nil {
			return stored, nil
		}
		if !IsRetryable(err) {
			return Subscription{}, err
		}
		if attempt == attempts {
			break
		}
		metrics.PersistRetries.Inc()
		select {
		case <-ctx.Done():
			return Subscription{}, &PersistenceError{CustomerID: customerID, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(s.Retry.Backoff * time.Duration(attempt)):
		}
	}
	return Subscription{}, &PersistenceError{CustomerID: customerID, Attempts: attempts, Err: err}
}

func (s *Service) notify(ctx context.Context, reason ChangeReason, sub Subscription) {
	event := ChangeEvent{
		ID:           uuid.NewString(),
		CustomerID:   sub.CustomerID,
		Reason:       reason,
		Revision:     sub.Revision,
		Subscription: sub,
		OccurredAt:   time.Now().UTC(),
	}
	if err := s.Notifier.Notify(ctx, event); err != nil {
		s.Log.Warn().Err(err).Str("customer_id", sub.CustomerID).Str("reason", string(reason)).Msg("change notification failed")
	}
}

func noPlanReason(err error) string {
	if errors.Is(err, ErrMissingPlanStart) {
		return "missing_start"
	}
	return "unknown_plan"
}

// =============================================================================
// ADMIN
// =============================================================================

// DuePickupsToday runs the six-visit read for every serviceable subscription
// and returns the visits falling on today.
func (s *Service) DuePickupsToday(ctx context.Context) ([]DuePickup, error) {
	start := time.Now()
	defer func() { metrics.ReadDuration.WithLabelValues("due_today").Observe(time.Since(start).Seconds()) }()
	metrics.ScheduleReads.WithLabelValues("due_today").Inc()

	subs, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := generic.DateOf(now)
	due := []DuePickup{}
	for _, sub := range subs {
		if !sub.Status.Serviceable() {
			continue
		}
		schedule := s.evaluate(ctx, sub, now, QueueSize)
		if schedule.NoPlan {
			continue
		}
		due = append(due, dueOn(sub.CustomerID, schedule.Occurrences, today)...)
	}
	sortDue(due)
	return due, nil
}

// SetOverrides replaces a customer's override queue on behalf of the admin
// editing surface. expectedRevision must match the stored revision.
func (s *Service) SetOverrides(ctx context.Context, customerID string, expectedRevision int64, queue OverrideQueue) (Subscription, error) {
	stored, err := s.Store.UpdateOverrides(ctx, customerID, expectedRevision, queue.Normalize())
	if err != nil {
		outcome := metrics.OutcomeFailed
		if generic.IsConflict(err) {
			outcome = metrics.OutcomeConflict
		}
		metrics.OverrideEdits.WithLabelValues(outcome).Inc()
		return Subscription{}, err
	}
	metrics.OverrideEdits.WithLabelValues(metrics.OutcomePersisted).Inc()
	s.Log.Info().Str("customer_id", customerID).Int64("revision", stored.Revision).Msg("override queue edited")
	s.notify(ctx, ChangeEdited, stored)
	return stored, nil
}

// =============================================================================
// RECORDS
// =============================================================================

// SaveSubscription upserts a subscription record. The override queue of an
// existing record is kept.
func (s *Service) SaveSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	if _, err := Resolve(sub.Plan, sub.PlanDay); err != nil {
		return Subscription{}, err
	}
	status, err := ParseStatus(string(sub.Status))
	if err != nil {
		return Subscription{}, err
	}
	sub.Status = status
	return s.Store.Save(ctx, sub)
}

// Subscription returns one record without evaluating it.
func (s *Service) Subscription(ctx context.Context, customerID string) (Subscription, error) {
	return s.Store.Get(ctx, customerID)
}

// Subscriptions lists every record.
func (s *Service) Subscriptions(ctx context.Context) ([]Subscription, error) {
	return s.Store.List(ctx)
}
