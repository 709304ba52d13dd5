/*
schedule.go - Occurrence computation for one subscription

PURPOSE:
  The pure read path: resolve the plan, generate raw dates, derive features
  for each generated date, then merge the override queue positionally.
  Nothing here writes; see expiry.go and service.go for advancement.

NO PLAN:
  An unresolvable plan or a missing start date is not a failure of the
  computation. The result is an empty list together with ErrUnknownPlan or
  ErrMissingPlanStart so callers can show "no plan" (see IsNoPlan).

EXAMPLE:
  occ, err := lawncare.NextOccurrence(sub, time.Now().In(loc))
  if lawncare.IsNoPlan(err) {
      // render "no plan"
  }
*/
package lawncare

import (
	"time"

	"github.com/greenround/visit-engine/generic"
)

// Occurrences computes the next count visits for sub as seen at now.
// now's location is the calendar used for every date.
func Occurrences(sub Subscription, now time.Time, count int) ([]Occurrence, error) {
	pc, err := Resolve(sub.Plan, sub.PlanDay)
	if err != nil {
		return []Occurrence{}, err
	}
	if sub.PlanStart.IsZero() {
		return []Occurrence{}, ErrMissingPlanStart
	}

	raw := pc.Cadence.Generate(sub.PlanStart, now, count)
	slots := generic.Zip(raw, sub.Overrides[:])

	occurrences := make([]Occurrence, len(slots))
	for i, slot := range slots {
		occurrences[i] = Merge(slot, Derive(pc, sub.PlanStart, slot.Raw))
	}
	return occurrences, nil
}

// NextOccurrence is the single-visit view. It only consults override slot 0.
func NextOccurrence(sub Subscription, now time.Time) (Occurrence, error) {
	occurrences, err := Occurrences(sub, now, 1)
	if err != nil || len(occurrences) == 0 {
		return Occurrence{}, err
	}
	return occurrences[0], nil
}

// NextSixOccurrences is the full upcoming-visits view, one per override slot.
func NextSixOccurrences(sub Subscription, now time.Time) ([]Occurrence, error) {
	return Occurrences(sub, now, QueueSize)
}
