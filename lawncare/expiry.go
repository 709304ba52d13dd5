/*
expiry.go - Read-triggered override advancement

PURPOSE:
  Once the visit governed by override slot 0 is over, the queue shifts one
  position: slot i takes slot i+1, slot 5 becomes empty. There is no timer;
  the check runs on every read, at most one position per read.

TRIGGER (slot 0 only, slot must be active):
  a) the slot has an original date but no effective date, and now is past
     the end of the original date; or
  b) the next computed (merged) occurrence date is known and now is past its
     end of day.
  End of day is 23:59:59.999 local.

  A rescheduled slot expires on its effective date through (b), never on
  its original date, so moving a visit later does not expire it early.

IDEMPOTENCE:
  Advance is a pure function of its inputs. Once the head is inactive or
  its dates lie in the future, calling it again is a no-op. Concurrent
  readers are serialised by the store's compare-and-swap (service.go).
*/
package lawncare

import (
	"time"

	"github.com/greenround/visit-engine/generic"
)

// HeadExpired evaluates the advancement trigger for the queue head.
func HeadExpired(head Override, now time.Time, nextComputed generic.Date) bool {
	if !head.Active {
		return false
	}
	if !head.OriginalDate.IsZero() && head.EffectiveDate.IsZero() && now.After(head.OriginalDate.EndOfDay()) {
		return true
	}
	if !nextComputed.IsZero() && now.After(nextComputed.EndOfDay()) {
		return true
	}
	return false
}

// Advance returns sub with its override queue shifted by one position when
// the head has expired. The bool reports whether a shift happened.
func Advance(sub Subscription, now time.Time, nextComputed generic.Date) (Subscription, bool) {
	if !HeadExpired(sub.Overrides.Head(), now, nextComputed) {
		return sub, false
	}
	sub.Overrides = sub.Overrides.Advance()
	return sub, true
}
