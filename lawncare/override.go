/*
override.go - Six-slot override queue and positional merge

PURPOSE:
  Customers and admins reschedule or cancel upcoming visits. Each change is
  stored in a slot of a fixed six-element queue; slot i governs generated
  occurrence i. Slots are never deleted, only shifted out by expiry and
  replaced with the empty Override at the tail.

MERGE RULES (per slot):
  inactive                    raw date, OverrideNone
  active, cancelled           effective date (or raw), OverrideCancelled
  active, not cancelled       effective date, OverrideRescheduled
  active, no effective date,
    not cancelled             invalid: treated as inactive
  icon override + custom set  features replaced wholesale

SEE ALSO:
  - generic/slots.go: Zip and ShiftLeft
  - expiry.go: when the queue advances
*/
package lawncare

import "github.com/greenround/visit-engine/generic"

// QueueSize is the fixed length of every override queue.
const QueueSize = 6

// Override is one positional exception to the generated schedule.
type Override struct {
	Active             bool
	EffectiveDate      generic.Date
	OriginalDate       generic.Date
	Cancelled          bool
	IconOverrideActive bool
	CustomFeatures     *FeatureSet
}

// OverrideQueue always holds exactly QueueSize slots.
type OverrideQueue [QueueSize]Override

// Validate reports ErrInvalidOverrideState for an active, non-cancelled slot
// without an effective date.
func (o Override) Validate() error {
	if o.Active && !o.Cancelled && o.EffectiveDate.IsZero() {
		return ErrInvalidOverrideState
	}
	return nil
}

// Applies reports whether merge should honour the slot.
func (o Override) Applies() bool {
	return o.Active && o.Validate() == nil
}

// Normalize enforces the invariant that an inactive slot carries no data.
func (o Override) Normalize() Override {
	if !o.Active {
		return Override{}
	}
	return o
}

// Normalize applies Override.Normalize to every slot.
func (q OverrideQueue) Normalize() OverrideQueue {
	var out OverrideQueue
	for i, o := range q {
		out[i] = o.Normalize()
	}
	return out
}

// Advance shifts every slot one position toward the head and empties the tail.
func (q OverrideQueue) Advance() OverrideQueue {
	var out OverrideQueue
	copy(out[:], generic.ShiftLeft(q[:], Override{}))
	return out
}

// Head is the slot governing the next occurrence.
func (q OverrideQueue) Head() Override { return q[0] }

// =============================================================================
// OCCURRENCE
// =============================================================================

// OverrideState tells the caller how an occurrence was produced.
type OverrideState int

const (
	OverrideNone OverrideState = iota
	OverrideRescheduled
	OverrideCancelled
)

func (s OverrideState) String() string {
	switch s {
	case OverrideRescheduled:
		return "rescheduled"
	case OverrideCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Occurrence is one concrete visit. Recomputed per request, never stored.
type Occurrence struct {
	Index    int
	Date     generic.Date
	RawDate  generic.Date
	Features FeatureSet
	State    OverrideState
}

// Merge applies the slot paired with a generated date. derived is the
// feature set computed for the generated date.
func Merge(slot generic.Slot[Override], derived FeatureSet) Occurrence {
	occ := Occurrence{
		Index:    slot.Index,
		Date:     slot.Raw,
		RawDate:  slot.Raw,
		Features: derived,
		State:    OverrideNone,
	}

	o := slot.Entry
	if !o.Applies() {
		return occ
	}

	if o.Cancelled {
		occ.State = OverrideCancelled
		if !o.EffectiveDate.IsZero() {
			occ.Date = o.EffectiveDate
		}
	} else {
		occ.State = OverrideRescheduled
		occ.Date = o.EffectiveDate
	}

	if o.IconOverrideActive && o.CustomFeatures != nil {
		occ.Features = *o.CustomFeatures
	}
	return occ
}
