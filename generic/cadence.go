/*
cadence.go - Weekday recurrence rules and occurrence generation

PURPOSE:
  A Cadence is the set of weekdays a recurring visit lands on. Generate
  turns a cadence plus an anchor (plan start, now) into concrete dates.

RULES:
  1. Every date is on or after the calendar day of max(planStart, now).
  2. Same-day is inclusive: if today is a cadence weekday, today is next.
  3. After emitting a date the cursor moves one day forward, so two
     occurrences never share a date and a multi-weekday cycle wraps to the
     next week after its last weekday.
  4. Weekday resolution is modular arithmetic, never a day-by-day scan.

EXAMPLE:
  c := generic.NewCadence(generic.Monday, generic.Friday)
  // now = Thursday 2024-01-04
  c.Generate(start, now, 3) // Fri 01-05, Mon 01-08, Fri 01-12
*/
package generic

import (
	"sort"
	"strings"
	"time"
)

// Cadence is an ordered, de-duplicated set of ISO weekdays.
type Cadence struct {
	Weekdays []Weekday
}

// NewCadence sorts and de-duplicates days. Out-of-range values are dropped.
func NewCadence(days ...Weekday) Cadence {
	seen := make(map[Weekday]bool, len(days))
	out := make([]Weekday, 0, len(days))
	for _, d := range days {
		if d < Monday || d > Sunday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Cadence{Weekdays: out}
}

func (c Cadence) IsEmpty() bool { return len(c.Weekdays) == 0 }

// Includes reports whether wd is one of the cadence weekdays.
func (c Cadence) Includes(wd Weekday) bool {
	for _, d := range c.Weekdays {
		if d == wd {
			return true
		}
	}
	return false
}

func (c Cadence) String() string {
	names := make([]string, len(c.Weekdays))
	for i, d := range c.Weekdays {
		names[i] = d.String()
	}
	return strings.Join(names, ",")
}

// NextOnOrAfter resolves the first cadence day on or after cursor.
func (c Cadence) NextOnOrAfter(cursor Date) Date {
	cur := cursor.Weekday()
	best := 7
	for _, d := range c.Weekdays {
		offset := (int(d) - int(cur) + 7) % 7
		if offset < best {
			best = offset
		}
	}
	return cursor.AddDays(best)
}

// Generate returns count strictly increasing cadence dates anchored at the
// later of planStart and now, using now's location as the calendar.
// A zero planStart or an empty cadence yields nil.
func (c Cadence) Generate(planStart, now time.Time, count int) []Date {
	if planStart.IsZero() || c.IsEmpty() || count <= 0 {
		return nil
	}
	loc := now.Location()
	cursor := Later(DateOf(planStart.In(loc)), DateOf(now))

	dates := make([]Date, 0, count)
	for len(dates) < count {
		next := c.NextOnOrAfter(cursor)
		dates = append(dates, next)
		cursor = next.AddDays(1)
	}
	return dates
}
