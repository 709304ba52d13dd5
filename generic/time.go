package generic

import (
	"time"
)

// =============================================================================
// DATE - Calendar day in a specific location (visits are scheduled per day)
// =============================================================================

// Date is a calendar day. Time is always local midnight in its location.
// The zero Date means "absent".
type Date struct {
	Time time.Time
}

// Weekday is an ISO-8601 weekday: Monday=1 ... Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "mon", "tue", "wed", "thu", "fri", "sat", "sun"}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return "invalid"
	}
	return weekdayNames[w]
}

// ISOWeekday converts a time.Weekday (Sunday=0) to its ISO number.
func ISOWeekday(wd time.Weekday) Weekday {
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// Constructors
func NewDate(year int, month time.Month, day int, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, loc)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day(), t.Location())
}

// DateFromUnix decodes a persisted Unix-seconds value into the calendar day it
// falls on in loc. Zero decodes to the zero Date.
func DateFromUnix(sec int64, loc *time.Location) Date {
	if sec == 0 {
		return Date{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(time.Unix(sec, 0).In(loc))
}

// Unix encodes the date as Unix seconds of its local midnight. Zero for the zero Date.
func (d Date) Unix() int64 {
	if d.IsZero() {
		return 0
	}
	return d.Time.Unix()
}

// Comparison is by civil date only; the location is ignored.
func (d Date) Before(other Date) bool        { return d.key() < other.key() }
func (d Date) Equal(other Date) bool         { return d.key() == other.key() }
func (d Date) After(other Date) bool         { return d.key() > other.key() }
func (d Date) BeforeOrEqual(other Date) bool { return d.key() <= other.key() }
func (d Date) AfterOrEqual(other Date) bool  { return d.key() >= other.key() }

func (d Date) key() int {
	if d.IsZero() {
		return 0
	}
	return d.Time.Year()*10000 + int(d.Time.Month())*100 + d.Time.Day()
}

// Arithmetic
func (d Date) AddDays(n int) Date {
	return NewDate(d.Time.Year(), d.Time.Month(), d.Time.Day()+n, d.Location())
}

// Properties
func (d Date) Year() int                { return d.Time.Year() }
func (d Date) Month() time.Month        { return d.Time.Month() }
func (d Date) Day() int                 { return d.Time.Day() }
func (d Date) Weekday() Weekday         { return ISOWeekday(d.Time.Weekday()) }
func (d Date) IsZero() bool             { return d.Time.IsZero() }
func (d Date) Location() *time.Location { return d.Time.Location() }

// EndOfDay is 23:59:59.999 local time on d.
func (d Date) EndOfDay() time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), d.Location())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// Later returns whichever of a and b is the later day.
func Later(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween counts calendar days from -> to. Computed on civil dates so DST
// transitions never shorten or lengthen a day.
func DaysBetween(from, to Date) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// FloorDiv is integer division rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
