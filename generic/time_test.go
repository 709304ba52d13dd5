package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenround/visit-engine/generic"
)

func TestISOWeekday(t *testing.T) {
	assert.Equal(t, generic.Monday, generic.ISOWeekday(time.Monday))
	assert.Equal(t, generic.Saturday, generic.ISOWeekday(time.Saturday))
	assert.Equal(t, generic.Sunday, generic.ISOWeekday(time.Sunday))
	assert.Equal(t, "sun", generic.Sunday.String())
	assert.Equal(t, "invalid", generic.Weekday(8).String())
}

func TestDate_ComparesByCalendarDay(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	a := generic.NewDate(2024, time.March, 31, london)
	b := generic.NewDate(2024, time.March, 31, time.UTC)

	assert.True(t, a.Equal(b))
	assert.True(t, a.Before(b.AddDays(1)))
	assert.True(t, a.AfterOrEqual(b))
	assert.False(t, a.IsZero())
	assert.True(t, generic.Date{}.IsZero())
}

func TestDate_UnixRoundTrip(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	d := generic.NewDate(2024, time.July, 15, london)
	back := generic.DateFromUnix(d.Unix(), london)

	assert.Equal(t, "2024-07-15", back.String())
	assert.Equal(t, int64(0), generic.Date{}.Unix())
	assert.True(t, generic.DateFromUnix(0, london).IsZero())
}

func TestDate_EndOfDay(t *testing.T) {
	eod := date(2024, time.January, 5).EndOfDay()

	assert.Equal(t, 23, eod.Hour())
	assert.Equal(t, 59, eod.Second())
	assert.Equal(t, 999*time.Millisecond, time.Duration(eod.Nanosecond()))
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	// GIVEN: The spring-forward weekend in London (23-hour day)
	// THEN: Still counted as whole calendar days

	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	from := generic.NewDate(2024, time.March, 30, london)
	to := generic.NewDate(2024, time.April, 6, london)

	assert.Equal(t, 7, generic.DaysBetween(from, to))
	assert.Equal(t, -7, generic.DaysBetween(to, from))
	assert.Equal(t, "2024-04-06", from.AddDays(7).String())
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 1, generic.FloorDiv(13, 7))
	assert.Equal(t, 0, generic.FloorDiv(6, 7))
	assert.Equal(t, -1, generic.FloorDiv(-1, 7))
	assert.Equal(t, -2, generic.FloorDiv(-8, 7))
}

func TestLater(t *testing.T) {
	a, b := date(2024, time.January, 1), date(2024, time.January, 2)
	assert.Equal(t, b, generic.Later(a, b))
	assert.Equal(t, b, generic.Later(b, a))
}
