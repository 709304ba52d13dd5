package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenround/visit-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day, time.UTC)
}

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func dateStrings(dates []generic.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}

// =============================================================================
// CADENCE CONSTRUCTION
// =============================================================================

func TestNewCadence_SortsAndDeduplicates(t *testing.T) {
	c := generic.NewCadence(generic.Friday, generic.Monday, generic.Friday, generic.Weekday(0), generic.Weekday(9))

	assert.Equal(t, []generic.Weekday{generic.Monday, generic.Friday}, c.Weekdays)
	assert.Equal(t, "mon,fri", c.String())
	assert.True(t, c.Includes(generic.Friday))
	assert.False(t, c.Includes(generic.Wednesday))
}

func TestNextOnOrAfter_SameDayInclusive(t *testing.T) {
	// GIVEN: A Wednesday cadence
	// WHEN: The cursor is itself a Wednesday
	// THEN: The cursor is returned

	c := generic.NewCadence(generic.Wednesday)
	wed := date(2024, time.January, 3)

	assert.Equal(t, "2024-01-03", c.NextOnOrAfter(wed).String())
	assert.Equal(t, "2024-01-10", c.NextOnOrAfter(wed.AddDays(1)).String())
}

// =============================================================================
// GENERATION
// =============================================================================

func TestGenerate_TwiceWeekly_FromThursday(t *testing.T) {
	// GIVEN: Mon/Fri cadence started long ago
	// WHEN: Generating six dates on Thursday 2024-01-04
	// THEN: Fri, Mon, Fri, Mon, Fri, Mon

	c := generic.NewCadence(generic.Monday, generic.Friday)
	dates := c.Generate(at(2023, time.June, 1, 9), at(2024, time.January, 4, 10), 6)

	assert.Equal(t, []string{
		"2024-01-05", "2024-01-08", "2024-01-12",
		"2024-01-15", "2024-01-19", "2024-01-22",
	}, dateStrings(dates))
}

func TestGenerate_TwiceWeekly_TodayIsVisitDay(t *testing.T) {
	c := generic.NewCadence(generic.Monday, generic.Friday)
	dates := c.Generate(at(2023, time.June, 1, 9), at(2024, time.January, 8, 18), 3)

	assert.Equal(t, []string{"2024-01-08", "2024-01-12", "2024-01-15"}, dateStrings(dates))
}

func TestGenerate_FutureStartAnchorsAtStart(t *testing.T) {
	// GIVEN: A plan that starts next month
	// WHEN: Generating today
	// THEN: The first date is on or after the start, not today

	c := generic.NewCadence(generic.Wednesday)
	dates := c.Generate(at(2024, time.February, 1, 0), at(2024, time.January, 4, 10), 2)

	assert.Equal(t, []string{"2024-02-07", "2024-02-14"}, dateStrings(dates))
}

func TestGenerate_StrictlyIncreasing(t *testing.T) {
	c := generic.NewCadence(generic.Monday, generic.Tuesday, generic.Sunday)
	dates := c.Generate(at(2024, time.January, 1, 0), at(2024, time.March, 30, 12), 20)

	require.Len(t, dates, 20)
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i-1].Before(dates[i]), "%s should precede %s", dates[i-1], dates[i])
		assert.True(t, c.Includes(dates[i].Weekday()))
	}
}

func TestGenerate_EmptyInputs(t *testing.T) {
	c := generic.NewCadence(generic.Monday)

	assert.Nil(t, c.Generate(time.Time{}, at(2024, time.January, 4, 0), 6))
	assert.Nil(t, generic.NewCadence().Generate(at(2024, time.January, 1, 0), at(2024, time.January, 4, 0), 6))
	assert.Nil(t, c.Generate(at(2024, time.January, 1, 0), at(2024, time.January, 4, 0), 0))
}

func TestGenerate_UsesNowLocationAsCalendar(t *testing.T) {
	// GIVEN: now is 23:30 UTC on Tuesday, already Wednesday in Tokyo
	// WHEN: Generating a Wednesday cadence with now expressed in Tokyo
	// THEN: Wednesday is today

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	c := generic.NewCadence(generic.Wednesday)
	now := time.Date(2024, time.January, 2, 23, 30, 0, 0, time.UTC).In(tokyo)
	dates := c.Generate(at(2023, time.January, 1, 0), now, 1)

	require.Len(t, dates, 1)
	assert.Equal(t, "2024-01-03", dates[0].String())
	assert.Equal(t, tokyo, dates[0].Location())
}
