package lawncare_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenround/visit-engine/generic"
	"github.com/greenround/visit-engine/lawncare"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var london = mustLoad("Europe/London")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func day(year int, month time.Month, d int) generic.Date {
	return generic.NewDate(year, month, d, london)
}

func at(year int, month time.Month, d, hour, min int) time.Time {
	return time.Date(year, month, d, hour, min, 0, 0, london)
}

func sub(plan lawncare.Plan, start time.Time) lawncare.Subscription {
	return lawncare.Subscription{
		CustomerID: "cus_1",
		Plan:       plan,
		PlanStart:  start,
		Status:     lawncare.StatusActive,
		Revision:   1,
	}
}

// =============================================================================
// CATALOGUE
// =============================================================================

func TestResolve_Catalogue(t *testing.T) {
	tests := []struct {
		plan     lawncare.Plan
		planDay  string
		weekdays string
		premium  bool
		ag       bool
	}{
		{lawncare.PlanTwiceWeekly, "", "mon,fri", false, false},
		{lawncare.PlanTwiceWeeklyPremium, "", "mon,fri", true, false},
		{lawncare.PlanTwiceWeeklyArtificialGrass, "", "mon,fri", false, true},
		{lawncare.PlanOnceWeekly, "", "wed", false, false},
		{lawncare.PlanOnceWeekly, "mon", "mon", false, false},
		{lawncare.PlanOnceWeeklyPremium, "MON", "mon", true, false},
		{lawncare.PlanOnceWeeklyPremium, "tue", "wed", true, false},
		{lawncare.PlanOnceWeeklyFriday, "mon", "fri", false, false},
		{lawncare.PlanOnceWeeklyPremiumFriday, "", "fri", true, false},
		{lawncare.PlanOnceWeeklyArtificialGrass, "mon", "wed", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.plan.String()+"/"+tt.planDay, func(t *testing.T) {
			pc, err := lawncare.Resolve(tt.plan, tt.planDay)
			require.NoError(t, err)
			assert.Equal(t, tt.weekdays, pc.Cadence.String())
			assert.Equal(t, tt.premium, pc.Premium)
			assert.Equal(t, tt.ag, pc.ArtificialGrass)
		})
	}
}

func TestResolve_UnknownPlan(t *testing.T) {
	_, err := lawncare.Resolve(lawncare.PlanNone, "")

	assert.ErrorIs(t, err, lawncare.ErrUnknownPlan)
	assert.True(t, lawncare.IsNoPlan(err))
}

func TestParsePlan(t *testing.T) {
	for _, p := range lawncare.AllPlans {
		parsed, err := lawncare.ParsePlan(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	p, err := lawncare.ParsePlan("Twice Weekly-Premium")
	require.NoError(t, err)
	assert.Equal(t, lawncare.PlanTwiceWeeklyPremium, p)

	_, err = lawncare.ParsePlan("thrice_weekly")
	var unknown *lawncare.UnknownPlanError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "thrice_weekly", unknown.ID)
}

func TestStatus_Serviceable(t *testing.T) {
	assert.True(t, lawncare.StatusActive.Serviceable())
	assert.True(t, lawncare.StatusTrialing.Serviceable())
	assert.True(t, lawncare.StatusPastDue.Serviceable())
	assert.False(t, lawncare.StatusCanceled.Serviceable())
	assert.False(t, lawncare.StatusPaused.Serviceable())
	assert.False(t, lawncare.Status("").Serviceable())
}

func TestParseStatus(t *testing.T) {
	st, err := lawncare.ParseStatus(" Trialing ")
	require.NoError(t, err)
	assert.Equal(t, lawncare.StatusTrialing, st)

	_, err = lawncare.ParseStatus("activ")
	assert.ErrorIs(t, err, lawncare.ErrUnknownStatus)

	_, err = lawncare.ParseStatus("")
	assert.ErrorIs(t, err, lawncare.ErrUnknownStatus)
}
