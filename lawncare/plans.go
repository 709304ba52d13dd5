/*
plans.go - Closed plan catalogue and cadence resolution

PURPOSE:
  Maps a subscription plan to the weekdays it is serviced on and its tier
  flags. Plans are a closed enum decoded once at the boundary (API, store);
  nothing downstream inspects plan names.

CATALOGUE:
  twice_weekly                   Mon, Fri
  twice_weekly_premium           Mon, Fri   premium
  twice_weekly_artificial_grass  Mon, Fri   artificial grass
  once_weekly                    Wed (Mon with planDay "mon")
  once_weekly_premium            Wed (Mon with planDay "mon")   premium
  once_weekly_friday             Fri
  once_weekly_premium_friday     Fri        premium
  once_weekly_artificial_grass   Wed        artificial grass

SEE ALSO:
  - generic/cadence.go: occurrence generation for a resolved cadence
  - features.go: tier flags drive feature derivation
*/
package lawncare

import (
	"strings"

	"github.com/greenround/visit-engine/generic"
)

// Plan is a subscription plan. The zero value is PlanNone.
type Plan int

const (
	PlanNone Plan = iota
	PlanTwiceWeekly
	PlanTwiceWeeklyPremium
	PlanTwiceWeeklyArtificialGrass
	PlanOnceWeekly
	PlanOnceWeeklyPremium
	PlanOnceWeeklyFriday
	PlanOnceWeeklyPremiumFriday
	PlanOnceWeeklyArtificialGrass
)

// PlanDayMonday moves a once-weekly plan from Wednesday to Monday.
const PlanDayMonday = "mon"

type planSpec struct {
	id              string
	weekdays        []generic.Weekday
	premium         bool
	artificialGrass bool
	mondayMovable   bool
}

var planSpecs = map[Plan]planSpec{
	PlanTwiceWeekly:                {id: "twice_weekly", weekdays: []generic.Weekday{generic.Monday, generic.Friday}},
	PlanTwiceWeeklyPremium:         {id: "twice_weekly_premium", weekdays: []generic.Weekday{generic.Monday, generic.Friday}, premium: true},
	PlanTwiceWeeklyArtificialGrass: {id: "twice_weekly_artificial_grass", weekdays: []generic.Weekday{generic.Monday, generic.Friday}, artificialGrass: true},
	PlanOnceWeekly:                 {id: "once_weekly", weekdays: []generic.Weekday{generic.Wednesday}, mondayMovable: true},
	PlanOnceWeeklyPremium:          {id: "once_weekly_premium", weekdays: []generic.Weekday{generic.Wednesday}, premium: true, mondayMovable: true},
	PlanOnceWeeklyFriday:           {id: "once_weekly_friday", weekdays: []generic.Weekday{generic.Friday}},
	PlanOnceWeeklyPremiumFriday:    {id: "once_weekly_premium_friday", weekdays: []generic.Weekday{generic.Friday}, premium: true},
	PlanOnceWeeklyArtificialGrass:  {id: "once_weekly_artificial_grass", weekdays: []generic.Weekday{generic.Wednesday}, artificialGrass: true},
}

// AllPlans lists the catalogue in display order.
var AllPlans = []Plan{
	PlanTwiceWeekly,
	PlanTwiceWeeklyPremium,
	PlanTwiceWeeklyArtificialGrass,
	PlanOnceWeekly,
	PlanOnceWeeklyPremium,
	PlanOnceWeeklyFriday,
	PlanOnceWeeklyPremiumFriday,
	PlanOnceWeeklyArtificialGrass,
}

var plansByID = func() map[string]Plan {
	m := make(map[string]Plan, len(planSpecs))
	for p, s := range planSpecs {
		m[s.id] = p
	}
	return m
}()

func (p Plan) String() string {
	if s, ok := planSpecs[p]; ok {
		return s.id
	}
	return ""
}

// ParsePlan decodes a plan identifier. Matching is case-insensitive and
// treats spaces and hyphens as underscores, so "Twice Weekly Premium" works.
func ParsePlan(id string) (Plan, error) {
	norm := strings.ToLower(strings.TrimSpace(id))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if p, ok := plansByID[norm]; ok {
		return p, nil
	}
	return PlanNone, &UnknownPlanError{ID: id}
}

// PlanCadence is a resolved plan: its weekday rule and tier flags.
type PlanCadence struct {
	Plan            Plan
	Cadence         generic.Cadence
	Premium         bool
	ArtificialGrass bool
}

// TwiceWeekly reports whether the cadence visits more than once a week.
func (pc PlanCadence) TwiceWeekly() bool { return len(pc.Cadence.Weekdays) > 1 }

// Resolve maps a plan to its cadence. planDay "mon" moves once-weekly
// Wednesday plans to Monday; it is ignored for every other plan.
func Resolve(plan Plan, planDay string) (PlanCadence, error) {
	s, ok := planSpecs[plan]
	if !ok {
		return PlanCadence{}, &UnknownPlanError{ID: plan.String()}
	}
	days := s.weekdays
	if s.mondayMovable && strings.EqualFold(strings.TrimSpace(planDay), PlanDayMonday) {
		days = []generic.Weekday{generic.Monday}
	}
	return PlanCadence{
		Plan:            plan,
		Cadence:         generic.NewCadence(days...),
		Premium:         s.premium,
		ArtificialGrass: s.artificialGrass,
	}, nil
}
