package lawncare

import (
	"time"

	"github.com/greenround/visit-engine/generic"
)

// FeatureSet is the supplemental treatments applied on one visit.
type FeatureSet struct {
	SoilNeutraliser      bool `json:"soil_neutraliser"`
	Fertiliser           bool `json:"fertiliser"`
	Overseed             bool `json:"overseed"`
	Aeration             bool `json:"aeration"`
	Repair               bool `json:"repair"`
	ArtificialGrassClean bool `json:"artificial_grass_clean"`
	IsPremium            bool `json:"is_premium"`
	IsArtificialGrass    bool `json:"is_artificial_grass"`
}

// Months in which fertiliser (and with it overseed and aeration) is skipped.
var fertiliserExcludedMonths = map[time.Month]bool{
	time.January:  true,
	time.February: true,
	time.June:     true,
	time.July:     true,
	time.August:   true,
}

// Months in which a fertiliser visit also gets aeration.
var aerationMonths = map[time.Month]bool{
	time.March:     true,
	time.April:     true,
	time.May:       true,
	time.September: true,
	time.October:   true,
	time.November:  true,
}

// WeeksSinceStart counts whole 7-day periods between the plan start day and
// on. Elapsed calendar days, not ISO weeks.
func WeeksSinceStart(planStart time.Time, on generic.Date) int {
	start := generic.DateOf(planStart.In(on.Location()))
	return generic.FloorDiv(generic.DaysBetween(start, on), 7)
}

// Derive computes the treatments for a visit on the given date. Pure: the same
// inputs always give the same set.
func Derive(pc PlanCadence, planStart time.Time, on generic.Date) FeatureSet {
	fs := FeatureSet{
		IsPremium:         pc.Premium,
		IsArtificialGrass: pc.ArtificialGrass,
	}

	if pc.ArtificialGrass {
		fs.ArtificialGrassClean = !pc.TwiceWeekly() || on.Weekday() == generic.Monday
	}

	if !pc.Premium || planStart.IsZero() {
		return fs
	}

	weeks := WeeksSinceStart(planStart, on)
	month := on.Month()

	fs.SoilNeutraliser = mod(weeks, 4) == 0
	fs.Fertiliser = mod(weeks, 8) == 0 && !fertiliserExcludedMonths[month]
	fs.Overseed = fs.Fertiliser
	fs.Aeration = fs.Fertiliser && aerationMonths[month]
	fs.Repair = mod(weeks, 2) == 0
	return fs
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
