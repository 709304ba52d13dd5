package lawncare

import (
	"sort"
	"time"

	"github.com/greenround/visit-engine/generic"
)

// DuePickup is one visit scheduled for today.
type DuePickup struct {
	CustomerID string
	Occurrence Occurrence
}

// AdminDuePickupsToday lists every merged occurrence, across the six-visit
// window of each serviceable subscription, that falls on now's calendar day.
// Subscriptions without a plan are skipped. Result is ordered by customer ID
// then occurrence index.
func AdminDuePickupsToday(subs []Subscription, now time.Time) []DuePickup {
	today := generic.DateOf(now)
	var due []DuePickup
	for _, sub := range subs {
		if !sub.Status.Serviceable() {
			continue
		}
		occurrences, err := NextSixOccurrences(sub, now)
		if err != nil {
			continue
		}
		due = append(due, dueOn(sub.CustomerID, occurrences, today)...)
	}
	sortDue(due)
	return due
}

func dueOn(customerID string, occurrences []Occurrence, today generic.Date) []DuePickup {
	var due []DuePickup
	for _, occ := range occurrences {
		if occ.Date.Equal(today) {
			due = append(due, DuePickup{CustomerID: customerID, Occurrence: occ})
		}
	}
	return due
}

func sortDue(due []DuePickup) {
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].CustomerID != due[j].CustomerID {
			return due[i].CustomerID < due[j].CustomerID
		}
		return due[i].Occurrence.Index < due[j].Occurrence.Index
	})
}
