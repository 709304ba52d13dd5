/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes for the HTTP surface, kept apart from the lawncare types so
  the wire contract can evolve independently.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  Occurrence dates are rendered as "YYYY-MM-DD" in the service timezone.
  Override dates travel as Unix seconds of local midnight, the same value
  the stores persist; 0 means absent.

SEE ALSO:
  - handlers.go: Uses these types
  - lawncare/codec.go: persisted override form
*/
package api

import (
	"time"

	"github.com/greenround/visit-engine/generic"
	"github.com/greenround/visit-engine/lawncare"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// PlanDTO describes one catalogue entry.
type PlanDTO struct {
	ID              string   `json:"id"`
	Weekdays        []string `json:"weekdays"`
	Premium         bool     `json:"premium"`
	ArtificialGrass bool     `json:"artificial_grass"`
}

// SubscriptionDTO represents a subscription record in API responses.
type SubscriptionDTO struct {
	CustomerID string        `json:"customer_id"`
	Plan       string        `json:"plan"`
	PlanDay    string        `json:"plan_day,omitempty"`
	PlanStart  *time.Time    `json:"plan_start,omitempty"`
	Status     string        `json:"status"`
	Revision   int64         `json:"revision"`
	Overrides  []OverrideDTO `json:"overrides"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CreateSubscriptionRequest is the body for POST /api/subscriptions.
type CreateSubscriptionRequest struct {
	CustomerID string     `json:"customer_id"`
	Plan       string     `json:"plan"`
	PlanDay    string     `json:"plan_day,omitempty"`
	PlanStart  *time.Time `json:"plan_start,omitempty"`
	Status     string     `json:"status,omitempty"`
}

// OverrideDTO is one queue slot.
type OverrideDTO struct {
	Active             bool                 `json:"active"`
	EffectiveDate      int64                `json:"effective_date,omitempty"`
	OriginalDate       int64                `json:"original_date,omitempty"`
	Cancelled          bool                 `json:"cancelled,omitempty"`
	IconOverrideActive bool                 `json:"icon_override_active,omitempty"`
	CustomFeatures     *lawncare.FeatureSet `json:"custom_features,omitempty"`
}

// SetOverridesRequest is the body for PUT /api/subscriptions/{id}/overrides.
// Revision must be the revision the editor last read.
type SetOverridesRequest struct {
	Revision  int64         `json:"revision"`
	Overrides []OverrideDTO `json:"overrides"`
}

// OccurrenceDTO is one computed visit.
type OccurrenceDTO struct {
	Index    int                 `json:"index"`
	Date     string              `json:"date"`
	DateUnix int64               `json:"date_unix"`
	RawDate  string              `json:"raw_date"`
	Weekday  string              `json:"weekday"`
	State    string              `json:"override_state"`
	Features lawncare.FeatureSet `json:"features"`
}

// ScheduleDTO is the response for the next and schedule views.
type ScheduleDTO struct {
	CustomerID  string          `json:"customer_id"`
	Revision    int64           `json:"revision"`
	NoPlan      bool            `json:"no_plan"`
	Advanced    bool            `json:"advanced,omitempty"`
	Unsaved     bool            `json:"unsaved,omitempty"`
	Occurrences []OccurrenceDTO `json:"occurrences"`
}

// DuePickupDTO is one visit in the admin due-today list.
type DuePickupDTO struct {
	CustomerID string        `json:"customer_id"`
	Occurrence OccurrenceDTO `json:"occurrence"`
}

// DueTodayDTO wraps the admin list with the day it was computed for.
type DueTodayDTO struct {
	Date    string         `json:"date"`
	Pickups []DuePickupDTO `json:"pickups"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPlanDTO(p lawncare.Plan) PlanDTO {
	pc, _ := lawncare.Resolve(p, "")
	days := make([]string, len(pc.Cadence.Weekdays))
	for i, d := range pc.Cadence.Weekdays {
		days[i] = d.String()
	}
	return PlanDTO{
		ID:              p.String(),
		Weekdays:        days,
		Premium:         pc.Premium,
		ArtificialGrass: pc.ArtificialGrass,
	}
}

func toSubscriptionDTO(sub lawncare.Subscription) SubscriptionDTO {
	dto := SubscriptionDTO{
		CustomerID: sub.CustomerID,
		Plan:       sub.Plan.String(),
		PlanDay:    sub.PlanDay,
		Status:     string(sub.Status),
		Revision:   sub.Revision,
		Overrides:  make([]OverrideDTO, lawncare.QueueSize),
		UpdatedAt:  sub.UpdatedAt,
	}
	if !sub.PlanStart.IsZero() {
		start := sub.PlanStart
		dto.PlanStart = &start
	}
	for i, o := range sub.Overrides {
		r := o.Record()
		dto.Overrides[i] = OverrideDTO{
			Active:             r.Active,
			EffectiveDate:      r.EffectiveDate,
			OriginalDate:       r.OriginalDate,
			Cancelled:          r.Cancelled,
			IconOverrideActive: r.IconOverrideActive,
			CustomFeatures:     r.CustomFeatures,
		}
	}
	return dto
}

func (o OverrideDTO) toOverride(loc *time.Location) lawncare.Override {
	return lawncare.OverrideRecord{
		Active:             o.Active,
		EffectiveDate:      o.EffectiveDate,
		OriginalDate:       o.OriginalDate,
		Cancelled:          o.Cancelled,
		IconOverrideActive: o.IconOverrideActive,
		CustomFeatures:     o.CustomFeatures,
	}.Override(loc)
}

func toOccurrenceDTO(occ lawncare.Occurrence) OccurrenceDTO {
	return OccurrenceDTO{
		Index:    occ.Index,
		Date:     occ.Date.String(),
		DateUnix: occ.Date.Unix(),
		RawDate:  occ.RawDate.String(),
		Weekday:  weekdayOf(occ.Date),
		State:    occ.State.String(),
		Features: occ.Features,
	}
}

func toOccurrenceDTOs(occs []lawncare.Occurrence) []OccurrenceDTO {
	dtos := make([]OccurrenceDTO, len(occs))
	for i, occ := range occs {
		dtos[i] = toOccurrenceDTO(occ)
	}
	return dtos
}

func toScheduleDTO(s lawncare.Schedule) ScheduleDTO {
	return ScheduleDTO{
		CustomerID:  s.Subscription.CustomerID,
		Revision:    s.Subscription.Revision,
		NoPlan:      s.NoPlan,
		Advanced:    s.Advanced,
		Unsaved:     s.Unsaved,
		Occurrences: toOccurrenceDTOs(s.Occurrences),
	}
}

func weekdayOf(d generic.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Weekday().String()
}
