package lawncare

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/greenround/visit-engine/generic"
)

// OverrideRecord is the persisted form of an Override. Dates are Unix seconds
// of local midnight; zero means absent.
type OverrideRecord struct {
	Active             bool        `json:"active"`
	EffectiveDate      int64       `json:"effective_date,omitempty"`
	OriginalDate       int64       `json:"original_date,omitempty"`
	Cancelled          bool        `json:"cancelled,omitempty"`
	IconOverrideActive bool        `json:"icon_override_active,omitempty"`
	CustomFeatures     *FeatureSet `json:"custom_features,omitempty"`
}

// Record converts an Override to its persisted form.
func (o Override) Record() OverrideRecord {
	return OverrideRecord{
		Active:             o.Active,
		EffectiveDate:      o.EffectiveDate.Unix(),
		OriginalDate:       o.OriginalDate.Unix(),
		Cancelled:          o.Cancelled,
		IconOverrideActive: o.IconOverrideActive,
		CustomFeatures:     o.CustomFeatures,
	}
}

// Override decodes the record, reading dates as calendar days in loc.
func (r OverrideRecord) Override(loc *time.Location) Override {
	return Override{
		Active:             r.Active,
		EffectiveDate:      generic.DateFromUnix(r.EffectiveDate, loc),
		OriginalDate:       generic.DateFromUnix(r.OriginalDate, loc),
		Cancelled:          r.Cancelled,
		IconOverrideActive: r.IconOverrideActive,
		CustomFeatures:     r.CustomFeatures,
	}.Normalize()
}

// EncodeQueue serialises all six slots.
func EncodeQueue(q OverrideQueue) ([]byte, error) {
	records := make([]OverrideRecord, QueueSize)
	for i, o := range q {
		records[i] = o.Record()
	}
	return json.Marshal(records)
}

// DecodeQueue parses a persisted queue. Empty input is an empty queue; any
// other length than QueueSize is rejected.
func DecodeQueue(data []byte, loc *time.Location) (OverrideQueue, error) {
	var q OverrideQueue
	if len(data) == 0 {
		return q, nil
	}
	var records []OverrideRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return q, fmt.Errorf("decode override queue: %w", err)
	}
	if len(records) != QueueSize {
		return q, fmt.Errorf("decode override queue: expected %d slots, got %d", QueueSize, len(records))
	}
	for i, r := range records {
		q[i] = r.Override(loc)
	}
	return q, nil
}
