package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseThreatRecord decodes a normalized threat record from a raw message.
// The ID, a known severity and in-range coordinates are required. The type is
// upper-cased and a missing one becomes OTHER and a missing timestamp falls back to the message time.
func ParseThreatRecord(raw RawEvent) (ThreatRecord, error) {
	var rec ThreatRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return ThreatRecord{}, fmt.Errorf("parse threat record: %w", err)
	}

	rec.ID = strings.TrimSpace(rec.ID)
	if rec.ID == "" {
		return ThreatRecord{}, ErrMissingThreatID
	}
	if !rec.Severity.Valid() {
		return ThreatRecord{}, fmt.Errorf("parse threat record %s: %w: missing", rec.ID, ErrUnknownSeverity)
	}
	if !finite(rec.Latitude) || rec.Latitude < -90 || rec.Latitude > 90 ||
		!finite(rec.Longitude) || rec.Longitude < -180 || rec.Longitude > 180 {
		return ThreatRecord{}, fmt.Errorf("parse threat record %s: coordinates (%v, %v) out of range", rec.ID, rec.Latitude, rec.Longitude)
	}
	rec.Type = ThreatType(strings.ToUpper(strings.TrimSpace(string(rec.Type))))
	if rec.Type == "" {
		rec.Type = ThreatOther
	}
	if rec.Timestamp == 0 {
		ts := raw.Timestamp
		if ts.IsZero() {
			ts = clock.Now()
		}
		rec.Timestamp = ts.UnixMilli()
	}
	return rec, nil
}

// AssessmentEvent is the record published for each re-evaluated location.
type AssessmentEvent struct {
	LocationID     string         `json:"locationId"`
	LocationName   string         `json:"locationName"`
	Score          int            `json:"score"`
	Label          RiskLabel      `json:"scoreLabel"`
	PreviousLabel  RiskLabel      `json:"previousLabel,omitempty"`
	CategoryStatus CategoryStatus `json:"categoryStatus"`
	NearbyIDs      []string       `json:"nearbyThreatIds"`
	EvaluatedAt    time.Time      `json:"evaluatedAt"`
}

// NewAssessmentEvent flattens an assessment for publication.
func NewAssessmentEvent(a Assessment, previous RiskLabel, at time.Time) AssessmentEvent {
	ids := make([]string, 0, len(a.Nearby))
	for _, t := range a.Nearby {
		ids = append(ids, t.ID)
	}
	return AssessmentEvent{
		LocationID:     a.Location.ID,
		LocationName:   a.Location.Name,
		Score:          a.Score,
		Label:          a.Label,
		PreviousLabel:  previous,
		CategoryStatus: a.CategoryStatus,
		NearbyIDs:      ids,
		EvaluatedAt:    at.UTC(),
	}
}

// Escalated reports whether the label rose into HIGH or CRITICAL.
func (e AssessmentEvent) Escalated() bool {
	return e.Label.Rank() > e.PreviousLabel.Rank() && e.Label.Rank() >= LabelHigh.Rank()
}
