package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/threatmap-service/internal/domain"
)

// ThreatTransformer implements Transformer by decoding normalized threat records.
type ThreatTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a ThreatTransformer.
func NewTransformer(logger *slog.Logger) *ThreatTransformer {
	return &ThreatTransformer{logger: logger}
}

func (t *ThreatTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.ThreatRecord, error) {
	rec, err := domain.ParseThreatRecord(raw)
	if err != nil {
		return domain.ThreatRecord{}, err
	}
	if rec.Type != domain.ThreatOther && domain.CategoryOf(rec.Type) == domain.CategoryOther {
		t.logger.Debug("unrecognized threat type, classified as other",
			"threat_id", rec.ID, "type", rec.Type)
	}
	return rec, nil
}
