package monitor

import (
	"context"

	"github.com/couchcryptid/threatmap-service/internal/domain"
)

// Summarize returns a narrative for a location's nearby threats. Narrative
// failures degrade to a fixed text; only an unknown location is an error.
func (r *Registry) Summarize(ctx context.Context, id string) (string, error) {
	a, err := r.Assess(id)
	if err != nil {
		return "", err
	}
	if len(a.Nearby) == 0 {
		r.metrics.NarrativeRequests.WithLabelValues("summary", "skipped").Inc()
		return domain.NoThreatsSummary, nil
	}
	if r.deps.Narrator == nil {
		r.metrics.NarrativeRequests.WithLabelValues("summary", "skipped").Inc()
		return domain.SummaryUnavailable, nil
	}

	text, err := r.deps.Narrator.Summarize(ctx, a.Location, a.Nearby)
	if err != nil {
		r.metrics.NarrativeRequests.WithLabelValues("summary", "error").Inc()
		r.logger.Warn("summary generation failed", "location_id", id, "error", err)
		return domain.SummaryUnavailable, nil
	}
	r.metrics.NarrativeRequests.WithLabelValues("summary", "success").Inc()
	return text, nil
}

// AnalyzeRoute asks the narrator for the risk of travel between two monitored
// locations, considering every visible threat. Narrative failures yield the
// fixed fallback analysis.
func (r *Registry) AnalyzeRoute(ctx context.Context, originID, destinationID string) (domain.RouteAnalysis, error) {
	origin, err := r.Location(originID)
	if err != nil {
		return domain.RouteAnalysis{}, err
	}
	destination, err := r.Location(destinationID)
	if err != nil {
		return domain.RouteAnalysis{}, err
	}
	if r.deps.Narrator == nil {
		r.metrics.NarrativeRequests.WithLabelValues("route", "skipped").Inc()
		return domain.RouteFallback(r.clock.Now()), nil
	}

	analysis, err := r.deps.Narrator.AnalyzeRoute(ctx, origin, destination, r.VisibleThreats())
	if err != nil {
		r.metrics.NarrativeRequests.WithLabelValues("route", "error").Inc()
		r.logger.Warn("route analysis failed", "origin_id", originID, "destination_id", destinationID, "error", err)
		return domain.RouteFallback(r.clock.Now()), nil
	}
	r.metrics.NarrativeRequests.WithLabelValues("route", "success").Inc()
	return analysis, nil
}
