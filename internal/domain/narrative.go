package domain

import (
	"context"
	"time"
)

// Fixed texts returned when the narrative service has nothing to add or fails.
const (
	NoThreatsSummary    = "No active threats detected in this area at this time."
	SummaryUnavailable  = "Error contacting intelligence service."
	RouteFallbackText   = "Could not analyze route risks due to service error."
	RouteFallbackAdvice = "Proceed with standard caution."
)

// RouteAnalysis is the narrative risk assessment of travel between two locations.
type RouteAnalysis struct {
	RiskLevel    Severity  `json:"riskLevel"`
	Summary      string    `json:"summary"`
	Alternatives string    `json:"alternatives"`
	Timestamp    time.Time `json:"timestamp"`
}

// RouteFallback is the analysis reported when the narrative service fails.
func RouteFallback(now time.Time) RouteAnalysis {
	return RouteAnalysis{
		RiskLevel:    SeverityLow,
		Summary:      RouteFallbackText,
		Alternatives: RouteFallbackAdvice,
		Timestamp:    now,
	}
}

// Narrator produces human-readable narratives. It is advisory only and never
// feeds back into scores.
type Narrator interface {
	Summarize(ctx context.Context, loc MonitoredLocation, nearby []ThreatRecord) (string, error)
	AnalyzeRoute(ctx context.Context, origin, destination MonitoredLocation, threats []ThreatRecord) (RouteAnalysis, error)
}
