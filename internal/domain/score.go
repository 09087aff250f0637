package domain

// CategoryStatus maps each tracked category to its worst nearby severity.
type CategoryStatus map[Category]Status

// StatusByCategory reduces nearby threats to a worst-case status per tracked
// category. Every tracked category is present, SAFE when nothing maps to it.
// OTHER threats and threats without a valid severity never change a status.
func StatusByCategory(nearby []ThreatRecord) CategoryStatus {
	status := make(CategoryStatus, len(TrackedCategories()))
	for _, c := range TrackedCategories() {
		status[c] = StatusSafe
	}

	for _, t := range nearby {
		cat := CategoryOf(t.Type)
		if !cat.Tracked() {
			continue
		}
		if s := StatusOf(t.Severity); s > status[cat] {
			status[cat] = s
		}
	}
	return status
}

const (
	maxRiskScore     = 100
	densityPerThreat = 5
	maxDensityScore  = 25
)

// baseScore is the contribution of the single worst nearby threat.
func baseScore(s Severity) int {
	switch s {
	case SeverityCritical:
		return 75
	case SeverityHigh:
		return 50
	case SeverityMedium:
		return 25
	case SeverityLow:
		return 10
	default:
		return 0
	}
}

// RiskScore combines the worst nearby severity with a capped density bonus
// into a score in [0, 100]. An empty set scores 0.
func RiskScore(nearby []ThreatRecord) int {
	if len(nearby) == 0 {
		return 0
	}

	base := 0
	for _, t := range nearby {
		if s := baseScore(t.Severity); s > base {
			base = s
		}
	}

	density := min(len(nearby)*densityPerThreat, maxDensityScore)
	return min(base+density, maxRiskScore)
}

// RiskLabel is the display band of a risk score.
type RiskLabel string

const (
	LabelNormal   RiskLabel = "NORMAL"
	LabelElevated RiskLabel = "ELEVATED"
	LabelHigh     RiskLabel = "HIGH"
	LabelCritical RiskLabel = "CRITICAL"
)

// ScoreLabel maps a score to its display band. The bands (80/50/25) sit above
// the base table (75/50/25/10) so a lone CRITICAL only reaches the CRITICAL
// band through its density bonus.
func ScoreLabel(score int) RiskLabel {
	switch {
	case score >= 80:
		return LabelCritical
	case score >= 50:
		return LabelHigh
	case score >= 25:
		return LabelElevated
	default:
		return LabelNormal
	}
}

// Rank orders labels from NORMAL (0) to CRITICAL (3).
func (l RiskLabel) Rank() int {
	switch l {
	case LabelCritical:
		return 3
	case LabelHigh:
		return 2
	case LabelElevated:
		return 1
	default:
		return 0
	}
}
