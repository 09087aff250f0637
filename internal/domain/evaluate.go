package domain

// Assessment is one consistent snapshot of a location's risk posture.
type Assessment struct {
	Location       MonitoredLocation `json:"location"`
	Nearby         []ThreatRecord    `json:"nearby"`
	CategoryStatus CategoryStatus    `json:"categoryStatus"`
	Score          int               `json:"score"`
	Label          RiskLabel         `json:"scoreLabel"`
}

// Evaluate filters threats to the location's catchment and derives category
// statuses, the risk score and its label from that single nearby set.
func Evaluate(loc MonitoredLocation, threats []ThreatRecord) (Assessment, error) {
	if err := loc.Validate(); err != nil {
		return Assessment{}, err
	}

	nearby := Nearby(loc, threats)
	score := RiskScore(nearby)

	return Assessment{
		Location:       loc,
		Nearby:         nearby,
		CategoryStatus: StatusByCategory(nearby),
		Score:          score,
		Label:          ScoreLabel(score),
	}, nil
}
