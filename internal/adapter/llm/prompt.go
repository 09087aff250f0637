package llm

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/threatmap-service/internal/domain"
)

func summaryPrompt(loc domain.MonitoredLocation, nearby []domain.ThreatRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a Global Threat Intelligence Analyst.\n")
	fmt.Fprintf(&b, "Analyze the following threat data for the location %q (Lat: %g, Lon: %g).\n\n",
		loc.Name, loc.Latitude, loc.Longitude)
	b.WriteString("Threat Data:\n")
	for _, t := range nearby {
		fmt.Fprintf(&b, "- [%s] (%s) %s: %s (Source: %s)\n", t.Type, t.Severity, t.Title, t.Description, t.Source)
	}
	b.WriteString(`
Instructions:
1. Summarize the situation in under 150 words.
2. Group threats by type.
3. Highlight critical/high severity items first.
4. Provide specific advice for the user based on the threat type.
5. Be factual, clear, and non-alarmist.

Output Format: Plain text, formatted with clear paragraphs.
`)
	return b.String()
}

func routePrompt(origin, destination domain.MonitoredLocation, threats []domain.ThreatRecord) string {
	ctx := make([]string, 0, len(threats))
	for _, t := range threats {
		ctx = append(ctx, fmt.Sprintf("%s (%s) at %g,%g", t.Title, t.Severity, t.Latitude, t.Longitude))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the risk of traveling between %s (%g, %g) and %s (%g, %g).\n\n",
		origin.Name, origin.Latitude, origin.Longitude,
		destination.Name, destination.Latitude, destination.Longitude)
	fmt.Fprintf(&b, "Known Global Threats:\n%s\n", strings.Join(ctx, "; "))
	b.WriteString(`
1. Determine the overall Risk Level (LOW, MEDIUM, HIGH, CRITICAL) based on threats near the direct path.
2. Write a summary of the risks along the route.
3. Suggest alternative routes or modes of travel if risks are high.

Return JSON with the string fields "riskLevel", "summary" and "alternatives".
`)
	return b.String()
}
