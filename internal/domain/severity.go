package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSeverity is returned when a severity string is not one of the four known levels.
var ErrUnknownSeverity = errors.New("unknown severity")

// Severity is the ordered intensity of a threat. The zero value is not a valid
// severity; it ranks below LOW and contributes nothing to scores or statuses.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
}

// Severities lists the valid severities in ascending order.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// ParseSeverity converts an upper- or lower-case severity name. Anything else
// is rejected rather than silently ranked as zero.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
	}
}

// Valid reports whether s is one of the four defined severities.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s Severity) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeverity, int(s))
	}
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("severity must be a string: %w", err)
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Status is the aggregated posture of a category: SAFE, or the worst severity
// observed among the nearby threats in it.
type Status int

// StatusSafe means no nearby threat maps to the category.
const StatusSafe Status = 0

// StatusOf lifts a severity into a category status.
func StatusOf(s Severity) Status {
	if !s.Valid() {
		return StatusSafe
	}
	return Status(s)
}

// Severity returns the underlying severity; the zero Severity for SAFE.
func (s Status) Severity() Severity {
	return Severity(s)
}

func (s Status) String() string {
	if s == StatusSafe {
		return "SAFE"
	}
	return Severity(s).String()
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	if strings.EqualFold(name, "SAFE") {
		*s = StatusSafe
		return nil
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = Status(sev)
	return nil
}
