package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLocationNotFound is returned for an unknown monitored location ID.
	ErrLocationNotFound = errors.New("location not found")

	// ErrLocationLimit is returned when a guest exceeds the location quota.
	ErrLocationLimit = errors.New("location limit reached")
)

// Role is the caller's access level.
type Role string

const (
	RoleGuest  Role = "GUEST"
	RoleViewer Role = "VIEWER"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole maps a header value to a role. Empty means guest.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case "":
		return RoleGuest, nil
	case RoleGuest, RoleViewer, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}
