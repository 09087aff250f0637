package httpadapter

import (
	"context"
	"errors"
	"fmt"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// Checks combines named readiness checks; the service is ready only when all
// of them pass.
type Checks map[string]sharedobs.ReadinessChecker

func (c Checks) CheckReadiness(ctx context.Context) error {
	var errs []error
	for name, check := range c {
		if err := check.CheckReadiness(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
