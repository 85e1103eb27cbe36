package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/coastalsim/windsurf/internal/config"
	"github.com/coastalsim/windsurf/internal/ctxlog"
)

// Validate performs the parity check between the configuration and the
// cores compiled into the binary: every configured engine must have a
// registered factory. All mismatches are reported at once.
func (r *Registry) Validate(ctx context.Context, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for name, def := range model.Models {
		if _, ok := r.engines[def.Engine]; !ok {
			errs = append(errs, fmt.Sprintf(
				"models.%s: engine '%s' is not compiled into this binary (available: %v)",
				name, def.Engine, r.Engines()))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", "engines", r.Engines())
	return nil
}
