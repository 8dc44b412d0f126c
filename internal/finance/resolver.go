// Package finance implements the cost/contribution/profit aggregation core:
// resolving spreadsheet property names to upstream projects, classifying
// ledger movements, and reducing them to the three figures the mobile app
// shows. Every operation degrades to a zero/empty result on upstream
// failure; callers never see an error from this package.
package finance

import (
	"log/slog"

	"aporte/internal/core"
	"aporte/internal/ledger"
)

// ResolveProject maps a property name to the upstream project with the same
// normalized name. Exact equality after normalization, first match wins.
// A miss is a normal outcome, not an error.
func ResolveProject(propertyName string, projects []ledger.Project, logger *slog.Logger) (ledger.Project, bool) {
	want := core.NormalizeName(propertyName)
	if want == "" {
		return ledger.Project{}, false
	}

	found := false
	var match ledger.Project
	for _, p := range projects {
		if core.NormalizeName(p.Name) != want {
			continue
		}
		if !found {
			match = p
			found = true
			continue
		}
		// Well-formed data has no duplicates; keep the first, flag the rest.
		if logger != nil {
			logger.Warn("duplicate upstream project name",
				"property", propertyName,
				"kept_code", match.Code.String(),
				"duplicate_code", p.Code.String())
		}
	}
	return match, found
}
