package controls

import (
	"strings"

	"github.com/phiguard/phiguard/internal/model"
)

// Predicate is a named false-positive check. Predicates are pure
// functions of a single violation: suppressing one finding never
// changes the verdict on another.
type Predicate struct {
	Name  string
	Match func(model.Violation) bool
}

// syntheticMarkers flag records produced by test harnesses and
// synthetic-data generators.
var syntheticMarkers = []string{"TEST", "DUMMY", "SYNTHETIC", "SAMPLE"}

// DefaultPredicates returns the built-in false-positive registry.
func DefaultPredicates() []Predicate {
	return []Predicate{
		{
			Name: "synthetic-test-marker",
			Match: func(v model.Violation) bool {
				upper := strings.ToUpper(v.Description)
				for _, m := range syntheticMarkers {
					if strings.Contains(upper, m) {
						return true
					}
				}
				return false
			},
		},
		{
			// Low-severity device identifiers from probabilistic
			// detectors are overwhelmingly equipment serials, not PHI.
			// Rule-based findings are exempt.
			Name: "device-id-noise",
			Match: func(v model.Violation) bool {
				return v.Severity == model.SeverityMinor &&
					v.Probabilistic() &&
					strings.Contains(strings.ToUpper(v.Type), "DEVICE")
			},
		},
	}
}
