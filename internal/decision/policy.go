// Package decision turns a cleaned violation list into a terminal
// compliance outcome under a named policy.
package decision

import (
	"github.com/phiguard/phiguard/internal/model"
)

// Policy names.
const (
	PolicyAdditive = "additive"
	PolicyTriage   = "triage"
)

// Policy is a decision strategy. Implementations are pure: the same
// violation list always yields the same decision. The two built-in
// policies use different weight tables and threshold semantics and are
// never mixed within one pipeline instance.
type Policy interface {
	Name() string
	Decide(violations []model.Violation) (model.ComplianceDecision, error)
}

// ByName returns the named built-in policy with default thresholds.
func ByName(name string) (Policy, bool) {
	switch name {
	case PolicyAdditive, "":
		return NewAdditivePolicy(DefaultAdditiveThresholds()), true
	case PolicyTriage:
		return NewTriagePolicy(DefaultTriageThresholds()), true
	}
	return nil, false
}
