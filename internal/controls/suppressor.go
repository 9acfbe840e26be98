package controls

import (
	"fmt"

	"github.com/phiguard/phiguard/internal/model"
)

// Suppressor combines the allowlist and the false-positive registry.
// It is immutable after construction and applied identically wherever
// violations are cleaned.
type Suppressor struct {
	allowlist  *Allowlist
	predicates []Predicate
}

// NewSuppressor builds a suppressor. Nil arguments select the built-in
// defaults.
func NewSuppressor(allow *Allowlist, predicates []Predicate) *Suppressor {
	if allow == nil {
		allow = NewAllowlist(nil)
	}
	if predicates == nil {
		predicates = DefaultPredicates()
	}
	return &Suppressor{allowlist: allow, predicates: predicates}
}

// Suppressed reports whether the violation should be dropped, and why.
func (s *Suppressor) Suppressed(v model.Violation) (string, bool) {
	if term, ok := s.allowlist.Match(v.Description); ok {
		return fmt.Sprintf("allowlist term %q", term), true
	}
	for _, p := range s.predicates {
		if p.Match(v) {
			return fmt.Sprintf("false-positive predicate %q", p.Name), true
		}
	}
	return "", false
}

// Explained pairs a violation with its suppression outcome so external
// consumers can see what was dropped and why, not just what survived.
type Explained struct {
	Violation  model.Violation `json:"violation"`
	Suppressed bool            `json:"suppressed"`
	Reason     string          `json:"reason,omitempty"`
}

// Explain reports the suppression outcome for every violation,
// preserving input order.
func (s *Suppressor) Explain(violations []model.Violation) []Explained {
	out := make([]Explained, 0, len(violations))
	for _, v := range violations {
		reason, drop := s.Suppressed(v)
		out = append(out, Explained{Violation: v, Suppressed: drop, Reason: reason})
	}
	return out
}

// Filter returns the violations that survive suppression, preserving
// input order.
func (s *Suppressor) Filter(violations []model.Violation) []model.Violation {
	kept := make([]model.Violation, 0, len(violations))
	for _, v := range violations {
		if _, drop := s.Suppressed(v); !drop {
			kept = append(kept, v)
		}
	}
	return kept
}
