package controls

import "strings"

// defaultSafeTerms are description fragments that mark a finding as a
// known-benign operational identifier rather than PHI. Matching is
// case-insensitive substring.
var defaultSafeTerms = []string{
	"protocol id",
	"page",
	"room",
	"bed number",
	"study arm",
}

// Allowlist suppresses findings whose description mentions a safe
// term. The term set is fixed at construction — suppression behavior
// never changes mid-run.
type Allowlist struct {
	terms []string
}

// NewAllowlist builds an allowlist from the given terms. Empty input
// falls back to the built-in safe-term set.
func NewAllowlist(terms []string) *Allowlist {
	if len(terms) == 0 {
		terms = defaultSafeTerms
	}
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return &Allowlist{terms: lowered}
}

// Match returns the safe term that suppresses the description, if any.
func (a *Allowlist) Match(description string) (string, bool) {
	lower := strings.ToLower(description)
	for _, t := range a.terms {
		if strings.Contains(lower, t) {
			return t, true
		}
	}
	return "", false
}
