package rules

import (
	"errors"
	"fmt"

	"github.com/phiguard/phiguard/internal/model"
)

// ErrRegistry marks rule-registry configuration failures. A regulation
// the resolver can select but no rule covers is a deployment mistake,
// caught at startup rather than silently at evaluation time.
var ErrRegistry = errors.New("rules: registry misconfigured")

// Rule is a single deterministic compliance check scoped to one
// regulation. Evaluate must be pure: same resource in, same violations
// out, no retained state.
type Rule interface {
	ID() string
	Regulation() string
	Evaluate(resource map[string]any) []model.Violation
}

// citations maps regulation codes to the legal citation attached to
// violations and used for dispatch.
var citations = map[string]string{
	"GDPR":       "GDPR (EU) 2016/679",
	"UK_GDPR":    "UK Data Protection Act 2018 / UK GDPR Article 5",
	"HIPAA":      "HIPAA Privacy Rule",
	"DPDP":       "India DPDP Act 2023",
	"PIPEDA":     "Canada PIPEDA",
	"LGPD":       "Brazil LGPD",
	"APPI":       "Japan APPI",
	"POPIA":      "South Africa POPIA",
	"PDPL":       "UAE PDPL",
	"AU_PRIVACY": "Australia Privacy Act 1988",
}

// CitationFor returns the citation for a regulation code, or the code
// itself when no citation is registered.
func CitationFor(code string) string {
	if c, ok := citations[code]; ok {
		return c
	}
	return code
}

// Registry is the explicit startup-time mapping of regulation codes to
// their rule sets. It is built once and never mutated afterwards.
type Registry struct {
	rules map[string][]Rule
	order []string // registration order, so scans are deterministic
}

// NewRegistry builds the default registry covering every regulation
// the built-in snapshot knows.
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[string][]Rule)}

	r.add(newFreeTextIdentifierRule("GDPR"))
	r.add(newFreeTextIdentifierRule("UK_GDPR"))
	r.add(newFreeTextIdentifierRule("LGPD"))
	r.add(newFreeTextIdentifierRule("APPI"))
	r.add(newFreeTextIdentifierRule("POPIA"))
	r.add(newFreeTextIdentifierRule("PDPL"))
	r.add(newFreeTextIdentifierRule("AU_PRIVACY"))
	r.add(newHIPAAIdentifierRule())
	r.add(newHIPAAMRNExposureRule())
	r.add(newPIPEDAConsentRule())
	r.add(newDPDPDataPrincipalRule())

	return r
}

func (r *Registry) add(rule Rule) {
	code := rule.Regulation()
	if len(r.rules[code]) == 0 {
		r.order = append(r.order, code)
	}
	r.rules[code] = append(r.rules[code], rule)
}

// For returns the rule set registered for a regulation code.
func (r *Registry) For(code string) []Rule {
	return r.rules[code]
}

// Codes returns every regulation code with at least one rule, in
// registration order.
func (r *Registry) Codes() []string {
	return append([]string(nil), r.order...)
}

// Validate checks that every resolvable regulation code has a rule
// set. Called at engine construction with the snapshot's codes.
func (r *Registry) Validate(codes []string) error {
	for _, c := range codes {
		if len(r.rules[c]) == 0 {
			return fmt.Errorf("%w: no rules registered for regulation %s", ErrRegistry, c)
		}
	}
	return nil
}
