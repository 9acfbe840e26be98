package rules

import (
	"fmt"

	"github.com/phiguard/phiguard/internal/model"
)

// pipedaConsentRule flags free-text identifiers in records lacking
// documented consent. PIPEDA permits identifier disclosure when
// consent has been obtained, so obtained consent exempts the record
// entirely.
type pipedaConsentRule struct{}

func newPIPEDAConsentRule() *pipedaConsentRule { return &pipedaConsentRule{} }

func (r *pipedaConsentRule) ID() string         { return "PIPEDA/unconsented-identifier" }
func (r *pipedaConsentRule) Regulation() string { return "PIPEDA" }

func (r *pipedaConsentRule) Evaluate(resource map[string]any) []model.Violation {
	if consentObtained(resource) {
		return nil
	}
	var out []model.Violation
	for _, text := range noteTexts(resource) {
		span := identifierPattern.FindString(text)
		if span == "" {
			continue
		}
		out = append(out, model.Violation{
			Type:            "UNCONSENTED_IDENTIFIER",
			Severity:        model.SeverityMajor,
			Regulation:      "PIPEDA",
			Citation:        CitationFor("PIPEDA"),
			FieldPath:       notePath(resource),
			Description:     fmt.Sprintf("identifier %q disclosed without documented consent in %q", span, snippet(text)),
			DetectionMethod: model.MethodRuleBased,
			Span:            span,
			RuleID:          r.ID(),
		})
	}
	return out
}

// dpdpDataPrincipalRule flags Patient resources transferred without
// recorded data-principal consent.
type dpdpDataPrincipalRule struct{}

func newDPDPDataPrincipalRule() *dpdpDataPrincipalRule { return &dpdpDataPrincipalRule{} }

func (r *dpdpDataPrincipalRule) ID() string         { return "DPDP/data-principal-consent" }
func (r *dpdpDataPrincipalRule) Regulation() string { return "DPDP" }

func (r *dpdpDataPrincipalRule) Evaluate(resource map[string]any) []model.Violation {
	if resourceType(resource) != "Patient" {
		return nil
	}
	if consentObtained(resource) {
		return nil
	}
	return []model.Violation{{
		Type:            "DPDP_CONSENT_MISSING",
		Severity:        model.SeverityMinor,
		Regulation:      "DPDP",
		Citation:        CitationFor("DPDP"),
		FieldPath:       "Patient",
		Description:     "Patient resource transferred without data principal consent record",
		DetectionMethod: model.MethodRuleBased,
		RuleID:          r.ID(),
	}}
}
