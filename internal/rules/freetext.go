package rules

import (
	"fmt"
	"regexp"

	"github.com/phiguard/phiguard/internal/model"
)

// identifierPattern matches bare patient identifiers in free text:
// "ID 123", "MRN: 456", "SSN #789" and casing variants.
var identifierPattern = regexp.MustCompile(`(?i)(id|mrn|ssn)\s*[:#]?\s*\d+`)

// freeTextIdentifierRule scans clinical note text for identifier
// leakage. The same check applies under several regulations; only the
// code and citation differ.
type freeTextIdentifierRule struct {
	regulation string
}

func newFreeTextIdentifierRule(regulation string) *freeTextIdentifierRule {
	return &freeTextIdentifierRule{regulation: regulation}
}

func (r *freeTextIdentifierRule) ID() string {
	return fmt.Sprintf("%s/free-text-identifier", r.regulation)
}

func (r *freeTextIdentifierRule) Regulation() string { return r.regulation }

func (r *freeTextIdentifierRule) Evaluate(resource map[string]any) []model.Violation {
	var out []model.Violation
	for _, text := range noteTexts(resource) {
		span := identifierPattern.FindString(text)
		if span == "" {
			continue
		}
		out = append(out, model.Violation{
			Type:            "FREE_TEXT_IDENTIFIER",
			Severity:        model.SeverityMajor,
			Regulation:      r.regulation,
			Citation:        CitationFor(r.regulation),
			FieldPath:       notePath(resource),
			Description:     fmt.Sprintf("free-text note contains patient identifier %q in %q", span, snippet(text)),
			DetectionMethod: model.MethodRuleBased,
			Span:            span,
			RuleID:          r.ID(),
		})
	}
	return out
}

// snippet bounds a note excerpt for violation descriptions. The
// excerpt is what the allowlist matches safe terms against, so it must
// carry the surrounding context, not just the identifier.
func snippet(text string) string {
	const max = 120
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

// noteTexts extracts note.text entries from a FHIR-shaped resource.
// Anything that is not the expected shape is skipped, not an error.
func noteTexts(resource map[string]any) []string {
	notes, ok := resource["note"].([]any)
	if !ok {
		return nil
	}
	var texts []string
	for _, n := range notes {
		entry, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := entry["text"].(string); ok && text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// notePath returns the dotted field path for the resource's notes.
func notePath(resource map[string]any) string {
	rt, _ := resource["resourceType"].(string)
	if rt == "" {
		rt = "Resource"
	}
	return rt + ".note"
}

// resourceType returns the FHIR resourceType, or "" when absent.
func resourceType(resource map[string]any) string {
	rt, _ := resource["resourceType"].(string)
	return rt
}

// consentObtained reports whether meta.consent_status records obtained
// consent.
func consentObtained(resource map[string]any) bool {
	meta, ok := resource["meta"].(map[string]any)
	if !ok {
		return false
	}
	status, _ := meta["consent_status"].(string)
	return status == "obtained"
}
