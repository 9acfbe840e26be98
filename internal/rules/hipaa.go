package rules

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/phiguard/phiguard/internal/model"
)

// hipaaIdentifierRule flags medical record numbers appearing in
// clinical note text.
type hipaaIdentifierRule struct{}

func newHIPAAIdentifierRule() *hipaaIdentifierRule { return &hipaaIdentifierRule{} }

func (r *hipaaIdentifierRule) ID() string         { return "HIPAA/note-identifier" }
func (r *hipaaIdentifierRule) Regulation() string { return "HIPAA" }

func (r *hipaaIdentifierRule) Evaluate(resource map[string]any) []model.Violation {
	var out []model.Violation
	for _, text := range noteTexts(resource) {
		span := identifierPattern.FindString(text)
		if span == "" {
			continue
		}
		out = append(out, model.Violation{
			Type:            "HIPAA_IDENTIFIER",
			Severity:        model.SeverityMajor,
			Regulation:      "HIPAA",
			Citation:        CitationFor("HIPAA"),
			FieldPath:       notePath(resource),
			Description:     fmt.Sprintf("clinical note contains identifier %q in %q", span, snippet(text)),
			DetectionMethod: model.MethodRuleBased,
			Span:            span,
			RuleID:          r.ID(),
		})
	}
	return out
}

// mrnPattern matches an explicit MRN with a number anywhere in the
// serialized document, including structured fields the note scan
// cannot see.
var mrnPattern = regexp.MustCompile(`(?i)\bMRN\s*[:#]?\s*\d+`)

// hipaaMRNExposureRule scans the whole serialized resource. An MRN in
// any field of an outbound record is a critical exposure regardless of
// which field carries it.
type hipaaMRNExposureRule struct{}

func newHIPAAMRNExposureRule() *hipaaMRNExposureRule { return &hipaaMRNExposureRule{} }

func (r *hipaaMRNExposureRule) ID() string         { return "HIPAA/mrn-exposure" }
func (r *hipaaMRNExposureRule) Regulation() string { return "HIPAA" }

func (r *hipaaMRNExposureRule) Evaluate(resource map[string]any) []model.Violation {
	serialized, err := json.Marshal(resource)
	if err != nil {
		return nil
	}
	span := mrnPattern.FindString(string(serialized))
	if span == "" {
		return nil
	}
	return []model.Violation{{
		Type:            "MRN_EXPOSED",
		Severity:        model.SeverityCritical,
		Regulation:      "HIPAA",
		Citation:        CitationFor("HIPAA"),
		FieldPath:       "document",
		Description:     fmt.Sprintf("medical record number %q present in outbound document", span),
		DetectionMethod: model.MethodRuleBased,
		Span:            span,
		RuleID:          r.ID(),
	}}
}
