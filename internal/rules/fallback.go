package rules

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/phiguard/phiguard/internal/model"
)

// patientIDPattern is the loose fallback match for explicit patient
// identifiers in serialized documents. Deliberately narrower than
// identifierPattern: the fallback is a safety net against rule gaps,
// not a second detector, so it only fires on unambiguous leakage.
var patientIDPattern = regexp.MustCompile(`Patient ID\s+\d+`)

// fallbackScan runs only when the governing regime's full rule set
// produced zero violations. It scans the canonically serialized
// resource for identifier leakage under the governing regulation
// alone: the safety net answers for the regime that decides the
// transfer, not for every regulation that merely applies. Kept apart
// from the rule registry so loose matching never leaks into the
// deterministic rule path.
func fallbackScan(governing string, resource map[string]any) []model.Violation {
	serialized, err := json.Marshal(resource)
	if err != nil {
		return nil
	}
	doc := string(serialized)

	switch governing {
	case "UK_GDPR":
		if span := patientIDPattern.FindString(doc); span != "" {
			return []model.Violation{fallbackViolation(governing, "UK_NHS_NUMBER", model.SeverityMajor, span,
				fmt.Sprintf("serialized document contains %q", span))}
		}
	case "GDPR":
		if span := patientIDPattern.FindString(doc); span != "" {
			return []model.Violation{fallbackViolation(governing, "GDPR_IDENTIFIER", model.SeverityMajor, span,
				fmt.Sprintf("serialized document contains %q", span))}
		}
	case "PIPEDA":
		if consentObtained(resource) {
			return nil
		}
		if span := patientIDPattern.FindString(doc); span != "" {
			return []model.Violation{fallbackViolation(governing, "UNCONSENTED_IDENTIFIER", model.SeverityMajor, span,
				fmt.Sprintf("identifier %q disclosed without documented consent", span))}
		}
	case "DPDP":
		if resourceType(resource) == "Patient" && !consentObtained(resource) {
			return []model.Violation{fallbackViolation(governing, "DPDP_CONSENT_MISSING", model.SeverityMinor, "",
				"Patient resource transferred without data principal consent record")}
		}
	}
	return nil
}

func fallbackViolation(code, vtype string, sev model.Severity, span, desc string) model.Violation {
	return model.Violation{
		Type:            vtype,
		Severity:        sev,
		Regulation:      code,
		Citation:        CitationFor(code),
		FieldPath:       "document",
		Description:     desc,
		DetectionMethod: model.MethodRuleBased,
		Span:            span,
		RuleID:          "fallback/" + code,
	}
}
