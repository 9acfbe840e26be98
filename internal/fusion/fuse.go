// Package fusion merges deterministic rule findings with probabilistic
// detector findings into one violation list.
package fusion

import "github.com/phiguard/phiguard/internal/model"

// Fuse combines rule and detector findings, rule-dominant: when both
// report the same (regulation, field_path, violation_type), the rule
// finding wins and the detector duplicate is dropped. Rule findings
// keep their order and always precede surviving detector findings.
func Fuse(ruleFindings, detectorFindings []model.Violation) []model.Violation {
	out := make([]model.Violation, 0, len(ruleFindings)+len(detectorFindings))
	seen := make(map[string]bool, len(ruleFindings))

	for _, v := range ruleFindings {
		key := v.FusionKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	for _, v := range detectorFindings {
		key := v.FusionKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
