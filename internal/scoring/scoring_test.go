package scoring

import (
	"testing"

	"github.com/phiguard/phiguard/internal/model"
)

func TestComponentRuleBasedIgnoresConfidence(t *testing.T) {
	v := model.Violation{
		Type:            "MRN_EXPOSED",
		Severity:        model.SeverityCritical,
		Regulation:      "HIPAA",
		DetectionMethod: model.MethodRuleBased,
		Confidence:      model.Conf(0.1), // must be ignored
	}
	c, err := Component(v, AdditiveWeights)
	if err != nil {
		t.Fatal(err)
	}
	if c.WeightedScore != 5.0 {
		t.Errorf("weighted = %v, want full 5.0", c.WeightedScore)
	}
	if c.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 for rule-based", c.Confidence)
	}
}

func TestComponentProbabilisticScaled(t *testing.T) {
	tests := []struct {
		name     string
		severity model.Severity
		conf     *float64
		want     float64
	}{
		{"major_scaled", model.SeverityMajor, model.Conf(0.85), 1.7},
		{"minor_scaled", model.SeverityMinor, model.Conf(0.5), 0.25},
		{"missing_confidence_full", model.SeverityMajor, nil, 2.0},
		{"rounded_two_decimals", model.SeverityCritical, model.Conf(0.333), 1.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := model.Violation{
				Type:            "X",
				Severity:        tt.severity,
				DetectionMethod: model.MethodMLPrimary,
				Confidence:      tt.conf,
			}
			c, err := Component(v, AdditiveWeights)
			if err != nil {
				t.Fatal(err)
			}
			if c.WeightedScore != tt.want {
				t.Errorf("weighted = %v, want %v", c.WeightedScore, tt.want)
			}
		})
	}
}

func TestComponentExplanation(t *testing.T) {
	v := model.Violation{
		Type:            "MRN_EXPOSED",
		Severity:        model.SeverityCritical,
		Regulation:      "HIPAA",
		Citation:        "HIPAA Privacy Rule 45 CFR 164.514",
		FieldPath:       "Observation.note",
		DetectionMethod: model.MethodRuleBased,
	}
	c, err := Component(v, AdditiveWeights)
	if err != nil {
		t.Fatal(err)
	}
	want := "HIPAA violation (HIPAA Privacy Rule 45 CFR 164.514) at Observation.note"
	if c.Explanation != want {
		t.Errorf("explanation = %q, want %q", c.Explanation, want)
	}
}

func TestComponentUnknownSeverity(t *testing.T) {
	v := model.Violation{Type: "X", Severity: "SEVERE", DetectionMethod: model.MethodRuleBased}
	if _, err := Component(v, AdditiveWeights); err == nil {
		t.Fatal("unknown severity must error, never default")
	}
}

func TestComponentNegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("negative weighted score must panic")
		}
	}()
	v := model.Violation{
		Type:            "X",
		Severity:        model.SeverityMajor,
		DetectionMethod: model.MethodMLPrimary,
		Confidence:      model.Conf(-1),
	}
	_, _ = Component(v, AdditiveWeights)
}

func TestTotalDeterministicBreakdown(t *testing.T) {
	vs := []model.Violation{
		{Type: "B_TYPE", Severity: model.SeverityMajor, Regulation: "HIPAA", DetectionMethod: model.MethodRuleBased},
		{Type: "A_TYPE", Severity: model.SeverityMinor, Regulation: "GDPR", DetectionMethod: model.MethodRuleBased},
		{Type: "A_TYPE", Severity: model.SeverityCritical, Regulation: "HIPAA", DetectionMethod: model.MethodRuleBased},
	}
	comps, err := Components(vs, AdditiveWeights)
	if err != nil {
		t.Fatal(err)
	}
	total, breakdown := Total(comps)
	if total != 7.5 {
		t.Errorf("total = %v, want 7.5", total)
	}
	wantOrder := []struct{ reg, vtype string }{
		{"GDPR", "A_TYPE"}, {"HIPAA", "A_TYPE"}, {"HIPAA", "B_TYPE"},
	}
	for i, w := range wantOrder {
		if breakdown[i].Regulation != w.reg || breakdown[i].ViolationType != w.vtype {
			t.Errorf("breakdown[%d] = %s/%s, want %s/%s",
				i, breakdown[i].Regulation, breakdown[i].ViolationType, w.reg, w.vtype)
		}
	}
}

func TestMax(t *testing.T) {
	comps := []model.RiskComponent{
		{WeightedScore: 0.14}, {WeightedScore: 0.7}, {WeightedScore: 0.2},
	}
	if got := Max(comps); got != 0.7 {
		t.Errorf("max = %v, want 0.7", got)
	}
	if got := Max(nil); got != 0 {
		t.Errorf("empty max = %v, want 0", got)
	}
}

func TestWeightTablesAreTotal(t *testing.T) {
	for _, table := range []WeightTable{AdditiveWeights, TriageWeights} {
		for _, s := range []model.Severity{model.SeverityCritical, model.SeverityMajor, model.SeverityMinor} {
			if _, err := table.WeightFor(s); err != nil {
				t.Errorf("severity %s missing from table", s)
			}
		}
	}
}
