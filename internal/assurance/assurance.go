// Package assurance produces negative assertions: explicit statements
// that a sensitive-data category was scanned for and not found.
package assurance

import (
	"sort"
	"strings"

	"github.com/phiguard/phiguard/internal/model"
)

// Category is one sensitive-data class in the fixed taxonomy.
type Category struct {
	Name     string
	Keywords []string
}

// taxonomy is the closed category set. Keyword matching is
// case-insensitive substring over description and field path.
var taxonomy = []Category{
	{Name: "Biometric Identifiers", Keywords: []string{"fingerprint", "retina", "iris", "facial"}},
	{Name: "Genetic Data", Keywords: []string{"dna", "genome", "genetic"}},
	{Name: "National Identifiers", Keywords: []string{"ssn", "passport", "national_id"}},
	{Name: "Financial Account Numbers", Keywords: []string{"bank_account", "credit_card"}},
}

// coverage records which detectors can see each category. An
// assertion is only as strong as the detectors behind it, so a
// category none of the executed detectors covers yields no assertion
// at all.
var coverage = map[string]map[string]bool{
	"Biometric Identifiers": {
		model.MethodRuleBased: true,
		model.MethodMLPrimary: true,
	},
	"Genetic Data": {
		model.MethodRuleBased: true,
		model.MethodMLPrimary: true,
	},
	"National Identifiers": {
		model.MethodRuleBased:   true,
		model.MethodMLPrimary:   true,
		model.MethodMLAugmented: true,
	},
	"Financial Account Numbers": {
		model.MethodRuleBased:   true,
		model.MethodMLPrimary:   true,
		model.MethodMLAugmented: true,
	},
}

const scopeNote = "bounded by detector coverage; absence of evidence is not proof of absence"

// Generator builds negative assertions from a final violation list and
// the set of detection methods that actually ran.
type Generator struct{}

// NewGenerator returns a Generator over the built-in taxonomy.
func NewGenerator() *Generator { return &Generator{} }

// Generate emits one NOT_DETECTED assertion per category with zero
// matching violations, listing the executed detectors that cover the
// category, sorted. Output order follows the taxonomy, so assertions
// are deterministic.
func (g *Generator) Generate(violations []model.Violation, methods []string) []model.NegativeAssertion {
	var out []model.NegativeAssertion
	for _, cat := range taxonomy {
		if categoryDetected(cat, violations) {
			continue
		}
		supporting := supportingDetectors(cat.Name, methods)
		if len(supporting) == 0 {
			continue
		}
		out = append(out, model.NegativeAssertion{
			Category:    cat.Name,
			Status:      model.AssertionNotDetected,
			SupportedBy: supporting,
			ScopeNote:   scopeNote,
		})
	}
	return out
}

func categoryDetected(cat Category, violations []model.Violation) bool {
	for _, v := range violations {
		haystack := strings.ToLower(v.Description + " " + v.FieldPath)
		for _, kw := range cat.Keywords {
			if strings.Contains(haystack, kw) {
				return true
			}
		}
	}
	return false
}

func supportingDetectors(category string, methods []string) []string {
	covered := coverage[category]
	seen := make(map[string]bool, len(methods))
	var out []string
	for _, m := range methods {
		if covered[m] && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
