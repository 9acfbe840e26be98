package rules

import (
	"log"
	"strings"

	"github.com/phiguard/phiguard/internal/controls"
	"github.com/phiguard/phiguard/internal/model"
)

// Orchestrator dispatches the governing regulation's rule set over a
// resource and cleans the output. Stateless per call.
type Orchestrator struct {
	registry   *Registry
	suppressor *controls.Suppressor
	logger     *log.Logger
}

// NewOrchestrator wires a registry and suppressor together. A nil
// logger discards rule-failure diagnostics.
func NewOrchestrator(registry *Registry, suppressor *controls.Suppressor, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "rules: ", log.LstdFlags)
	}
	return &Orchestrator{registry: registry, suppressor: suppressor, logger: logger}
}

// Evaluate runs the rule scan for a resolved transfer. Ordered steps:
//
//  1. Unregulated transfers scan nothing.
//  2. Select rules by citation/code match against the governing
//     regulation, gated on applicable-set membership.
//  3. Run each rule panic-isolated; a failing rule contributes zero
//     violations, never an error.
//  4. If the full rule set found nothing, run the loose fallback scan
//     for the governing regulation only.
//  5. Clean: suppress allowlisted/false-positive findings, then dedup
//     by (violation_type, span, rule_id) keeping first-seen order.
func (o *Orchestrator) Evaluate(res model.JurisdictionResolution, resource map[string]any) []model.Violation {
	if !res.Regulated() {
		return nil
	}

	applicable := make(map[string]bool, len(res.ApplicableRegulations))
	for _, code := range res.ApplicableRegulations {
		applicable[code] = true
	}

	citation := CitationFor(res.GoverningRegulation)
	var found []model.Violation
	for _, code := range o.registry.Codes() {
		if !applicable[code] {
			continue
		}
		if !regimeMatches(code, res.GoverningRegulation, citation) {
			continue
		}
		for _, rule := range o.registry.For(code) {
			found = append(found, o.safeRun(rule, resource)...)
		}
	}

	if len(found) == 0 {
		found = fallbackScan(res.GoverningRegulation, resource)
	}

	return o.clean(found)
}

// regimeMatches decides whether a rule's regulation participates in a
// scan governed by another code. Matching is substring-based against
// the citation so regime aliases dispatch correctly, with one
// carve-out: UK_GDPR's citation mentions GDPR, but the EU regime's
// rules must not fire on UK-governed transfers.
func regimeMatches(code, governing, citation string) bool {
	if code == governing {
		return true
	}
	if governing == "UK_GDPR" && code == "GDPR" {
		return false
	}
	return strings.Contains(citation, code)
}

// safeRun executes one rule, converting a panic into zero violations.
// A broken rule must never take down the scan or block a transfer on
// its own failure.
func (o *Orchestrator) safeRun(rule Rule, resource map[string]any) (out []model.Violation) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("rule %s panicked: %v (contributing no violations)", rule.ID(), r)
			out = nil
		}
	}()
	return rule.Evaluate(resource)
}

// clean applies suppression and first-seen dedup.
func (o *Orchestrator) clean(violations []model.Violation) []model.Violation {
	kept := o.suppressor.Filter(violations)
	seen := make(map[string]bool, len(kept))
	out := make([]model.Violation, 0, len(kept))
	for _, v := range kept {
		key := v.ScanKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
