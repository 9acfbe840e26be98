// Package pipeline wires resolution, rule scanning, fusion, scoring,
// decision, assurance, and audit construction into one engine.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/phiguard/phiguard/internal/assurance"
	"github.com/phiguard/phiguard/internal/audit"
	"github.com/phiguard/phiguard/internal/controls"
	"github.com/phiguard/phiguard/internal/decision"
	"github.com/phiguard/phiguard/internal/fusion"
	"github.com/phiguard/phiguard/internal/jurisdiction"
	"github.com/phiguard/phiguard/internal/model"
	"github.com/phiguard/phiguard/internal/rules"
)

// Request is one transfer evaluation. DetectorFindings carry the
// output of external probabilistic detectors; the engine never runs
// them, it only fuses their findings.
type Request struct {
	Context          model.JurisdictionContext
	Resource         map[string]any
	RawInput         []byte
	DetectorFindings []model.Violation
	DetectorMethods  []string
	Purpose          string
	Provenance       model.InputProvenance
	Human            model.HumanDecision

	// Chain placement, normally filled by the ledger-aware caller.
	PreviousRecordHash string
	DatasetFingerprint string

	// Replay rebuilds pin the original record's identity and version
	// fields so the result is hash-comparable.
	auditID       string
	timestamp     time.Time
	engineVersion string
	policyVersion string
	replay        bool
}

// Result is the complete evaluation output. Suppressed carries the
// findings the controls dropped, with reasons; they never enter the
// decision or the audit record.
type Result struct {
	Resolution model.JurisdictionResolution
	Violations []model.Violation
	Suppressed []controls.Explained
	Decision   model.ComplianceDecision
	Assertions []model.NegativeAssertion
	Record     audit.AuditRecord
}

// Options configure an Engine.
type Options struct {
	Snapshot              *jurisdiction.Snapshot
	Registry              *rules.Registry
	Suppressor            *controls.Suppressor
	Policy                decision.Policy
	PolicySnapshotVersion string
	PolicyConfigHash      string
	Logger                *log.Logger
}

// Engine is an explicit, caller-constructed pipeline instance. It
// holds no per-request state and is safe for concurrent use.
type Engine struct {
	resolver      *jurisdiction.Resolver
	orchestrator  *rules.Orchestrator
	suppressor    *controls.Suppressor
	policy        decision.Policy
	assurer       *assurance.Generator
	policyVersion string
	configHash    string
}

// New builds an engine, validating that the rule registry covers
// every regulation the snapshot can resolve.
func New(opts Options) (*Engine, error) {
	if opts.Snapshot == nil {
		opts.Snapshot = jurisdiction.DefaultSnapshot()
	}
	if opts.Registry == nil {
		opts.Registry = rules.NewRegistry()
	}
	if opts.Suppressor == nil {
		opts.Suppressor = controls.NewSuppressor(nil, nil)
	}
	if opts.Policy == nil {
		opts.Policy = decision.NewAdditivePolicy(decision.DefaultAdditiveThresholds())
	}
	if opts.PolicySnapshotVersion == "" {
		opts.PolicySnapshotVersion = opts.Snapshot.Version
	}

	var codes []string
	for code := range opts.Snapshot.Regulations {
		codes = append(codes, code)
	}
	if err := opts.Registry.Validate(codes); err != nil {
		return nil, err
	}

	return &Engine{
		resolver:      jurisdiction.NewResolver(opts.Snapshot),
		orchestrator:  rules.NewOrchestrator(opts.Registry, opts.Suppressor, opts.Logger),
		suppressor:    opts.Suppressor,
		policy:        opts.Policy,
		assurer:       assurance.NewGenerator(),
		policyVersion: opts.PolicySnapshotVersion,
		configHash:    opts.PolicyConfigHash,
	}, nil
}

// Evaluate runs the full pipeline for one transfer request.
func (e *Engine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	raw := req.RawInput
	if raw == nil {
		var err error
		raw, err = audit.CanonicalJSON(req.Resource)
		if err != nil {
			return Result{}, fmt.Errorf("pipeline: serialize resource: %w", err)
		}
	}

	resolution := e.resolver.Resolve(req.Context)
	ruleFindings := e.orchestrator.Evaluate(resolution, req.Resource)

	fused := fusion.Fuse(ruleFindings, req.DetectorFindings)
	explained := e.suppressor.Explain(fused)
	final := make([]model.Violation, 0, len(explained))
	var suppressed []controls.Explained
	for _, ex := range explained {
		if ex.Suppressed {
			suppressed = append(suppressed, ex)
			continue
		}
		final = append(final, ex.Violation)
	}

	dec, err := e.policy.Decide(final)
	if err != nil {
		return Result{}, err
	}

	methods := detectionMethods(req)
	assertions := e.assurer.Generate(final, methods)

	prov := req.Provenance
	if !req.replay {
		if prov.SystemConfigHash == "" {
			prov.SystemConfigHash, err = audit.SystemConfigHash()
			if err != nil {
				return Result{}, err
			}
		}
		if prov.PolicyConfigHash == "" {
			prov.PolicyConfigHash = e.configHash
		}
	}

	auditID := req.auditID
	if auditID == "" {
		auditID = uuid.NewString()
	}
	ts := req.timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	engineVersion := req.engineVersion
	if engineVersion == "" {
		engineVersion = audit.EngineVersion
	}
	policyVersion := req.policyVersion
	if policyVersion == "" {
		policyVersion = e.policyVersion
	}

	rec, err := audit.Build(audit.BuildParams{
		AuditID:               auditID,
		Timestamp:             ts,
		RawInput:              raw,
		Purpose:               req.Purpose,
		EngineVersion:         engineVersion,
		PolicySnapshotVersion: policyVersion,
		Provenance:            prov,
		Context:               req.Context,
		Resolution:            resolution,
		Decision:              dec,
		Detections:            final,
		DetectionMethods:      methods,
		NegativeAssertions:    assertions,
		Human:                 req.Human,
		PreviousRecordHash:    req.PreviousRecordHash,
		DatasetFingerprint:    req.DatasetFingerprint,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Resolution: resolution,
		Violations: final,
		Suppressed: suppressed,
		Decision:   dec,
		Assertions: assertions,
		Record:     rec,
	}, nil
}

// Rebuild implements audit.Rebuilder: it re-executes the pipeline for
// a stored record, reusing the record's identity and pinned inputs so
// the result is hash-comparable.
func (e *Engine) Rebuild(original audit.AuditRecord, input []byte) (audit.AuditRecord, error) {
	var resource map[string]any
	if err := json.Unmarshal(input, &resource); err != nil {
		return audit.AuditRecord{}, fmt.Errorf("pipeline: rebuild input: %w", err)
	}

	// Probabilistic findings are external inputs, pinned in the
	// record; the rebuild replays them rather than re-deriving them.
	var detector []model.Violation
	for _, v := range original.Detections {
		if v.Probabilistic() {
			detector = append(detector, v)
		}
	}

	req := Request{
		Context:            original.JurisdictionContext,
		Resource:           resource,
		RawInput:           input,
		DetectorFindings:   detector,
		DetectorMethods:    original.DetectionMethods,
		Purpose:            original.Purpose,
		Provenance:         original.InputProvenance,
		Human:              original.HumanDecision,
		PreviousRecordHash: original.PreviousRecordHash,
		DatasetFingerprint: original.DatasetFingerprint,
		auditID:            original.AuditID,
		timestamp:          original.Timestamp,
		engineVersion:      original.EngineVersion,
		policyVersion:      original.PolicySnapshotVersion,
		replay:             true,
	}
	res, err := e.Evaluate(context.Background(), req)
	if err != nil {
		return audit.AuditRecord{}, err
	}
	return res.Record, nil
}

// detectionMethods returns rule-based plus every detector method, in
// first-seen order with rule-based always leading.
func detectionMethods(req Request) []string {
	out := []string{model.MethodRuleBased}
	seen := map[string]bool{model.MethodRuleBased: true}
	add := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for _, m := range req.DetectorMethods {
		add(m)
	}
	for _, v := range req.DetectorFindings {
		add(v.DetectionMethod)
	}
	return out
}
