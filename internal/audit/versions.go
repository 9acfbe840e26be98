package audit

import "fmt"

// EngineVersion is the released engine identifier pinned into every
// record.
const EngineVersion = "phiguard-0.9.3"

// VersionRegistry maps pinned version identifiers to the artifacts
// that realize them. Replay requires every version a record pins to be
// resolvable here; an unknown version means the environment cannot
// faithfully re-execute the record.
type VersionRegistry struct {
	Converters map[string]string
	Engines    map[string]string
	Policies   map[string]string
}

// DefaultVersionRegistry returns the registry for the released
// artifact set. Deployments extend it at startup, never at runtime.
func DefaultVersionRegistry() *VersionRegistry {
	return &VersionRegistry{
		Converters: map[string]string{
			"fhir-converter-2.1.0": "ghcr.io/phiguard/fhir-converter:2.1.0",
			"fhir-converter-2.0.4": "ghcr.io/phiguard/fhir-converter:2.0.4",
		},
		Engines: map[string]string{
			"phiguard-0.9.3": "git:phiguard@v0.9.3",
			"phiguard-0.9.2": "git:phiguard@v0.9.2",
		},
		Policies: map[string]string{
			"2025.1":         "policies/2025.1.yaml",
			"2025.1-builtin": "builtin:snapshot-2025.1",
		},
	}
}

// CheckRecord verifies that every version the record pins is known.
// The converter is only checked when a conversion actually happened.
func (r *VersionRegistry) CheckRecord(rec AuditRecord) error {
	if _, ok := r.Engines[rec.EngineVersion]; !ok {
		return fmt.Errorf("%w: engine %q", ErrUnknownVersion, rec.EngineVersion)
	}
	if _, ok := r.Policies[rec.PolicySnapshotVersion]; !ok {
		return fmt.Errorf("%w: policy snapshot %q", ErrUnknownVersion, rec.PolicySnapshotVersion)
	}
	if cv := rec.InputProvenance.ConverterVersion; cv != "" {
		if _, ok := r.Converters[cv]; !ok {
			return fmt.Errorf("%w: converter %q", ErrUnknownVersion, cv)
		}
	}
	return nil
}
