package model

// JurisdictionContext describes where a record transfer starts, ends,
// passes through, and whose data it carries. Country codes are ISO
// 3166-1 alpha-2, except EU which is accepted as a subject-region
// alias.
type JurisdictionContext struct {
	SourceCountry        string   `json:"source_country"`
	DestinationCountries []string `json:"destination_countries"`
	PatientResidency     string   `json:"patient_residency"`
	Intermediaries       []string `json:"intermediaries,omitempty"`
}

// JurisdictionResolution is the resolver output for one context.
// GoverningRegulation is empty when no regulation applies — the
// pipeline then produces an unregulated-approval, never a guess.
type JurisdictionResolution struct {
	Context               JurisdictionContext `json:"context"`
	ApplicableRegulations []string            `json:"applicable_regulations"`
	GoverningRegulation   string              `json:"governing_regulation,omitempty"`
	Reasoning             map[string]string   `json:"reasoning"`
	SnapshotVersion       string              `json:"snapshot_version"`
}

// Regulated reports whether any regulation claimed the transfer.
func (r JurisdictionResolution) Regulated() bool {
	return r.GoverningRegulation != ""
}
