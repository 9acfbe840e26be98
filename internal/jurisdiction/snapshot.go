package jurisdiction

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrSnapshot marks regulation-snapshot configuration failures. The
// resolver is useless without a valid snapshot, so callers treat this
// as fatal at startup.
var ErrSnapshot = errors.New("jurisdiction: invalid regulation snapshot")

// Regulation codes known to the resolver.
const (
	RegGDPR      = "GDPR"
	RegUKGDPR    = "UK_GDPR"
	RegHIPAA     = "HIPAA"
	RegPIPEDA    = "PIPEDA"
	RegLGPD      = "LGPD"
	RegDPDP      = "DPDP"
	RegAPPI      = "APPI"
	RegPOPIA     = "POPIA"
	RegPDPL      = "PDPL"
	RegAUPrivacy = "AU_PRIVACY"
)

// RegulationEntry is one regulation's country coverage in a snapshot.
type RegulationEntry struct {
	Countries []string `json:"countries"`
}

// Snapshot is a versioned map of regulation codes to the countries
// they cover. Resolution decisions are traceable to exactly one
// snapshot version.
type Snapshot struct {
	Version     string                     `json:"snapshot_version"`
	Regulations map[string]RegulationEntry `json:"regulations"`

	covered map[string]map[string]bool
}

// LoadSnapshot reads and validates a snapshot file. Any failure is a
// configuration error: a missing or malformed snapshot must stop the
// engine, not degrade it.
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrSnapshot, path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrSnapshot, path, err)
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}
	snap.index()
	return &snap, nil
}

func (s *Snapshot) validate() error {
	if s.Version == "" {
		return fmt.Errorf("%w: missing snapshot_version", ErrSnapshot)
	}
	if len(s.Regulations) == 0 {
		return fmt.Errorf("%w: no regulations defined", ErrSnapshot)
	}
	for code, entry := range s.Regulations {
		if len(entry.Countries) == 0 {
			return fmt.Errorf("%w: regulation %s covers no countries", ErrSnapshot, code)
		}
	}
	return nil
}

func (s *Snapshot) index() {
	s.covered = make(map[string]map[string]bool, len(s.Regulations))
	for code, entry := range s.Regulations {
		set := make(map[string]bool, len(entry.Countries))
		for _, c := range entry.Countries {
			set[c] = true
		}
		s.covered[code] = set
	}
}

// Covers reports whether the given regulation covers the country.
func (s *Snapshot) Covers(code, country string) bool {
	if s.covered == nil {
		s.index()
	}
	return s.covered[code][country]
}

// euMembers are the EU27 used by the built-in snapshot.
var euMembers = []string{
	"AT", "BE", "BG", "CY", "CZ", "DE", "DK", "EE", "ES", "FI",
	"FR", "GR", "HR", "HU", "IE", "IT", "LT", "LU", "LV", "MT",
	"NL", "PL", "PT", "RO", "SE", "SI", "SK",
}

// DefaultSnapshot returns the built-in regulation coverage table.
// Deployments normally load a reviewed snapshot file instead; the
// default exists so the engine is usable out of the box and so tests
// have a stable fixture.
func DefaultSnapshot() *Snapshot {
	snap := &Snapshot{
		Version: "2025.1-builtin",
		Regulations: map[string]RegulationEntry{
			RegGDPR:      {Countries: euMembers},
			RegUKGDPR:    {Countries: []string{"GB"}},
			RegHIPAA:     {Countries: []string{"US"}},
			RegPIPEDA:    {Countries: []string{"CA"}},
			RegLGPD:      {Countries: []string{"BR"}},
			RegDPDP:      {Countries: []string{"IN"}},
			RegAPPI:      {Countries: []string{"JP"}},
			RegPOPIA:     {Countries: []string{"ZA"}},
			RegPDPL:      {Countries: []string{"AE"}},
			RegAUPrivacy: {Countries: []string{"AU"}},
		},
	}
	snap.index()
	return snap
}
