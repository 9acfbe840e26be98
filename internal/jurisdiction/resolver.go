package jurisdiction

import (
	"fmt"

	"github.com/phiguard/phiguard/internal/model"
)

// restrictiveness is the fixed global ordering used to pick the
// governing regulation from the applicable set. Earlier wins. The
// order is a policy decision reviewed with the snapshot, not inferred
// from context.
var restrictiveness = []string{
	RegGDPR,
	RegUKGDPR,
	RegHIPAA,
	RegPIPEDA,
	RegLGPD,
	RegDPDP,
	RegAPPI,
	RegPOPIA,
	RegPDPL,
	RegAUPrivacy,
}

// Resolver maps a transfer context to its applicable regulations and
// the single governing one. Pure and deterministic for a given
// snapshot; safe for concurrent use.
type Resolver struct {
	snapshot *Snapshot
}

// NewResolver builds a resolver over a validated snapshot.
func NewResolver(snap *Snapshot) *Resolver {
	return &Resolver{snapshot: snap}
}

// SnapshotVersion returns the version of the loaded snapshot.
func (r *Resolver) SnapshotVersion() string { return r.snapshot.Version }

// Resolve evaluates every trigger predicate against the context.
// Unknown country codes simply match nothing — the resolver is
// permissive about context values and strict only about its snapshot.
func (r *Resolver) Resolve(ctx model.JurisdictionContext) model.JurisdictionResolution {
	res := model.JurisdictionResolution{
		Context:         ctx,
		Reasoning:       make(map[string]string),
		SnapshotVersion: r.snapshot.Version,
	}

	for _, code := range restrictiveness {
		if _, ok := r.snapshot.Regulations[code]; !ok {
			continue
		}
		if reason, hit := r.triggered(code, ctx); hit {
			res.ApplicableRegulations = append(res.ApplicableRegulations, code)
			res.Reasoning[code] = reason
		}
	}

	// Applicable set is already in restrictiveness order; the head is
	// the governing regulation. Empty set means unregulated — never a
	// placeholder.
	if len(res.ApplicableRegulations) > 0 {
		res.GoverningRegulation = res.ApplicableRegulations[0]
		res.Reasoning["governing"] = fmt.Sprintf(
			"%s selected as most restrictive of %v", res.GoverningRegulation, res.ApplicableRegulations)
	} else {
		res.Reasoning["governing"] = "no regulation predicate matched; transfer is unregulated"
	}
	return res
}

// triggered applies the per-regulation predicate. Each regulation has
// a distinct legal hook: GDPR-family regimes follow the data subject,
// HIPAA follows the covered entity at origin, DPDP claims any Indian
// touchpoint including transit, and the remaining regimes follow
// subject or destination.
func (r *Resolver) triggered(code string, ctx model.JurisdictionContext) (string, bool) {
	switch code {
	case RegGDPR:
		if ctx.PatientResidency == "EU" || r.snapshot.Covers(RegGDPR, ctx.PatientResidency) {
			return fmt.Sprintf("patient residency %s is in EU scope", ctx.PatientResidency), true
		}
	case RegUKGDPR:
		if r.snapshot.Covers(RegUKGDPR, ctx.PatientResidency) {
			return "patient residency is in UK scope", true
		}
	case RegHIPAA:
		if r.snapshot.Covers(RegHIPAA, ctx.SourceCountry) {
			return fmt.Sprintf("transfer originates from %s covered entity", ctx.SourceCountry), true
		}
	case RegDPDP:
		if r.snapshot.Covers(RegDPDP, ctx.SourceCountry) {
			return "transfer originates in India", true
		}
		for _, d := range ctx.DestinationCountries {
			if r.snapshot.Covers(RegDPDP, d) {
				return "transfer destined for India", true
			}
		}
		for _, i := range ctx.Intermediaries {
			if r.snapshot.Covers(RegDPDP, i) {
				return "transfer transits India", true
			}
		}
	default:
		// Subject-or-destination regimes: PIPEDA, LGPD, APPI, POPIA,
		// PDPL, AU_PRIVACY.
		if r.snapshot.Covers(code, ctx.PatientResidency) {
			return fmt.Sprintf("patient residency %s is in %s scope", ctx.PatientResidency, code), true
		}
		for _, d := range ctx.DestinationCountries {
			if r.snapshot.Covers(code, d) {
				return fmt.Sprintf("destination %s is in %s scope", d, code), true
			}
		}
	}
	return "", false
}
