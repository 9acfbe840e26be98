package model

// NegativeAssertion states that a sensitive-data category was scanned
// for and not found. Absence of evidence is bounded by what the
// executed detectors can see, hence ScopeNote.
type NegativeAssertion struct {
	Category    string   `json:"category"`
	Status      string   `json:"status"` // always "NOT_DETECTED"
	SupportedBy []string `json:"supported_by"`
	ScopeNote   string   `json:"scope_note"`
}

// AssertionNotDetected is the only status a negative assertion can
// carry: categories with hits simply produce no assertion.
const AssertionNotDetected = "NOT_DETECTED"
