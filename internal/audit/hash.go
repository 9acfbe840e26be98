package audit

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// hashPrefix namespaces every digest the engine emits so a truncated
// or foreign hex string can never be mistaken for a record hash.
const hashPrefix = "sha256:"

// Fingerprint hashes raw input bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s%x", hashPrefix, sum)
}

// CanonicalJSON produces the canonical serialization used for
// hashing: keys sorted, compact separators. The value is
// round-tripped through a generic map so struct field order never
// influences the digest.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("audit: canonical marshal: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("audit: canonical round-trip: %w", err)
	}
	canon, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("audit: canonical remarshal: %w", err)
	}
	return canon, nil
}

// RecordHash computes the canonical hash of a record. The two hash
// fields are excluded entirely, not zeroed: a rehash of a stored
// record must reproduce the original digest byte for byte.
func RecordHash(rec AuditRecord) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("audit: hash marshal: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("audit: hash round-trip: %w", err)
	}
	delete(fields, "record_hash")
	delete(fields, "previous_record_hash")

	canon, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("audit: hash remarshal: %w", err)
	}
	sum := sha256.Sum256(canon)
	return fmt.Sprintf("%s%x", hashPrefix, sum), nil
}

// Seal computes and stores the record hash. Called once, after every
// other field is final.
func Seal(rec *AuditRecord) error {
	h, err := RecordHash(*rec)
	if err != nil {
		return err
	}
	rec.RecordHash = h
	return nil
}

// VerifyRecordHash recomputes and compares a sealed record's hash.
func VerifyRecordHash(rec AuditRecord) error {
	h, err := RecordHash(rec)
	if err != nil {
		return err
	}
	if h != rec.RecordHash {
		return fmt.Errorf("%w: record %s hash mismatch: stored %s, computed %s",
			ErrIntegrity, rec.AuditID, rec.RecordHash, h)
	}
	return nil
}
