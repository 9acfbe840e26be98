// Package ledger persists audit records in append-only, hash-chained
// stores.
package ledger

import (
	"context"
	"fmt"

	"github.com/phiguard/phiguard/internal/audit"
)

// Ledger is an append-only audit store. Append is atomic and
// fail-closed: the record's previous_record_hash is compared against
// the chain tail inside the store's critical section, and any mismatch
// rejects the commit — a decision without its audit record must never
// take effect.
type Ledger interface {
	// Append commits a sealed record to its dataset chain.
	Append(ctx context.Context, rec audit.AuditRecord) error

	// Tail returns the last record of a dataset chain, or nil when
	// the chain is empty.
	Tail(ctx context.Context, datasetFingerprint string) (*audit.AuditRecord, error)

	// Chain returns a dataset's records in commit order.
	Chain(ctx context.Context, datasetFingerprint string) ([]audit.AuditRecord, error)

	// Find returns the record with the given audit id, or nil when no
	// such record exists.
	Find(ctx context.Context, auditID string) (*audit.AuditRecord, error)

	Close() error
}

// checkAppend validates a record against the current chain tail. Used
// by every store inside its own critical section.
func checkAppend(rec audit.AuditRecord, tail *audit.AuditRecord) error {
	if err := audit.VerifyRecordHash(rec); err != nil {
		return err
	}
	if tail == nil {
		if rec.PreviousRecordHash != "" {
			return fmt.Errorf("%w: record %s claims predecessor %s on an empty chain",
				audit.ErrIntegrity, rec.AuditID, rec.PreviousRecordHash)
		}
		return nil
	}
	if rec.PreviousRecordHash != tail.RecordHash {
		return fmt.Errorf("%w: record %s previous hash %s does not match chain tail %s",
			audit.ErrIntegrity, rec.AuditID, rec.PreviousRecordHash, tail.RecordHash)
	}
	return nil
}

// VerifyChain walks a chain front to back, checking each record's hash
// and linkage. Returns the index of the first broken record.
func VerifyChain(records []audit.AuditRecord) (int, error) {
	prev := ""
	for i, rec := range records {
		if err := audit.VerifyRecordHash(rec); err != nil {
			return i, err
		}
		if rec.PreviousRecordHash != prev {
			return i, fmt.Errorf("%w: record %s links to %s, expected %s",
				audit.ErrIntegrity, rec.AuditID, rec.PreviousRecordHash, prev)
		}
		prev = rec.RecordHash
	}
	return -1, nil
}
