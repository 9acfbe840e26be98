package ledger

import (
	"context"
	"sync"

	"github.com/phiguard/phiguard/internal/audit"
)

// Memory is an in-process ledger for tests and dry runs.
type Memory struct {
	mu     sync.Mutex
	chains map[string][]audit.AuditRecord
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{chains: make(map[string][]audit.AuditRecord)}
}

// Append implements Ledger.
func (m *Memory) Append(_ context.Context, rec audit.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	chain := m.chains[rec.DatasetFingerprint]
	var tail *audit.AuditRecord
	if len(chain) > 0 {
		tail = &chain[len(chain)-1]
	}
	if err := checkAppend(rec, tail); err != nil {
		return err
	}
	m.chains[rec.DatasetFingerprint] = append(chain, rec)
	return nil
}

// Tail implements Ledger.
func (m *Memory) Tail(_ context.Context, dataset string) (*audit.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	chain := m.chains[dataset]
	if len(chain) == 0 {
		return nil, nil
	}
	rec := chain[len(chain)-1]
	return &rec, nil
}

// Chain implements Ledger.
func (m *Memory) Chain(_ context.Context, dataset string) ([]audit.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.AuditRecord(nil), m.chains[dataset]...), nil
}

// Find implements Ledger.
func (m *Memory) Find(_ context.Context, auditID string) (*audit.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chain := range m.chains {
		for i := range chain {
			if chain[i].AuditID == auditID {
				rec := chain[i]
				return &rec, nil
			}
		}
	}
	return nil, nil
}

// Close implements Ledger.
func (m *Memory) Close() error { return nil }
