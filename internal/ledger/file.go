package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/phiguard/phiguard/internal/audit"
)

// File is a JSONL ledger: one canonical record per line, append-only,
// synced after every commit. Opening an existing file recovers each
// dataset's chain tail so appends continue seamlessly across restarts.
type File struct {
	mu    sync.Mutex
	f     *os.File
	path  string
	tails map[string]audit.AuditRecord
}

// OpenFile opens or creates a JSONL ledger at path.
func OpenFile(path string) (*File, error) {
	tails, err := recoverTails(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	return &File{f: f, path: path, tails: tails}, nil
}

// recoverTails reads the existing file and indexes the last record per
// dataset. A corrupt line is a hard error: an unreadable ledger must
// not silently accept new commits.
func recoverTails(path string) (map[string]audit.AuditRecord, error) {
	tails := make(map[string]audit.AuditRecord)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tails, nil
		}
		return nil, fmt.Errorf("ledger: recover %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		var rec audit.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("%w: %s line %d unreadable: %v", audit.ErrIntegrity, path, line, err)
		}
		tails[rec.DatasetFingerprint] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ledger: scan %s: %w", path, err)
	}
	return tails, nil
}

// Append implements Ledger. The tail comparison, write, and sync all
// happen under one lock so concurrent commits serialize into a valid
// chain.
func (l *File) Append(_ context.Context, rec audit.AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var tail *audit.AuditRecord
	if t, ok := l.tails[rec.DatasetFingerprint]; ok {
		tail = &t
	}
	if err := checkAppend(rec, tail); err != nil {
		return err
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: marshal record %s: %w", rec.AuditID, err)
	}
	if _, err := l.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("ledger: write record %s: %w", rec.AuditID, err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("ledger: sync: %w", err)
	}
	l.tails[rec.DatasetFingerprint] = rec
	return nil
}

// Tail implements Ledger.
func (l *File) Tail(_ context.Context, dataset string) (*audit.AuditRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tails[dataset]; ok {
		rec := t
		return &rec, nil
	}
	return nil, nil
}

// Chain implements Ledger by rescanning the file.
func (l *File) Chain(_ context.Context, dataset string) ([]audit.AuditRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: open %s: %w", l.path, err)
	}
	defer func() { _ = f.Close() }()

	var chain []audit.AuditRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		var rec audit.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("%w: %s unreadable line: %v", audit.ErrIntegrity, l.path, err)
		}
		if rec.DatasetFingerprint == dataset {
			chain = append(chain, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ledger: scan %s: %w", l.path, err)
	}
	return chain, nil
}

// Find implements Ledger by rescanning the file.
func (l *File) Find(_ context.Context, auditID string) (*audit.AuditRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := ReadAll(l.path)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].AuditID == auditID {
			return &records[i], nil
		}
	}
	return nil, nil
}

// ReadAll loads every record from a JSONL ledger file in commit
// order, for offline verification.
func ReadAll(path string) ([]audit.AuditRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var records []audit.AuditRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		var rec audit.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("%w: %s line %d unreadable: %v", audit.ErrIntegrity, path, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ledger: scan %s: %w", path, err)
	}
	return records, nil
}

// Close implements Ledger.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
