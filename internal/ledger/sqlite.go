package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/phiguard/phiguard/internal/audit"
)

// SQLite is a durable ledger backed by a single-file database. Records
// are stored as canonical JSON alongside indexed chain columns; the
// tail comparison and insert share one immediate transaction.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_records (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	audit_id   TEXT NOT NULL UNIQUE,
	dataset    TEXT NOT NULL,
	record_hash TEXT NOT NULL,
	prev_hash  TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_dataset ON audit_records(dataset, seq);
`

// OpenSQLite opens or creates a SQLite ledger at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open sqlite %s: %w", path, err)
	}
	// Single writer; WAL keeps readers unblocked during commits.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ledger: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Append implements Ledger.
func (s *SQLite) Append(ctx context.Context, rec audit.AuditRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	tail, err := tailInTx(ctx, tx, rec.DatasetFingerprint)
	if err != nil {
		return err
	}
	if err := checkAppend(rec, tail); err != nil {
		return err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: marshal record %s: %w", rec.AuditID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_records (audit_id, dataset, record_hash, prev_hash, payload) VALUES (?, ?, ?, ?, ?)`,
		rec.AuditID, rec.DatasetFingerprint, rec.RecordHash, rec.PreviousRecordHash, string(payload),
	); err != nil {
		return fmt.Errorf("ledger: insert record %s: %w", rec.AuditID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: commit record %s: %w", rec.AuditID, err)
	}
	return nil
}

func tailInTx(ctx context.Context, tx *sql.Tx, dataset string) (*audit.AuditRecord, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT payload FROM audit_records WHERE dataset = ? ORDER BY seq DESC LIMIT 1`, dataset)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: query tail: %w", err)
	}
	var rec audit.AuditRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("%w: stored record unreadable: %v", audit.ErrIntegrity, err)
	}
	return &rec, nil
}

// Tail implements Ledger.
func (s *SQLite) Tail(ctx context.Context, dataset string) (*audit.AuditRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM audit_records WHERE dataset = ? ORDER BY seq DESC LIMIT 1`, dataset)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: query tail: %w", err)
	}
	var rec audit.AuditRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("%w: stored record unreadable: %v", audit.ErrIntegrity, err)
	}
	return &rec, nil
}

// Chain implements Ledger.
func (s *SQLite) Chain(ctx context.Context, dataset string) ([]audit.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM audit_records WHERE dataset = ? ORDER BY seq ASC`, dataset)
	if err != nil {
		return nil, fmt.Errorf("ledger: query chain: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chain []audit.AuditRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("ledger: scan chain: %w", err)
		}
		var rec audit.AuditRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("%w: stored record unreadable: %v", audit.ErrIntegrity, err)
		}
		chain = append(chain, rec)
	}
	return chain, rows.Err()
}

// Find implements Ledger.
func (s *SQLite) Find(ctx context.Context, auditID string) (*audit.AuditRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM audit_records WHERE audit_id = ?`, auditID)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: query record %s: %w", auditID, err)
	}
	var rec audit.AuditRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("%w: stored record unreadable: %v", audit.ErrIntegrity, err)
	}
	return &rec, nil
}

// Close implements Ledger.
func (s *SQLite) Close() error { return s.db.Close() }
