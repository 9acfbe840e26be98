package systemd

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func setUnitPaths(t *testing.T, unitPath, hashPath string) {
	t.Helper()
	oldUnits := UnitFilePaths
	oldHash := UnitHashPath
	UnitFilePaths = []string{unitPath}
	UnitHashPath = hashPath
	t.Cleanup(func() {
		UnitFilePaths = oldUnits
		UnitHashPath = oldHash
	})
}

func TestCheckUnitFileIntegrityNoUnit(t *testing.T) {
	dir := t.TempDir()
	setUnitPaths(t, filepath.Join(dir, "missing.service"), filepath.Join(dir, "hash"))

	if msg := CheckUnitFileIntegrity(); msg != "" {
		t.Errorf("expected empty message without a unit file, got %q", msg)
	}
}

func TestCheckUnitFileIntegrityNoStoredHash(t *testing.T) {
	dir := t.TempDir()
	unit := filepath.Join(dir, "phiguard-daemon.service")
	if err := os.WriteFile(unit, []byte(DaemonTemplate()), 0644); err != nil {
		t.Fatal(err)
	}
	setUnitPaths(t, unit, filepath.Join(dir, "missing-hash"))

	if msg := CheckUnitFileIntegrity(); msg != "" {
		t.Errorf("expected empty message without a stored hash, got %q", msg)
	}
}

func TestRecordThenCheckRoundTrip(t *testing.T) {
	dir := t.TempDir()
	unit := filepath.Join(dir, "phiguard-daemon.service")
	if err := os.WriteFile(unit, []byte(DaemonTemplate()), 0644); err != nil {
		t.Fatal(err)
	}
	setUnitPaths(t, unit, filepath.Join(dir, "unit-file.sha256"))

	if err := RecordUnitFileHash(); err != nil {
		t.Fatal(err)
	}
	if msg := CheckUnitFileIntegrity(); msg != "" {
		t.Errorf("expected clean check after record, got %q", msg)
	}
}

func TestCheckUnitFileIntegrityDetectsDrift(t *testing.T) {
	dir := t.TempDir()
	unit := filepath.Join(dir, "phiguard-daemon.service")
	if err := os.WriteFile(unit, []byte(DaemonTemplate()), 0644); err != nil {
		t.Fatal(err)
	}
	hashPath := filepath.Join(dir, "unit-file.sha256")
	setUnitPaths(t, unit, hashPath)

	if err := RecordUnitFileHash(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(unit, []byte(DaemonTemplate()+"ExecStartPre=/bin/true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	msg := CheckUnitFileIntegrity()
	if msg == "" {
		t.Fatal("expected drift warning after unit modification")
	}
}

func TestCheckUnitFileIntegrityInvalidStoredHash(t *testing.T) {
	dir := t.TempDir()
	unit := filepath.Join(dir, "phiguard-daemon.service")
	if err := os.WriteFile(unit, []byte(DaemonTemplate()), 0644); err != nil {
		t.Fatal(err)
	}
	hashPath := filepath.Join(dir, "unit-file.sha256")
	if err := os.WriteFile(hashPath, []byte("short\n"), 0600); err != nil {
		t.Fatal(err)
	}
	setUnitPaths(t, unit, hashPath)

	if msg := CheckUnitFileIntegrity(); msg != "" {
		t.Errorf("expected invalid stored hash to be ignored, got %q", msg)
	}
}

func TestRecordUnitFileHashNoUnit(t *testing.T) {
	dir := t.TempDir()
	setUnitPaths(t, filepath.Join(dir, "missing.service"), filepath.Join(dir, "hash"))

	if err := RecordUnitFileHash(); err == nil {
		t.Error("expected error when no unit file exists")
	}
}

func TestRecordUnitFileHashContent(t *testing.T) {
	dir := t.TempDir()
	unit := filepath.Join(dir, "phiguard-daemon.service")
	content := []byte(DaemonTemplate())
	if err := os.WriteFile(unit, content, 0644); err != nil {
		t.Fatal(err)
	}
	hashPath := filepath.Join(dir, "unit-file.sha256")
	setUnitPaths(t, unit, hashPath)

	if err := RecordUnitFileHash(); err != nil {
		t.Fatal(err)
	}

	stored, err := os.ReadFile(hashPath)
	if err != nil {
		t.Fatal(err)
	}
	h := sha256.Sum256(content)
	want := hex.EncodeToString(h[:]) + "\n"
	if string(stored) != want {
		t.Errorf("stored hash = %q, want %q", stored, want)
	}
}
