// Package integrity verifies the engine binary checksum at startup.
// A governance engine whose decisions must replay bit for bit cannot
// run from a tampered binary: the engine version pinned in every audit
// record is only meaningful if the binary is the one that was shipped.
// The expected hash is embedded at build time via ldflags; if the
// running binary does not match, a tamper event is recorded and the
// process refuses to start.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phiguard/phiguard/internal/alert"
)

// ExpectedHash is set at build time via:
//
//	-ldflags "-X github.com/phiguard/phiguard/internal/integrity.ExpectedHash=<sha256hex>"
//
// When empty (dev builds), verification falls back to a checksum file.
var ExpectedHash string

// TamperLogDir is the directory where tamper events are written.
// Defaults to /var/log/phiguard. Override for testing.
var TamperLogDir = "/var/log/phiguard"

// ChecksumPaths are the paths checked (in order) for a sha256 checksum
// file containing a single hex-encoded SHA-256 hash. Override for
// testing.
var ChecksumPaths = []string{
	"/etc/phiguard/binary.sha256",
	"$HOME/.phiguard/binary.sha256",
}

// AlertConfigPaths are the config files checked (in order) for an
// alerts section to notify on tamper. Override for testing.
var AlertConfigPaths = []string{
	"/etc/phiguard/config.yaml",
	"$HOME/.phiguard/config.yaml",
}

// TamperEvent records a binary integrity violation.
type TamperEvent struct {
	Timestamp    string `json:"timestamp"`
	Binary       string `json:"binary"`
	ExpectedHash string `json:"expected_hash"`
	ActualHash   string `json:"actual_hash"`
	Hostname     string `json:"hostname"`
	Type         string `json:"type"`
}

// Verify checks that the running binary matches ExpectedHash. If
// ExpectedHash is empty, falls back to the checksum file. Returns nil
// if verification passes or no expected hash is available (dev mode).
// On mismatch, writes a tamper event before returning the error.
func Verify() error {
	expected := ExpectedHash
	if expected == "" {
		expected = loadChecksumFile()
	}
	if expected == "" {
		fmt.Fprintf(os.Stderr, "integrity: WARNING no build-time hash or checksum file found (dev build, integrity check skipped)\n")
		return nil
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("integrity: cannot resolve executable path: %w", err)
	}

	actual, err := hashFile(exePath)
	if err != nil {
		return fmt.Errorf("integrity: cannot hash binary: %w", err)
	}

	if actual == expected {
		fmt.Fprintf(os.Stderr, "integrity: binary checksum verified (%s...%s)\n",
			actual[:8], actual[len(actual)-8:])
		return nil
	}

	event := TamperEvent{
		Timestamp:    time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Binary:       exePath,
		ExpectedHash: expected,
		ActualHash:   actual,
		Type:         "binary_tamper",
	}
	event.Hostname, _ = os.Hostname()

	writeTamperEvent(event)

	return fmt.Errorf("integrity: binary checksum mismatch (expected %s, got %s)", expected, actual)
}

// HashSelf returns the SHA-256 hex digest of the running binary.
// Useful for writing the checksum file after install.
func HashSelf() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("integrity: cannot resolve executable path: %w", err)
	}
	return hashFile(exePath)
}

// loadChecksumFile reads the expected hash from a checksum file.
// Returns empty string if no file is found or readable.
func loadChecksumFile() string {
	for _, p := range ChecksumPaths {
		path := os.ExpandEnv(p)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		hash := strings.TrimSpace(string(data))
		if len(hash) == 64 && isHex(hash) {
			return hash
		}
	}
	return ""
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeTamperEvent appends a tamper event to the tamper log, prints to
// stderr for the journal, and fires webhook alerts.
func writeTamperEvent(event TamperEvent) {
	line, err := json.Marshal(event)
	if err != nil {
		return
	}

	logPath := filepath.Join(TamperLogDir, "tamper.jsonl")
	if err := os.MkdirAll(TamperLogDir, 0700); err == nil {
		if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600); err == nil {
			f.Write(append(line, '\n'))
			f.Sync()
			f.Close()
		}
	}

	fmt.Fprintf(os.Stderr, "TAMPER ALERT: %s\n", string(line))

	dispatchTamperAlert(event)
}

// dispatchTamperAlert fires the tamper event to every configured
// webhook subscribed to "binary_tamper" or "REJECTED". This runs
// before full config init, so it parses only the alerts section.
func dispatchTamperAlert(event TamperEvent) {
	configs := loadAlertConfigs()
	if len(configs) == 0 {
		return
	}

	alertEvent := alertEventFromTamper(event)
	for _, cfg := range configs {
		for _, e := range cfg.Events {
			if e == "binary_tamper" || e == "REJECTED" {
				// Synchronous: the process is about to exit anyway.
				_ = alert.Send(cfg, alertEvent)
				break
			}
		}
	}
}

type configAlerts struct {
	Alerts []alert.AlertConfig `yaml:"alerts"`
}

// loadAlertConfigs reads just the alerts section from the first
// readable config file.
func loadAlertConfigs() []alert.AlertConfig {
	for _, p := range AlertConfigPaths {
		data, err := os.ReadFile(os.ExpandEnv(p))
		if err != nil {
			continue
		}
		var ca configAlerts
		if err := yaml.Unmarshal(data, &ca); err != nil {
			continue
		}
		return ca.Alerts
	}
	return nil
}

// alertEventFromTamper maps a tamper event onto the alert payload
// shape so existing webhook destinations need no special handling.
func alertEventFromTamper(event TamperEvent) alert.AlertEvent {
	return alert.AlertEvent{
		Timestamp: event.Timestamp,
		Outcome:   "REJECTED",
		Rationale: fmt.Sprintf("binary checksum mismatch on %s (%s): expected %s, got %s",
			event.Hostname, event.Binary, event.ExpectedHash, event.ActualHash),
	}
}
