package systemd

import (
	"strings"
	"testing"
)

func TestDaemonTemplate(t *testing.T) {
	tmpl := DaemonTemplate()

	for _, section := range []string{"[Unit]", "[Service]", "[Install]"} {
		if !strings.Contains(tmpl, section) {
			t.Errorf("template missing section %s", section)
		}
	}

	if !strings.Contains(tmpl, "phiguard daemon") {
		t.Error("template missing daemon command")
	}

	for _, directive := range []string{"NoNewPrivileges=true", "PrivateTmp=true", "ProtectSystem=strict"} {
		if !strings.Contains(tmpl, directive) {
			t.Errorf("template missing security directive %s", directive)
		}
	}

	// The ledger and tamper log directories must stay writable under
	// ProtectSystem=strict.
	if !strings.Contains(tmpl, "ReadWritePaths=/var/lib/phiguard /var/log/phiguard") {
		t.Error("template missing ReadWritePaths for state directories")
	}
}
