// Package systemd provides the daemon unit template and verifies the
// installed unit has not drifted from its install-time baseline.
package systemd

// DaemonTemplate returns the systemd unit for the phiguard evaluation
// daemon.
func DaemonTemplate() string {
	return `[Unit]
Description=phiguard transfer governance daemon
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=/usr/local/bin/phiguard daemon --config /etc/phiguard/config.yaml
Restart=on-failure
RestartSec=2
NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=strict
ProtectHome=true
ReadWritePaths=/var/lib/phiguard /var/log/phiguard

[Install]
WantedBy=multi-user.target
`
}
