package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/config"
	"github.com/phiguard/phiguard/internal/integrity"
	"github.com/phiguard/phiguard/internal/systemd"
)

var (
	initMode           string
	initInstallSystemd bool
	initForce          bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap phiguard configuration and optional systemd integration",
	Long: `Creates the config directory, a default config file, and the binary
checksum used by the startup integrity check.

User mode (default):  writes to ~/.phiguard/
System mode:          writes to /etc/phiguard/ (requires root)

With --install-systemd: installs phiguard-daemon.service and records
its install-time hash so later drift is reported at daemon startup.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := initConfigDir()
	if err != nil {
		return err
	}

	var created []string

	configPath := filepath.Join(configDir, "config.yaml")
	if wrote, err := writeIfMissing(configPath, config.DefaultConfigYAML()); err != nil {
		return err
	} else if wrote {
		created = append(created, configPath)
	}

	// Record the binary checksum for the startup integrity check.
	checksumPath := filepath.Join(configDir, "binary.sha256")
	hash, err := integrity.HashSelf()
	if err != nil {
		return err
	}
	if wrote, err := writeIfMissing(checksumPath, hash+"\n"); err != nil {
		return err
	} else if wrote {
		created = append(created, checksumPath)
	}

	if initInstallSystemd {
		if runtime.GOOS != "linux" {
			return fmt.Errorf("--install-systemd is only supported on Linux")
		}
		if os.Geteuid() != 0 {
			return fmt.Errorf("--install-systemd requires root; run with sudo")
		}

		unitPath := "/etc/systemd/system/phiguard-daemon.service"
		if err := os.WriteFile(unitPath, []byte(systemd.DaemonTemplate()), 0o644); err != nil {
			return fmt.Errorf("write systemd unit: %w", err)
		}
		created = append(created, unitPath)

		if err := os.MkdirAll(filepath.Dir(systemd.UnitHashPath), 0o700); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
		if err := systemd.RecordUnitFileHash(); err != nil {
			return fmt.Errorf("record unit hash: %w", err)
		}

		if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: systemctl daemon-reload failed: %v\n", err)
		}
	}

	fmt.Println("phiguard init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
		fmt.Println()
	}

	fmt.Println("Evaluate a transfer request:")
	fmt.Printf("  phiguard evaluate --config %s request.json\n", configPath)
	if initInstallSystemd {
		fmt.Println()
		fmt.Println("Enable the evaluation daemon:")
		fmt.Println("  sudo systemctl enable --now phiguard-daemon")
	}

	return nil
}

// initConfigDir returns the configuration directory based on mode.
func initConfigDir() (string, error) {
	switch initMode {
	case "system":
		return "/etc/phiguard", nil
	case "user", "":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".phiguard"), nil
	default:
		return "", fmt.Errorf("unknown mode %q: use 'user' or 'system'", initMode)
	}
}

// writeIfMissing writes content to path if it doesn't exist or --force
// is set. Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

func init() {
	initCmd.Flags().StringVar(&initMode, "mode", "user", "Config location: user (~/.phiguard) or system (/etc/phiguard)")
	initCmd.Flags().BoolVar(&initInstallSystemd, "install-systemd", false, "Install phiguard-daemon.service (requires root)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}
