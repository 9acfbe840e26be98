package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phiguard/phiguard/internal/alert"
	"github.com/phiguard/phiguard/internal/daemon"
	"github.com/phiguard/phiguard/internal/systemd"
)

var (
	daemonInbox  string
	daemonOutbox string
	daemonPoll   bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch an inbox directory and evaluate transfer requests",
	Long: `Daemon watches the inbox for transfer request files, evaluates each
through the pipeline, commits the decision to the ledger, and writes a
result file to the outbox. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if msg := systemd.CheckUnitFileIntegrity(); msg != "" {
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
		}

		cfg, engine, err := loadEngine()
		if err != nil {
			return err
		}
		store, err := openLedger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		inbox := cfg.Daemon.Inbox
		if daemonInbox != "" {
			inbox = daemonInbox
		}
		outbox := cfg.Daemon.Outbox
		if daemonOutbox != "" {
			outbox = daemonOutbox
		}

		d, err := daemon.New(daemon.Config{
			Inbox:        inbox,
			Outbox:       outbox,
			PollMode:     daemonPoll || cfg.Daemon.Poll,
			PollInterval: 5 * time.Second,
			Engine:       engine,
			Ledger:       store,
			Alerts:       alert.NewDispatcher(cfg.Alerts),
			Logger:       log.New(os.Stderr, "phiguard: ", log.LstdFlags),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return d.Run(ctx)
	},
}

func init() {
	daemonCmd.Flags().StringVar(&daemonInbox, "inbox", "", "override the configured inbox directory")
	daemonCmd.Flags().StringVar(&daemonOutbox, "outbox", "", "override the configured outbox directory")
	daemonCmd.Flags().BoolVar(&daemonPoll, "poll", false, "poll the inbox instead of using fsnotify")
	rootCmd.AddCommand(daemonCmd)
}
