package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/phiguard/phiguard/internal/alert"
	"github.com/phiguard/phiguard/internal/ledger"
	"github.com/phiguard/phiguard/internal/pipeline"
)

// Config holds full daemon configuration.
type Config struct {
	Inbox        string
	Outbox       string
	PollMode     bool
	PollInterval time.Duration
	Engine       *pipeline.Engine
	Ledger       ledger.Ledger
	Alerts       *alert.Dispatcher
	Logger       *log.Logger
}

// Daemon watches the inbox directory and evaluates transfer requests.
type Daemon struct {
	cfg       Config
	processor *Processor
}

// New creates a daemon with validated configuration.
func New(cfg Config) (*Daemon, error) {
	if cfg.Inbox == "" || cfg.Outbox == "" {
		return nil, fmt.Errorf("daemon: inbox and outbox directories are required")
	}
	if cfg.Engine == nil || cfg.Ledger == nil {
		return nil, fmt.Errorf("daemon: engine and ledger are required")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = pollDefault
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "daemon: ", log.LstdFlags)
	}

	return &Daemon{
		cfg:       cfg,
		processor: NewProcessor(cfg.Engine, cfg.Ledger, cfg.Alerts, cfg.Outbox, cfg.Logger),
	}, nil
}

// Run processes existing inbox files, then watches for new ones.
// Blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := os.MkdirAll(d.cfg.Inbox, 0o750); err != nil {
		return fmt.Errorf("daemon: create inbox: %w", err)
	}
	if err := os.MkdirAll(d.cfg.Outbox, 0o750); err != nil {
		return fmt.Errorf("daemon: create outbox: %w", err)
	}

	if err := ScanExisting(d.cfg.Inbox, d.processor.Handle); err != nil {
		return fmt.Errorf("daemon: scan inbox: %w", err)
	}

	d.cfg.Logger.Printf("watching %s (poll=%v)", d.cfg.Inbox, d.cfg.PollMode)
	if d.cfg.PollMode {
		return NewPollWatcher(d.cfg.Inbox, d.processor.Handle, d.cfg.PollInterval).Run(ctx)
	}
	return NewRequestWatcher(d.cfg.Inbox, d.processor.Handle).Run(ctx)
}
