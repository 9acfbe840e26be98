package alert

// Dispatcher fans out alert events to matching webhook configurations.
type Dispatcher struct {
	configs []AlertConfig
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty (callers should nil-check).
func NewDispatcher(configs []AlertConfig) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	return &Dispatcher{configs: configs}
}

// Dispatch sends the event to all webhooks whose Events list contains
// the decision outcome. Fires goroutines — the decision path never
// blocks on a slow webhook.
func (d *Dispatcher) Dispatch(event AlertEvent) {
	for _, cfg := range d.configs {
		if matches(cfg.Events, event.Outcome) {
			go Send(cfg, event)
		}
	}
}

func matches(events []string, outcome string) bool {
	for _, e := range events {
		if e == outcome {
			return true
		}
	}
	return false
}
