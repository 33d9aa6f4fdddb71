package reload

import "github.com/OpenFluxGate/fluxgate-sub000/internal/logging"

// None is the no-autonomous-reload strategy: it accepts listeners and
// honors manual TriggerReload/TriggerReloadAll calls, but runs no
// background loop of its own (spec §4.5's "none" option, for callers who
// restart the process to pick up rule changes).
type None struct {
	broadcaster
}

// NewNone builds a None strategy.
func NewNone(logger logging.Logger) *None {
	return &None{broadcaster: newBroadcaster(logger)}
}

func (n *None) Start() error { return nil }
func (n *None) Stop() error  { return nil }

var _ Strategy = (*None)(nil)
