package export

import "time"

// suppressWindow is the minimum interval between diagnostics for one
// target. A destination that stays down produces at most one log line
// per window instead of one per dropped record.
const suppressWindow = 60 * time.Second

// errorGate rate-limits diagnostics for a single target. Open, write,
// and close failures share the one timestamp: it does not matter which
// path notices that a sink is down, the next report waits out the same
// window.
type errorGate struct {
	last time.Time
	now  func() time.Time
}

// allow reports whether a diagnostic may be emitted now. When the window
// has elapsed (or no error was ever reported) it advances the timestamp
// and returns true; otherwise the caller must stay quiet.
func (g *errorGate) allow() bool {
	t := g.now()
	if !g.last.IsZero() && t.Sub(g.last) < suppressWindow {
		return false
	}
	g.last = t
	return true
}
