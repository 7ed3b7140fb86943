package export

import "sync"

// Fanout delivers each record to every configured exporter through one
// registry. The exporter set can be swapped at runtime when the
// configuration reloads. Safe for concurrent use.
type Fanout struct {
	mu        sync.RWMutex
	reg       *Registry
	exporters []*Exporter
}

// NewFanout creates a Fanout over reg with the given exporter set.
func NewFanout(reg *Registry, exporters []*Exporter) *Fanout {
	return &Fanout{
		reg:       reg,
		exporters: append([]*Exporter(nil), exporters...),
	}
}

// Deliver sends record to every exporter. Per-destination failures are
// absorbed by the registry.
func (f *Fanout) Deliver(record []byte) {
	f.mu.RLock()
	exporters := f.exporters
	f.mu.RUnlock()

	for _, exp := range exporters {
		f.reg.Send(exp, record)
	}
}

// Replace swaps in a new exporter set and tears down all existing
// targets; stale destinations close now instead of lingering until
// process exit, and surviving ones reopen lazily on the next record.
func (f *Fanout) Replace(exporters []*Exporter) {
	f.mu.Lock()
	f.exporters = append([]*Exporter(nil), exporters...)
	f.mu.Unlock()
	f.reg.Close()
}
