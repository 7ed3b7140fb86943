package export

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipewise/exportd/internal/metrics"
)

// Registry owns the live targets for a set of exporters. Targets are
// created lazily on the first send for an exporter, swept on Reopen,
// and destroyed on Close. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	targets map[*Exporter]target
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRegistry creates an empty registry. m may be nil when metrics are
// disabled.
func NewRegistry(log zerolog.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		targets: make(map[*Exporter]target),
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Send delivers one record to the exporter's destination, creating and
// opening the target as needed. Errors are absorbed: a record that
// cannot be delivered is dropped and the failure logged, rate-limited
// per destination. The only blocking Send can do beyond the write
// itself is the exporter's bounded connect stall, and that stall is
// confined to this exporter: the registry lock only covers the map,
// opening and writing run under the target's own lock.
func (r *Registry) Send(exp *Exporter, record []byte) {
	r.mu.Lock()
	t, ok := r.targets[exp]
	if !ok {
		t = r.createTarget(exp)
	}
	r.mu.Unlock()

	st := t.state()
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.retired {
		// Close won the race; a fresh send will re-create the target.
		r.metrics.RecordDropped(exp.Kind.String())
		return
	}
	if !t.ensureOpen() {
		r.metrics.RecordDropped(exp.Kind.String())
		return
	}
	st.write(record)
}

// createTarget registers a closed target for exp. Creation never
// touches the destination; the first write triggers the open.
// Caller holds r.mu.
func (r *Registry) createTarget(exp *Exporter) target {
	var t target
	switch exp.Kind {
	case KindUnix:
		t = &socketTarget{connectTimeout: exp.ConnectTimeout}
	default:
		t = &fileTarget{}
	}

	st := t.state()
	st.kind = exp.Kind
	st.name = exp.Name
	st.path = exp.Path()
	st.gate = errorGate{now: r.now}
	st.log = r.log
	st.metrics = r.metrics

	r.targets[exp] = t
	return t
}

// Reopen closes every file target so its next send reopens the path,
// picking up log rotation. Socket targets are left connected: the
// endpoint does not rotate. Registry membership is unchanged.
func (r *Registry) Reopen() {
	r.metrics.ReopenSweep()
	for _, t := range r.snapshot() {
		st := t.state()
		st.mu.Lock()
		if st.kind == KindFile {
			st.shut()
		}
		st.mu.Unlock()
	}
}

// Close tears down every target of both kinds and empties the registry.
// A later send re-creates its target from scratch. Targets are retired
// under their own lock so an in-flight send cannot reopen one past
// teardown.
func (r *Registry) Close() {
	r.mu.Lock()
	targets := make([]target, 0, len(r.targets))
	for _, t := range r.targets {
		targets = append(targets, t)
	}
	r.targets = make(map[*Exporter]target)
	r.mu.Unlock()

	for _, t := range targets {
		st := t.state()
		st.mu.Lock()
		st.shut()
		st.retired = true
		st.mu.Unlock()
	}
}

func (r *Registry) snapshot() []target {
	r.mu.Lock()
	defer r.mu.Unlock()
	targets := make([]target, 0, len(r.targets))
	for _, t := range r.targets {
		targets = append(targets, t)
	}
	return targets
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.targets)
}
