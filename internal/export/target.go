package export

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pipewise/exportd/internal/metrics"
)

// target is the live state for one destination. The two variants differ
// only in how they establish their stream; writing, demotion after a
// failed write, and closing are shared. Callers hold the target's mu
// across ensureOpen and any state mutation.
type target interface {
	// ensureOpen establishes the stream if it is not already open.
	// Idempotent: an open target returns true without touching the
	// handle. Returns false when the destination is unavailable, in
	// which case the pending record is dropped.
	ensureOpen() bool

	state() *targetState
}

// targetState carries everything both variants need: the resolved
// destination path, the open stream (nil while closed), and the
// per-target diagnostic gate. mu guards the stream and gate; it is
// per-target so a connect stall on one destination never delays sends
// to the others.
type targetState struct {
	mu      sync.Mutex
	retired bool // set by Registry.Close; a retired target never reopens
	kind    Kind
	name    string
	path    string
	stream  stream
	gate    errorGate
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func (s *targetState) state() *targetState { return s }

// open reports whether the target currently holds a usable stream.
func (s *targetState) open() bool { return s.stream != nil }

// adopt installs a freshly established stream.
func (s *targetState) adopt(st stream) {
	s.stream = st
	s.metrics.TargetOpened(s.kind.String())
}

// write appends one record to the open stream. On failure the stream is
// torn down so the next send re-attempts the open; the current record is
// dropped, not retried.
func (s *targetState) write(record []byte) {
	if err := s.stream.WriteRecord(record); err != nil {
		s.metrics.TargetError(s.kind.String(), "write")
		if s.gate.allow() {
			s.log.Error().
				Str("exporter", s.name).
				Str("destination", s.path).
				Err(err).
				Msg("write to export destination failed, record dropped")
		} else {
			s.metrics.DiagnosticSuppressed(s.kind.String())
		}
		s.demote()
		s.metrics.RecordDropped(s.kind.String())
		return
	}
	s.metrics.RecordWritten(s.kind.String())
}

// demote releases the stream without flush-error reporting; the write
// failure that got us here was already reported (or suppressed).
func (s *targetState) demote() {
	if s.stream == nil {
		return
	}
	_ = s.stream.Close()
	s.stream = nil
	s.metrics.TargetClosed(s.kind.String())
}

// shut closes the stream, reporting a flush/close failure under the same
// suppression window as write failures. Used by reopen sweeps and
// teardown; the target stays registered and may reopen later.
func (s *targetState) shut() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil {
		s.metrics.TargetError(s.kind.String(), "close")
		if s.gate.allow() {
			s.log.Error().
				Str("exporter", s.name).
				Str("destination", s.path).
				Err(err).
				Msg("closing export destination failed")
		} else {
			s.metrics.DiagnosticSuppressed(s.kind.String())
		}
	}
	s.stream = nil
	s.metrics.TargetClosed(s.kind.String())
}

// reportOpenError logs an open/connect failure, rate-limited per target.
// Permission failures get a distinct, actionable message; everything
// else carries the OS error text.
func (s *targetState) reportOpenError(op string, err error) {
	s.metrics.TargetError(s.kind.String(), "open")
	if !s.gate.allow() {
		s.metrics.DiagnosticSuppressed(s.kind.String())
		return
	}
	ev := s.log.Error().
		Str("exporter", s.name).
		Str("destination", s.path).
		Str("op", op)
	if errors.Is(err, fs.ErrPermission) {
		ev.Str("directory", filepath.Dir(s.path)).
			Msg("permission denied opening export destination; check write access to the directory and its parents")
		return
	}
	ev.Err(err).Msg("opening export destination failed")
}
