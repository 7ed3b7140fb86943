// Package export delivers serialized event records to configured
// destinations: append-only files and persistent unix domain sockets.
// Delivery is best-effort: a record that cannot be written is dropped
// and the failure logged, never surfaced to the producer.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Kind selects the destination semantics for an exporter.
type Kind int

const (
	// KindFile appends records to a local file, reopening it on rotation.
	KindFile Kind = iota
	// KindUnix writes records over a persistent unix domain socket
	// connection, reconnecting lazily after failures.
	KindUnix
)

// String returns the transport name used in config files and metric labels.
func (k Kind) String() string {
	switch k {
	case KindUnix:
		return "unix"
	default:
		return "file"
	}
}

// ParseKind converts a transport name from configuration to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "file":
		return KindFile, nil
	case "unix":
		return KindUnix, nil
	default:
		return 0, fmt.Errorf("export: unknown transport %q (use file or unix)", s)
	}
}

// Exporter describes one configured destination. The live connection
// state lives in the Registry; an Exporter itself is plain data and can
// be rebuilt freely from configuration.
type Exporter struct {
	// Name identifies the exporter in logs and metrics.
	Name string

	// Destination is the configured destination string. Only the
	// portion before the first space is used as the filesystem or
	// socket path; anything after it is reserved for future
	// per-destination parameters.
	Destination string

	// Kind selects file-append or unix-socket delivery.
	Kind Kind

	// ConnectTimeout bounds a unix socket connection attempt, retries
	// included. Ignored for file destinations.
	ConnectTimeout time.Duration
}

// Path returns the destination path with any trailing parameters cut off.
func (e *Exporter) Path() string {
	if i := strings.IndexByte(e.Destination, ' '); i >= 0 {
		return e.Destination[:i]
	}
	return e.Destination
}
