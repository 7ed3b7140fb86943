package export

import (
	"errors"
	"net"
	"syscall"
	"time"
)

// connectRetryInterval paces connection retries while the timeout has
// not elapsed. Matches the pace a freshly restarted collector needs to
// re-create its listening socket.
const connectRetryInterval = 100 * time.Millisecond

// socketTarget holds a persistent connection to a unix domain socket.
// Reopen sweeps leave it alone: the endpoint does not rotate, and
// tearing it down would only force a reconnect storm.
type socketTarget struct {
	targetState
	connectTimeout time.Duration
}

func (t *socketTarget) ensureOpen() bool {
	if t.open() {
		return true
	}
	conn, err := dialUnixRetry(t.path, t.connectTimeout)
	if err != nil {
		t.reportOpenError("connect", err)
		return false
	}
	t.adopt(newSocketStream(conn))
	return true
}

// dialTimeout is swapped in tests.
var dialTimeout = net.DialTimeout

// dialUnixRetry connects to a unix socket, retrying while the listener
// is briefly absent or its backlog is full, until timeout elapses. This
// is a deliberate bounded stall: the caller accepts up to timeout of
// latency on the send that opens the connection. Each attempt only gets
// the time remaining until the deadline, so a stalling connect cannot
// push the total past the timeout.
func dialUnixRetry(path string, timeout time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := dialTimeout("unix", path, time.Until(deadline))
		if err == nil {
			return conn, nil
		}
		if !retryableDialError(err) {
			return nil, err
		}
		if !time.Now().Add(connectRetryInterval).Before(deadline) {
			return nil, err
		}
		time.Sleep(connectRetryInterval)
	}
}

// retryableDialError reports whether a connect failure is worth retrying
// within the timeout. Refused connections and full backlogs are
// transient (the collector may be restarting); anything else, like a
// missing socket path, will not fix itself within the window.
func retryableDialError(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EAGAIN)
}
