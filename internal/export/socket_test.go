package export

import (
	"net"
	"syscall"
	"testing"
	"time"
)

func TestDialUnixRetry_AttemptsShrinkTowardDeadline(t *testing.T) {
	orig := dialTimeout
	defer func() { dialTimeout = orig }()

	var timeouts []time.Duration
	dialTimeout = func(_, _ string, timeout time.Duration) (net.Conn, error) {
		timeouts = append(timeouts, timeout)
		return nil, &net.OpError{Op: "dial", Net: "unix", Err: syscall.ECONNREFUSED}
	}

	total := 350 * time.Millisecond
	if _, err := dialUnixRetry("/run/absent.sock", total); err == nil {
		t.Fatal("expected error from a refused connect")
	}

	if len(timeouts) < 2 {
		t.Fatalf("expected retries within the timeout, got %d attempts", len(timeouts))
	}
	if timeouts[0] > total {
		t.Errorf("first attempt got %v, must not exceed the total %v", timeouts[0], total)
	}
	// Every retry only gets what is left until the deadline; the total
	// stall stays bounded by the configured timeout even when one
	// attempt consumes its whole budget.
	for i := 1; i < len(timeouts); i++ {
		if timeouts[i] >= timeouts[i-1] {
			t.Errorf("attempt %d got %v, want less than the previous %v", i, timeouts[i], timeouts[i-1])
		}
	}
}
