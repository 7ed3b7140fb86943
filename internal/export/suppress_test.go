package export

import (
	"testing"
	"time"
)

func TestErrorGate_FirstFailureReports(t *testing.T) {
	now := time.Unix(1000, 0)
	g := errorGate{now: func() time.Time { return now }}

	if !g.allow() {
		t.Fatal("first failure should be reported")
	}
}

func TestErrorGate_Window(t *testing.T) {
	now := time.Unix(1000, 0)
	g := errorGate{now: func() time.Time { return now }}

	if !g.allow() {
		t.Fatal("first failure should be reported")
	}

	now = now.Add(30 * time.Second)
	if g.allow() {
		t.Error("failure 30s after last report should be suppressed")
	}

	now = now.Add(29 * time.Second)
	if g.allow() {
		t.Error("failure 59s after last report should be suppressed")
	}

	now = now.Add(time.Second)
	if !g.allow() {
		t.Error("failure 60s after last report should be reported")
	}

	// The timestamp advanced with the last report, so the window restarts.
	now = now.Add(59 * time.Second)
	if g.allow() {
		t.Error("window should restart from the most recent report")
	}
}
