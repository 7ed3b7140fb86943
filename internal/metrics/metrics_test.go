package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestRecordCounts(t *testing.T) {
	m := New()
	m.RecordWritten("file")
	m.RecordWritten("unix")
	m.RecordDropped("unix")

	m.mu.Lock()
	if m.writtenCount != 2 {
		t.Errorf("expected 2 written, got %d", m.writtenCount)
	}
	if m.droppedCount != 1 {
		t.Errorf("expected 1 dropped, got %d", m.droppedCount)
	}
	m.mu.Unlock()
}

func TestPrometheusHandler(t *testing.T) {
	m := New()
	m.RecordWritten("file")
	m.TargetError("unix", "open")
	m.DiagnosticSuppressed("unix")
	m.TargetOpened("file")
	m.ReopenSweep()
	m.IntakeRecord("accepted")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.PrometheusHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body, _ := io.ReadAll(w.Body)
	text := string(body)
	for _, want := range []string{
		`exportd_records_written_total{transport="file"} 1`,
		`exportd_target_errors_total{op="open",transport="unix"} 1`,
		`exportd_diagnostics_suppressed_total{transport="unix"} 1`,
		`exportd_open_targets{transport="file"} 1`,
		"exportd_reopen_sweeps_total 1",
		`exportd_intake_records_total{result="accepted"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestStatsHandler(t *testing.T) {
	m := New()
	m.RecordWritten("file")
	m.RecordDropped("file")
	m.RecordDropped("unix")

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	m.StatsHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stats statsResponse
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Records.Written != 1 {
		t.Errorf("written = %d, want 1", stats.Records.Written)
	}
	if stats.Records.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", stats.Records.Dropped)
	}
}

func TestNilReceiverSafe(t *testing.T) {
	var m *Metrics
	m.RecordWritten("file")
	m.RecordDropped("file")
	m.TargetError("file", "write")
	m.DiagnosticSuppressed("file")
	m.TargetOpened("file")
	m.TargetClosed("file")
	m.ReopenSweep()
	m.IntakeRecord("invalid")
}
