package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFanout_DeliversToAllExporters(t *testing.T) {
	reg, _ := newTestRegistry()
	dir := t.TempDir()
	a := fileExporter(filepath.Join(dir, "a.log"))
	b := fileExporter(filepath.Join(dir, "b.log"))

	fan := NewFanout(reg, []*Exporter{a, b})
	fan.Deliver([]byte("rec"))

	for _, exp := range []*Exporter{a, b} {
		data, err := os.ReadFile(exp.Path())
		if err != nil {
			t.Fatalf("%s: %v", exp.Path(), err)
		}
		if string(data) != "rec\n" {
			t.Errorf("%s content = %q, want \"rec\\n\"", exp.Path(), data)
		}
	}
}

func TestFanout_ReplaceTearsDownOldTargets(t *testing.T) {
	reg, _ := newTestRegistry()
	dir := t.TempDir()
	oldExp := fileExporter(filepath.Join(dir, "old.log"))
	newExp := fileExporter(filepath.Join(dir, "new.log"))

	fan := NewFanout(reg, []*Exporter{oldExp})
	fan.Deliver([]byte("one"))
	if reg.Len() != 1 {
		t.Fatalf("expected 1 target, got %d", reg.Len())
	}

	fan.Replace([]*Exporter{newExp})
	if reg.Len() != 0 {
		t.Errorf("Replace should tear down existing targets, got %d", reg.Len())
	}

	fan.Deliver([]byte("two"))

	if _, err := os.Stat(newExp.Path()); err != nil {
		t.Errorf("new destination not written: %v", err)
	}
	data, err := os.ReadFile(oldExp.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "one\n" {
		t.Errorf("old destination should not receive records after Replace, got %q", data)
	}
}
