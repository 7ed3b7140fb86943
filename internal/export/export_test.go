package export

import "testing"

func TestExporterPath(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		want        string
	}{
		{"plain path", "/tmp/sink.log", "/tmp/sink.log"},
		{"trailing parameters", "/tmp/sink.log extra-arg", "/tmp/sink.log"},
		{"multiple parameters", "/tmp/sink.log a b c", "/tmp/sink.log"},
		{"empty", "", ""},
		{"leading space", " /tmp/sink.log", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Exporter{Destination: tt.destination}
			if got := e.Path(); got != tt.want {
				t.Errorf("Path() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"file", KindFile, false},
		{"unix", KindUnix, false},
		{"FILE", KindFile, false},
		{"tcp", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if got := KindFile.String(); got != "file" {
		t.Errorf("KindFile.String() = %q", got)
	}
	if got := KindUnix.String(); got != "unix" {
		t.Errorf("KindUnix.String() = %q", got)
	}
}
