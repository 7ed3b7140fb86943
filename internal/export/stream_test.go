package export

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStream_WriteRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}

	s := newFileStream(f)
	if err := s.WriteRecord([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteRecord([]byte("")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n\n" {
		t.Errorf("content = %q, want %q", data, "hello\n\n")
	}
}

func TestFileStream_WriteAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}

	s := newFileStream(f)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteRecord([]byte("x")); err == nil {
		t.Error("write on a closed stream should fail")
	}
}

func TestSocketStream_WriteRecord(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "s.sock")
	srv := startSocketServer(t, sockPath)

	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	s := newSocketStream(conn)
	defer func() { _ = s.Close() }()

	if err := s.WriteRecord([]byte(`{"k":"v"}`)); err != nil {
		t.Fatal(err)
	}
	if got := srv.waitLine(t); got != `{"k":"v"}` {
		t.Errorf("server read %q", got)
	}
}
