package export

import "os"

// destFileMode keeps newly created destination files owner-only.
// Exported records may carry anything the producing application logs,
// so this is a contract, not a default.
const destFileMode = 0o600

// fileTarget appends records to a local file. A reopen sweep closes the
// handle so the next send reopens the path, picking up rotation.
type fileTarget struct {
	targetState
}

func (t *fileTarget) ensureOpen() bool {
	if t.open() {
		return true
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, destFileMode)
	if err != nil {
		t.reportOpenError("open", err)
		return false
	}
	t.adopt(newFileStream(f))
	return true
}
