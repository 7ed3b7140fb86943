package export

import (
	"errors"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// recordSeparator terminates every record on the wire. Producers are
// responsible for payloads that contain no raw newlines.
var recordSeparator = []byte{'\n'}

// stream couples an OS handle with the framing logic that writes records
// onto it. A target either holds a fully usable stream or none at all;
// Close releases everything the stream owns, so the handle can never
// outlive its writer (or the other way around).
type stream interface {
	// WriteRecord appends one record followed by the separator as a
	// single vectored write.
	WriteRecord(p []byte) error
	Close() error
}

// fileStream appends records to a regular file via writev, so payload
// and separator land in one syscall. Combined with O_APPEND this keeps
// concurrent writers from interleaving records.
type fileStream struct {
	f *os.File
}

func newFileStream(f *os.File) *fileStream {
	return &fileStream{f: f}
}

func (s *fileStream) WriteRecord(p []byte) error {
	iov := [][]byte{p, recordSeparator}
	remaining := len(p) + len(recordSeparator)
	for remaining > 0 {
		n, err := unix.Writev(int(s.f.Fd()), iov)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}
		remaining -= n
		for n > 0 && len(iov) > 0 {
			if n >= len(iov[0]) {
				n -= len(iov[0])
				iov = iov[1:]
				continue
			}
			iov[0] = iov[0][n:]
			n = 0
		}
	}
	return nil
}

func (s *fileStream) Close() error {
	return s.f.Close()
}

// socketStream writes records to a connected unix domain socket. The
// net.Buffers write path uses writev on the socket, giving the same
// single-write framing as fileStream.
type socketStream struct {
	conn net.Conn
}

func newSocketStream(conn net.Conn) *socketStream {
	return &socketStream{conn: conn}
}

func (s *socketStream) WriteRecord(p []byte) error {
	bufs := net.Buffers{p, recordSeparator}
	_, err := bufs.WriteTo(s.conn)
	return err
}

func (s *socketStream) Close() error {
	return s.conn.Close()
}
