// Package intake reads newline-delimited JSON event records from stdin
// or a listening unix socket and hands them to the delivery pipeline.
// Malformed, oversized, or over-limit records are dropped and counted;
// intake never applies back-pressure to producers.
package intake

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pipewise/exportd/internal/config"
	"github.com/pipewise/exportd/internal/metrics"
)

// Intake record results used as metric labels.
const (
	resultAccepted  = "accepted"
	resultInvalid   = "invalid"
	resultOversize  = "oversize"
	resultThrottled = "throttled"
)

var errLineTooLong = errors.New("intake: line exceeds max_line_bytes")

// Intake consumes raw record lines from a configured source.
type Intake struct {
	cfg     config.Intake
	log     zerolog.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates an Intake for the configured source. m may be nil.
func New(cfg config.Intake, log zerolog.Logger, m *metrics.Metrics) *Intake {
	i := &Intake{
		cfg:     cfg,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
	if n := cfg.MaxRecordsPerSecond; n > 0 {
		i.limiter = rate.NewLimiter(rate.Limit(n), n)
	}
	return i
}

// Run reads records until ctx is cancelled or the source is exhausted,
// calling deliver for each accepted record. For a unix source, deliver
// may be called concurrently from multiple producer connections.
func (i *Intake) Run(ctx context.Context, deliver func(record []byte)) error {
	if i.cfg.Source == config.SourceStdin {
		return i.consume(ctx, os.Stdin, deliver)
	}
	return i.listen(ctx, i.cfg.SocketPath(), deliver)
}

// listen accepts producer connections on a unix socket and consumes
// records from each.
func (i *Intake) listen(ctx context.Context, path string, deliver func(record []byte)) error {
	// A socket file left behind by a previous run blocks the listen.
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("intake: listening on %s: %w", path, err)
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	i.log.Info().Str("socket", path).Msg("intake listening")

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("intake: accept: %w", err)
		}
		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			// Cancellation must unblock the read on an idle producer
			// connection, or wg.Wait would hold Run open forever.
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-ctx.Done():
				case <-done:
				}
				_ = c.Close()
			}()
			if err := i.consume(ctx, c, deliver); err != nil {
				i.log.Warn().Err(err).Msg("intake connection error")
			}
		}(conn)
	}
}

// consume reads record lines from r until EOF or ctx cancellation.
func (i *Intake) consume(ctx context.Context, r io.Reader, deliver func(record []byte)) error {
	br := bufio.NewReaderSize(r, 64<<10)
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := readLine(br, i.cfg.MaxLineBytes)
		switch {
		case errors.Is(err, errLineTooLong):
			i.metrics.IntakeRecord(resultOversize)
			i.log.Warn().Int("max_line_bytes", i.cfg.MaxLineBytes).Msg("dropping oversized record")
			continue
		case errors.Is(err, io.EOF):
			if len(line) > 0 {
				i.process(line, deliver)
			}
			return nil
		case err != nil:
			// A connection closed by shutdown is not a producer error.
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("intake: read: %w", err)
		}
		i.process(line, deliver)
	}
}

// process validates one line, stamps identity fields, and delivers it.
func (i *Intake) process(line []byte, deliver func(record []byte)) {
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	if i.limiter != nil && !i.limiter.Allow() {
		i.metrics.IntakeRecord(resultThrottled)
		return
	}

	var fields map[string]any
	if err := json.Unmarshal(line, &fields); err != nil {
		i.metrics.IntakeRecord(resultInvalid)
		i.log.Warn().Err(err).Msg("dropping non-JSON record")
		return
	}
	if _, ok := fields["event_id"]; !ok {
		fields["event_id"] = uuid.NewString()
	}
	if _, ok := fields["received_at"]; !ok {
		fields["received_at"] = i.now().UTC().Format(time.RFC3339Nano)
	}

	out, err := json.Marshal(fields)
	if err != nil {
		i.metrics.IntakeRecord(resultInvalid)
		return
	}
	i.metrics.IntakeRecord(resultAccepted)
	deliver(out)
}

// readLine returns one line without its terminator. Lines longer than
// max are consumed to their end and reported as errLineTooLong so one
// runaway producer line cannot stall the whole intake.
func readLine(br *bufio.Reader, max int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > max+1 {
			if errors.Is(err, bufio.ErrBufferFull) {
				if skipErr := skipLine(br); skipErr != nil {
					return nil, skipErr
				}
			}
			return nil, errLineTooLong
		}
		switch {
		case err == nil:
			return bytes.TrimSuffix(line, []byte{'\n'}), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 {
				return nil, io.EOF
			}
			return line, io.EOF
		default:
			return nil, err
		}
	}
}

// skipLine discards input through the next newline or EOF.
func skipLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		switch {
		case err == nil, errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return err
		}
	}
}
