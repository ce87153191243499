package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/felixgeelhaar/mcp-toolbox/middleware"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// DefaultMaxLineBytes bounds a single newline-delimited message on stdio.
const DefaultMaxLineBytes = 4 * middleware.MB

// Stdio implements MCP transport over stdin/stdout with one JSON message
// per line. Requests are served one at a time, in arrival order.
type Stdio struct {
	in           io.Reader
	out          io.Writer
	logger       middleware.Logger
	maxLineBytes int

	mu sync.Mutex
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = w
	}
}

// WithStdioLogger sets the logger for framing problems.
func WithStdioLogger(l middleware.Logger) StdioOption {
	return func(s *Stdio) {
		s.logger = l
	}
}

// WithMaxLineBytes bounds the size of a single message.
func WithMaxLineBytes(n int) StdioOption {
	return func(s *Stdio) {
		s.maxLineBytes = n
	}
}

// NewStdio creates a new stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:           os.Stdin,
		out:          os.Stdout,
		logger:       middleware.NopLogger{},
		maxLineBytes: DefaultMaxLineBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

// message is one line read from stdin. An oversized line is discarded
// and delivered with tooLong set so it can still be answered.
type message struct {
	data    []byte
	tooLong bool
}

// Serve processes requests from stdin until EOF or ctx is canceled.
// A line longer than the configured maximum is answered with an
// InvalidRequest error and skipped; reading continues with the next line.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	reader := bufio.NewReaderSize(s.in, min(64*1024, s.maxLineBytes))

	lines := make(chan message)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		for {
			msg, err := s.readLine(reader)
			if len(msg.data) > 0 || msg.tooLong {
				select {
				case lines <- msg:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	ctx = protocol.ContextWithRequestMeta(ctx, protocol.RequestMeta{protocol.MetaTransport: "stdio"})

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if msg.tooLong {
				s.logger.Warn("discarding oversized message", middleware.F("max_bytes", s.maxLineBytes))
				s.writeResponse(protocol.NewErrorResponse(nil,
					protocol.NewInvalidRequest(fmt.Sprintf("message exceeds %d bytes", s.maxLineBytes))))
				continue
			}
			s.handleLine(ctx, handler, msg.data)
		}
	}
}

// readLine reads up to the next newline. Bytes beyond maxLineBytes are
// dropped instead of buffered, so an oversized line costs no memory.
func (s *Stdio) readLine(r *bufio.Reader) (message, error) {
	var msg message
	for {
		chunk, err := r.ReadSlice('\n')
		if !msg.tooLong {
			msg.data = append(msg.data, chunk...)
			if len(bytes.TrimRight(msg.data, "\r\n")) > s.maxLineBytes {
				msg.tooLong = true
				msg.data = nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return msg, err
	}
}

func (s *Stdio) handleLine(ctx context.Context, handler Handler, line []byte) {
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}

	req, errResp := protocol.ParseRequest(line)
	if errResp != nil {
		s.logger.Warn("discarding malformed message", middleware.F("error", errResp.Error.Message))
		s.writeResponse(errResp)
		return
	}

	if resp := process(ctx, handler, req); resp != nil {
		s.writeResponse(resp)
	}
}

func (s *Stdio) writeResponse(resp *protocol.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", middleware.F("error", err.Error()))
		data, _ = json.Marshal(protocol.NewErrorResponse(resp.ID, protocol.NewInternalError("failed to encode response")))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.out.Write(append(data, '\n'))
}
