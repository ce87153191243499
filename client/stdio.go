package client

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// closeGrace is how long Close waits for the subprocess to exit on its own.
const closeGrace = 5 * time.Second

// StdioTransport runs a server as a subprocess and talks to it over its
// stdin and stdout.
type StdioTransport struct {
	cmd    *exec.Cmd
	stream *StreamTransport
	stderr io.ReadCloser

	closeOnce sync.Once
	closeErr  error
}

// NewStdioTransport starts command and connects to it.
func NewStdioTransport(command string, args ...string) (*StdioTransport, error) {
	cmd := exec.Command(command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	return &StdioTransport{
		cmd:    cmd,
		stream: NewStreamTransport(stdout, stdin),
		stderr: stderr,
	}, nil
}

// Send forwards req to the subprocess.
func (t *StdioTransport) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return t.stream.Send(ctx, req)
}

// Close closes stdin, gives the subprocess closeGrace to exit and then
// kills and reaps it.
func (t *StdioTransport) Close() error {
	t.closeOnce.Do(func() {
		_ = t.stream.Close()
		select {
		case <-t.stream.Done():
		case <-time.After(closeGrace):
		}
		if t.cmd.Process != nil {
			_ = t.cmd.Process.Kill()
		}
		t.closeErr = t.cmd.Wait()
	})
	return t.closeErr
}

// Stderr returns the subprocess's stderr, where servers write their logs.
func (t *StdioTransport) Stderr() io.Reader {
	return t.stderr
}
