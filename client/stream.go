package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// StreamTransport speaks newline-delimited JSON-RPC over a reader/writer
// pair, such as a subprocess's stdout and stdin or an in-memory pipe.
// Responses are matched to requests by ID, so concurrent Sends are safe.
type StreamTransport struct {
	w      io.Writer
	closer io.Closer

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *protocol.Response
	closed  bool
	done    chan struct{}
}

// NewStreamTransport reads responses from r and writes requests to w.
// Close closes w when it is an io.Closer.
func NewStreamTransport(r io.Reader, w io.Writer) *StreamTransport {
	t := &StreamTransport{
		w:       w,
		pending: make(map[string]chan *protocol.Response),
		done:    make(chan struct{}),
	}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	go t.readLoop(r)
	return t
}

// Send writes req and, unless it is a notification, waits for the response.
func (t *StreamTransport) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var ch chan *protocol.Response
	key := string(req.ID)
	if !req.IsNotification() {
		ch = make(chan *protocol.Response, 1)
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return nil, ErrClosed
		}
		t.pending[key] = ch
		t.mu.Unlock()

		defer func() {
			t.mu.Lock()
			delete(t.pending, key)
			t.mu.Unlock()
		}()
	}

	t.writeMu.Lock()
	_, err = t.w.Write(append(data, '\n'))
	t.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	if ch == nil {
		return nil, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, ErrClosed
	case resp := <-ch:
		return resp, nil
	}
}

// Close stops accepting requests and closes the writer.
func (t *StreamTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// Done is closed once the read side reaches EOF.
func (t *StreamTransport) Done() <-chan struct{} {
	return t.done
}

func (t *StreamTransport) readLoop(r io.Reader) {
	defer func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		close(t.done)
	}()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		var resp protocol.Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil || len(resp.ID) == 0 {
			continue
		}

		t.mu.Lock()
		ch, ok := t.pending[string(resp.ID)]
		t.mu.Unlock()
		if ok {
			ch <- &resp
		}
	}
}
