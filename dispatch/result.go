package dispatch

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/mcp-toolbox/capability"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// toolResult wraps a tool's return value into the content envelope.
// Strings are used verbatim, ready-made results pass through, anything
// else becomes canonical JSON text.
func toolResult(value any) (*protocol.ToolResult, error) {
	switch v := value.(type) {
	case string:
		return protocol.NewTextResult(v), nil
	case *protocol.ToolResult:
		if v == nil {
			return protocol.NewTextResult(""), nil
		}
		return v, nil
	case protocol.ToolResult:
		return &v, nil
	}

	text, err := CanonicalText(value)
	if err != nil {
		return nil, err
	}
	return protocol.NewTextResult(text), nil
}

// resourceContents wraps a resource's return value. Binary content is
// decoded as UTF-8 text with invalid sequences replaced.
func resourceContents(uri, mimeType string, value any) (protocol.ResourceContents, error) {
	out := protocol.ResourceContents{URI: uri, MimeType: mimeType}

	switch v := value.(type) {
	case string:
		out.Text = v
	case []byte:
		out.Text = strings.ToValidUTF8(string(v), "\uFFFD")
	case *capability.Contents:
		if v != nil {
			applyContents(&out, *v)
		}
	case capability.Contents:
		applyContents(&out, v)
	default:
		text, err := CanonicalText(value)
		if err != nil {
			return out, err
		}
		out.Text = text
	}
	return out, nil
}

func applyContents(out *protocol.ResourceContents, c capability.Contents) {
	if c.MimeType != "" {
		out.MimeType = c.MimeType
	}
	out.Text = c.Text
	if len(c.Blob) > 0 {
		out.Blob = base64.StdEncoding.EncodeToString(c.Blob)
	}
}

// CanonicalText renders value as indented JSON with object keys sorted,
// so equal values always produce identical text.
func CanonicalText(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	// Round-trip through a generic value so struct fields are sorted too.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(generic); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// executionError converts a capability failure into a protocol error.
// Protocol errors raised by the capability itself are kept, except
// NotFound: that code is reserved for an unregistered capability, so a
// handler reporting a missing backing object fails with ExecutionError.
func executionError(kind Kind, id string, err error) error {
	var mcpErr *protocol.Error
	if errors.As(err, &mcpErr) && mcpErr.Code != protocol.CodeNotFound {
		return mcpErr
	}
	return protocol.NewExecutionError(fmt.Sprintf("%s %s failed: %s", kind, id, err.Error()))
}
