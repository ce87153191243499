package builtin_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/mcp-toolbox/builtin"
	"github.com/felixgeelhaar/mcp-toolbox/capability"
	"github.com/felixgeelhaar/mcp-toolbox/config"
	"github.com/felixgeelhaar/mcp-toolbox/dispatch"
	"github.com/felixgeelhaar/mcp-toolbox/protocol"
	"github.com/felixgeelhaar/mcp-toolbox/registry"
)

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, string) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello from disk"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.json"), []byte(`{"k":1}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.bin"), []byte{0xff, 0xfe, 0x00}, 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o700))

	cfg := config.Default()
	cfg.FileRoot = root

	tools := capability.NewToolRegistry(registry.RejectDuplicates())
	resources := capability.NewResourceRegistry(registry.RejectDuplicates())
	require.NoError(t, builtin.Register(tools, resources, cfg))

	return dispatch.New(tools, resources, dispatch.WithInputValidation()), root
}

func callText(t *testing.T, d *dispatch.Dispatcher, name, args string) string {
	t.Helper()
	result, err := d.CallTool(context.Background(), name, json.RawMessage(args))
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	return result.Content[0].Text
}

func TestRegister(t *testing.T) {
	d, _ := newDispatcher(t)

	var names []string
	for _, tool := range d.ListTools(context.Background()).Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"echo", "add", "read_file"}, names)

	var uris []string
	for _, res := range d.ListResources(context.Background()).Resources {
		uris = append(uris, res.URI)
	}
	assert.Equal(t, []string{"config://server", "file://{name}"}, uris)

	t.Run("registering twice is rejected in strict mode", func(t *testing.T) {
		tools := capability.NewToolRegistry(registry.RejectDuplicates())
		resources := capability.NewResourceRegistry(registry.RejectDuplicates())
		require.NoError(t, builtin.Register(tools, resources, config.Default()))
		assert.ErrorIs(t, builtin.Register(tools, resources, config.Default()), registry.ErrDuplicate)
	})
}

func TestEcho(t *testing.T) {
	d, _ := newDispatcher(t)

	assert.Equal(t, "Echo: hi", callText(t, d, "echo", `{"message":"hi"}`))

	var schema map[string]any
	require.NoError(t, json.Unmarshal(d.ListTools(context.Background()).Tools[0].InputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"message"}, schema["required"])

	_, err := d.CallTool(context.Background(), "echo", nil)
	assert.ErrorIs(t, err, protocol.ErrInvalidParams)
}

func TestAdd(t *testing.T) {
	d, _ := newDispatcher(t)

	text := callText(t, d, "add", `{"a":1,"b":2}`)
	assert.Equal(t, "{\n  \"operation\": \"1 + 2 = 3\",\n  \"result\": 3\n}", text)

	text = callText(t, d, "add", `{"a":1.5,"b":-4}`)
	var got builtin.AddResult
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	assert.Equal(t, builtin.AddResult{Result: -2.5, Operation: "1.5 + -4 = -2.5"}, got)

	_, err := d.CallTool(context.Background(), "add", json.RawMessage(`{"a":"one","b":2}`))
	assert.ErrorIs(t, err, protocol.ErrInvalidParams)
}

func TestReadFile(t *testing.T) {
	d, root := newDispatcher(t)

	assert.Equal(t, "hello from disk", callText(t, d, "read_file", `{"path":"notes.txt"}`))

	tests := []struct {
		name string
		args string
		want error
	}{
		{"missing file", `{"path":"absent.txt"}`, protocol.ErrExecution},
		{"parent escape", `{"path":"../secret"}`, protocol.ErrExecution},
		{"absolute path", `{"path":"/etc/passwd"}`, protocol.ErrExecution},
		{"directory", `{"path":"sub"}`, protocol.ErrExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.CallTool(context.Background(), "read_file", json.RawMessage(tt.args))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("missing file is not reported as an unknown tool", func(t *testing.T) {
		_, err := d.CallTool(context.Background(), "read_file", json.RawMessage(`{"path":"absent.txt"}`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, protocol.ErrNotFound)

		var mcpErr *protocol.Error
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, protocol.CodeExecutionError, mcpErr.Code)
		assert.Equal(t, "tool read_file failed: file not found: absent.txt: file does not exist", mcpErr.Message)
	})

	t.Run("symlink out of root", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "outside.txt")
		require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))
		if err := os.Symlink(outside, filepath.Join(root, "link.txt")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		_, err := d.CallTool(context.Background(), "read_file", json.RawMessage(`{"path":"link.txt"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, protocol.ErrExecution)
	})
}

func TestServerInfoResource(t *testing.T) {
	d, _ := newDispatcher(t)

	result, err := d.ReadResource(context.Background(), "config://server")
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)

	c := result.Contents[0]
	assert.Equal(t, "config://server", c.URI)
	assert.Equal(t, "application/json", c.MimeType)

	var info builtin.ServerInfo
	require.NoError(t, json.Unmarshal([]byte(c.Text), &info))
	assert.Equal(t, builtin.ServerInfo{
		Name:            "mcp-toolbox",
		Version:         "1.0.0",
		ProtocolVersion: protocol.MCPVersion,
		Transport:       "stdio",
	}, info)
}

func TestFileResource(t *testing.T) {
	d, _ := newDispatcher(t)

	t.Run("text file", func(t *testing.T) {
		result, err := d.ReadResource(context.Background(), "file://notes.txt")
		require.NoError(t, err)
		c := result.Contents[0]
		assert.Equal(t, "file://notes.txt", c.URI)
		assert.Equal(t, "hello from disk", c.Text)
		assert.Contains(t, c.MimeType, "text/plain")
	})

	t.Run("mime type from extension", func(t *testing.T) {
		result, err := d.ReadResource(context.Background(), "file://data.json")
		require.NoError(t, err)
		assert.Equal(t, "application/json", result.Contents[0].MimeType)
		assert.Equal(t, `{"k":1}`, result.Contents[0].Text)
	})

	t.Run("binary file is a blob", func(t *testing.T) {
		result, err := d.ReadResource(context.Background(), "file://blob.bin")
		require.NoError(t, err)
		c := result.Contents[0]
		assert.Empty(t, c.Text)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00}), c.Blob)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := d.ReadResource(context.Background(), "file://absent.txt")
		assert.ErrorIs(t, err, protocol.ErrExecution)
		assert.Contains(t, err.Error(), "resource file://absent.txt failed: file not found")
	})

	t.Run("nested path does not match the template", func(t *testing.T) {
		_, err := d.ReadResource(context.Background(), "file://sub/x.txt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resource not found")
	})
}
