package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the loader at an empty environment and a temp file root.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		"MCP_SERVER_NAME", "MCP_SERVER_VERSION", "PORT", "LOG_LEVEL", "LOG_FORMAT",
		"MCP_TRANSPORT", "MCP_CALL_TIMEOUT", "MCP_VALIDATE_INPUT", "MCP_FILE_ROOT",
		"MCP_RATE_LIMIT", "MCP_RATE_BURST", "MCP_MAX_REQUEST_BYTES", "MCP_ADMIN_ADDR",
	} {
		t.Setenv(k, "")
	}

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hello"), 0o600))
	return root
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "mcp-toolbox dev (protocol 2024-11-05)\n", out)
}

func TestList(t *testing.T) {
	root := isolate(t)

	t.Run("table", func(t *testing.T) {
		out, _, err := run(t, "", "list", "--file-root", root)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 6)
		assert.True(t, strings.HasPrefix(lines[0], "KIND"))
		assert.Contains(t, lines[1], "echo")
		assert.Contains(t, lines[2], "add")
		assert.Contains(t, lines[3], "read_file")
		assert.Contains(t, lines[4], "config://server")
		assert.Contains(t, lines[5], "file://{name}")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := run(t, "", "list", "--json", "--file-root", root)
		require.NoError(t, err)

		var listing struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
			Resources []struct {
				URI string `json:"uri"`
			} `json:"resources"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &listing))
		assert.Len(t, listing.Tools, 3)
		assert.Len(t, listing.Resources, 2)
	})
}

func TestServe_Stdio(t *testing.T) {
	root := isolate(t)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"add","arguments":{"a":1,"b":2}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"resources/read","params":{"uri":"file://hello.txt"}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"nope"}}`,
	}, "\n") + "\n"

	out, logs, err := run(t, input, "serve", "--file-root", root, "--log-level", "debug")
	require.NoError(t, err)

	var responses []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var resp map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp), scanner.Text())
		responses = append(responses, resp)
	}
	require.Len(t, responses, 5)

	result := func(i int) map[string]any { return responses[i]["result"].(map[string]any) }
	text := func(i int) string {
		return result(i)["content"].([]any)[0].(map[string]any)["text"].(string)
	}

	assert.Equal(t, "mcp-toolbox", result(0)["serverInfo"].(map[string]any)["name"])
	assert.Equal(t, "Echo: hi", text(1))
	assert.Equal(t, "{\n  \"operation\": \"1 + 2 = 3\",\n  \"result\": 3\n}", text(2))
	assert.Equal(t, "hello", result(3)["contents"].([]any)[0].(map[string]any)["text"])

	errObj := responses[4]["error"].(map[string]any)
	assert.Equal(t, float64(-32001), errObj["code"])
	assert.Equal(t, "tool not found: nope", errObj["message"])

	assert.Contains(t, logs, "registered tool")
	assert.Contains(t, logs, "server stopped")
	assert.NotContains(t, out, "registered tool", "logs must stay off stdout")
}

func TestServe_InvalidConfig(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "", "serve", "--transport", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport must be one of")
}
