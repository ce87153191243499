package builtin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/mcp-toolbox/capability"
	"github.com/felixgeelhaar/mcp-toolbox/config"
)

// EchoInput is the argument of the echo tool.
type EchoInput struct {
	Message string `json:"message" jsonschema:"required,description=Message to echo back"`
}

// AddInput is the argument of the add tool.
type AddInput struct {
	A float64 `json:"a" jsonschema:"required,description=First operand"`
	B float64 `json:"b" jsonschema:"required,description=Second operand"`
}

// AddResult is the structured result of the add tool.
type AddResult struct {
	Result    float64 `json:"result"`
	Operation string  `json:"operation"`
}

// ReadFileInput is the argument of the read_file tool.
type ReadFileInput struct {
	Path string `json:"path" jsonschema:"required,description=Path relative to the file root"`
}

// Echo returns the echo tool.
func Echo() capability.Tool {
	return capability.MustTyped("echo", "Echo back the input message", func(in EchoInput) (string, error) {
		return "Echo: " + in.Message, nil
	})
}

// Add returns the add tool.
func Add() capability.Tool {
	return capability.MustTyped("add", "Add two numbers", func(in AddInput) (AddResult, error) {
		sum := in.A + in.B
		return AddResult{
			Result:    sum,
			Operation: fmt.Sprintf("%s + %s = %s", formatNumber(in.A), formatNumber(in.B), formatNumber(sum)),
		}, nil
	})
}

// ReadFile returns the read_file tool, confined to root.
func ReadFile(root string) capability.Tool {
	fsys := NewFileRoot(root)
	return capability.MustTyped("read_file", "Read a text file under the server's file root",
		func(ctx context.Context, in ReadFileInput) (string, error) {
			data, err := fsys.ReadFile(ctx, in.Path)
			if err != nil {
				return "", err
			}
			return string(data), nil
		})
}

// Tools returns the builtin tools in registration order.
func Tools(cfg config.Config) []capability.Tool {
	return []capability.Tool{
		Echo(),
		Add(),
		ReadFile(cfg.FileRoot),
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
