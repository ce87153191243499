package schema

import (
	"encoding/json"
	"testing"
)

type echoArgs struct {
	Message string `json:"message" jsonschema:"required,description=Message to echo back"`
}

type addArgs struct {
	A float64 `json:"a" jsonschema:"required"`
	B float64 `json:"b" jsonschema:"required"`
}

type readArgs struct {
	Path     string   `json:"path" jsonschema:"required"`
	MaxBytes int      `json:"maxBytes" jsonschema:"minimum=1,maximum=1048576"`
	Encoding string   `json:"encoding" jsonschema:"enum=utf-8|latin1"`
	Tags     []string `json:"tags"`
	internal string
	Skipped  string `json:"-"`
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		wantProps map[string]string
		wantReq   []string
	}{
		{
			name:      "echo arguments",
			value:     echoArgs{},
			wantProps: map[string]string{"message": "string"},
			wantReq:   []string{"message"},
		},
		{
			name:      "add arguments",
			value:     addArgs{},
			wantProps: map[string]string{"a": "number", "b": "number"},
			wantReq:   []string{"a", "b"},
		},
		{
			name:      "pointer to struct",
			value:     &echoArgs{},
			wantProps: map[string]string{"message": "string"},
			wantReq:   []string{"message"},
		},
		{
			name:  "read arguments skip unexported and dash fields",
			value: readArgs{},
			wantProps: map[string]string{
				"path":     "string",
				"maxBytes": "integer",
				"encoding": "string",
				"tags":     "array",
			},
			wantReq: []string{"path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Generate(tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Type != "object" {
				t.Errorf("Type = %q, want %q", s.Type, "object")
			}
			if len(s.Properties) != len(tt.wantProps) {
				t.Fatalf("expected %d properties, got %d", len(tt.wantProps), len(s.Properties))
			}
			for name, typ := range tt.wantProps {
				prop, ok := s.Properties[name]
				if !ok {
					t.Fatalf("expected %q property", name)
				}
				if prop.Type != typ {
					t.Errorf("%s.Type = %q, want %q", name, prop.Type, typ)
				}
			}
			if len(s.Required) != len(tt.wantReq) {
				t.Fatalf("Required = %v, want %v", s.Required, tt.wantReq)
			}
			for i, r := range tt.wantReq {
				if s.Required[i] != r {
					t.Errorf("Required[%d] = %q, want %q", i, s.Required[i], r)
				}
			}
		})
	}
}

func TestGenerate_TagOptions(t *testing.T) {
	s, err := Generate(readArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	maxBytes := s.Properties["maxBytes"]
	if maxBytes.Minimum == nil || *maxBytes.Minimum != 1 {
		t.Errorf("maxBytes.Minimum = %v, want 1", maxBytes.Minimum)
	}
	if maxBytes.Maximum == nil || *maxBytes.Maximum != 1048576 {
		t.Errorf("maxBytes.Maximum = %v, want 1048576", maxBytes.Maximum)
	}

	enc := s.Properties["encoding"]
	if len(enc.Enum) != 2 || enc.Enum[0] != "utf-8" || enc.Enum[1] != "latin1" {
		t.Errorf("encoding.Enum = %v, want [utf-8 latin1]", enc.Enum)
	}

	if s.Properties["tags"].Items == nil || s.Properties["tags"].Items.Type != "string" {
		t.Error("tags.Items should be a string schema")
	}

	msg, _ := Generate(echoArgs{})
	if msg.Properties["message"].Description != "Message to echo back" {
		t.Errorf("Description = %q", msg.Properties["message"].Description)
	}
}

func TestParse(t *testing.T) {
	t.Run("decodes declared schema", func(t *testing.T) {
		raw := json.RawMessage(`{"type":"object","properties":{"message":{"type":"string"}},"required":["message"]}`)

		s, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Type != "object" {
			t.Errorf("Type = %q, want object", s.Type)
		}
		if s.Properties["message"].Type != "string" {
			t.Errorf("message.Type = %q, want string", s.Properties["message"].Type)
		}
	})

	t.Run("empty document accepts anything", func(t *testing.T) {
		s, err := Parse(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.Validate(json.RawMessage(`{"anything":1}`)); err != nil {
			t.Errorf("expected valid, got %v", err)
		}
	})

	t.Run("rejects malformed document", func(t *testing.T) {
		if _, err := Parse(json.RawMessage(`{"type":`)); err == nil {
			t.Error("expected error")
		}
	})
}

func TestSchema_JSONRoundTrip(t *testing.T) {
	s, _ := Generate(echoArgs{})

	raw, err := s.JSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Required) != 1 || parsed.Required[0] != "message" {
		t.Errorf("Required = %v, want [message]", parsed.Required)
	}
}
