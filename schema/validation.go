package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// ValidationError is one violation, located by a dotted path such as
// "user.tags[2]". The root has an empty path.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationErrors lists every violation found in one document.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}

	lines := make([]string, 0, len(e)+1)
	lines = append(lines, "validation failed:")
	for _, err := range e {
		lines = append(lines, "  - "+err.Error())
	}
	return strings.Join(lines, "\n")
}

// Validate checks a JSON document against s. It returns nil or
// ValidationErrors; malformed JSON is a single ValidationError.
func (s *Schema) Validate(data json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid JSON: %s", err)}
	}
	return s.ValidateValue(value)
}

// ValidateValue checks an already decoded value, as produced by
// encoding/json or built by hand, against s.
func (s *Schema) ValidateValue(value any) error {
	v := &validator{}
	v.check(s, "", value)
	if len(v.errs) > 0 {
		return v.errs
	}
	return nil
}

type validator struct {
	errs ValidationErrors
}

func (v *validator) fail(path, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// check validates value against s. null passes every type; whether a
// field may be absent is decided by the parent's required list.
func (v *validator) check(s *Schema, path string, value any) {
	if s == nil || value == nil {
		return
	}

	switch s.Type {
	case "object":
		v.checkObject(s, path, value)
	case "array":
		v.checkArray(s, path, value)
	case "string":
		if _, ok := value.(string); !ok {
			v.fail(path, "expected string, got %s", kindOf(value))
			return
		}
	case "integer":
		n, ok := toNumber(value)
		if !ok {
			v.fail(path, "expected integer, got %s", kindOf(value))
			return
		}
		if n != math.Trunc(n) {
			v.fail(path, "expected integer, got decimal number")
			return
		}
		v.checkRange(s, path, n)
	case "number":
		n, ok := toNumber(value)
		if !ok {
			v.fail(path, "expected number, got %s", kindOf(value))
			return
		}
		v.checkRange(s, path, n)
	case "boolean":
		if _, ok := value.(bool); !ok {
			v.fail(path, "expected boolean, got %s", kindOf(value))
			return
		}
	}

	if len(s.Enum) > 0 && !enumContains(s.Enum, value) {
		v.fail(path, "value must be one of: %v", s.Enum)
	}
}

func (v *validator) checkObject(s *Schema, path string, value any) {
	obj, ok := value.(map[string]any)
	if !ok {
		v.fail(path, "expected object, got %s", kindOf(value))
		return
	}

	for _, name := range s.Required {
		if _, ok := obj[name]; !ok {
			v.fail(joinPath(path, name), "required field is missing")
		}
	}

	// Sorted so the error list is stable.
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if field, ok := obj[name]; ok {
			v.check(s.Properties[name], joinPath(path, name), field)
		}
	}
}

func (v *validator) checkArray(s *Schema, path string, value any) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		v.fail(path, "expected array, got %s", kindOf(value))
		return
	}
	for i := 0; i < rv.Len(); i++ {
		v.check(s.Items, fmt.Sprintf("%s[%d]", path, i), rv.Index(i).Interface())
	}
}

func (v *validator) checkRange(s *Schema, path string, n float64) {
	if s.Minimum != nil && n < *s.Minimum {
		v.fail(path, "value %v is less than minimum %v", n, *s.Minimum)
	}
	if s.Maximum != nil && n > *s.Maximum {
		v.fail(path, "value %v is greater than maximum %v", n, *s.Maximum)
	}
}

// toNumber accepts json.Number from Validate as well as Go numeric values
// passed to ValidateValue.
func toNumber(value any) (float64, bool) {
	if n, ok := value.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func enumContains(enum []any, value any) bool {
	n, numeric := toNumber(value)
	for _, e := range enum {
		if numeric {
			if en, ok := toNumber(e); ok && en == n {
				return true
			}
			continue
		}
		if reflect.DeepEqual(e, value) {
			return true
		}
	}
	return false
}

// kindOf names the JSON type of a decoded value for error messages.
func kindOf(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := toNumber(value); ok {
		return "number"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
