package capability

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

// ExtractParams decodes URI template parameters into a struct.
// Fields are matched by their `uri` tag, falling back to the `json` tag;
// absent parameters leave the zero value.
//
//	type FileParams struct {
//	    Name string `uri:"name"`
//	}
//
//	p, err := capability.ExtractParams[FileParams](capability.ParamsFromContext(ctx))
//
// A value that does not parse as the field's type is the caller's fault
// and is reported as InvalidParams. A struct the decoder cannot fill is a
// programming error and returned as a plain error.
func ExtractParams[T any](params map[string]string) (T, error) {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	if rv.Kind() != reflect.Struct {
		return out, fmt.Errorf("extract params: %s is not a struct", rv.Type())
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := paramKey(sf)
		if key == "" {
			continue
		}
		raw, ok := params[key]
		if !ok {
			continue
		}

		if err := assign(rv.Field(i), raw); err != nil {
			if _, unsupported := err.(unsupportedKindError); unsupported {
				return out, fmt.Errorf("extract params: field %s: %w", sf.Name, err)
			}
			return out, protocol.NewInvalidParams(fmt.Sprintf("invalid uri parameter %s: %v", key, err))
		}
	}
	return out, nil
}

func paramKey(sf reflect.StructField) string {
	if key := sf.Tag.Get("uri"); key != "" {
		return key
	}
	key, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if key == "-" {
		return ""
	}
	return key
}

type unsupportedKindError reflect.Kind

func (e unsupportedKindError) Error() string {
	return "unsupported kind " + reflect.Kind(e).String()
}

// assign parses raw into v, honouring the bit size of v's type.
func assign(v reflect.Value, raw string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	default:
		return unsupportedKindError(v.Kind())
	}
	return nil
}
