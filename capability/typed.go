package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
	"github.com/felixgeelhaar/mcp-toolbox/schema"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// typedTool adapts a plain Go function to the Tool interface.
type typedTool struct {
	desc       ToolDescriptor
	handler    reflect.Value
	inputType  reflect.Type
	inputIsPtr bool
	hasContext bool
}

// Typed builds a Tool from a Go function. The input schema is generated
// from the input type's struct tags.
//
// Handler signature must be one of:
//   - func(input T) (R, error)
//   - func(ctx context.Context, input T) (R, error)
func Typed(name, description string, fn any) (Tool, error) {
	t := &typedTool{
		desc: ToolDescriptor{Name: name, Description: description},
	}
	if err := t.bind(fn); err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	return t, nil
}

// MustTyped is like Typed but panics on an invalid handler.
func MustTyped(name, description string, fn any) Tool {
	t, err := Typed(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// bind validates the handler signature and derives the input schema.
func (t *typedTool) bind(fn any) error {
	if fn == nil {
		return fmt.Errorf("handler must be a function, got nil")
	}
	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %s", fnType.Kind())
	}

	numIn := fnType.NumIn()
	if numIn < 1 || numIn > 2 {
		return fmt.Errorf("handler must have 1 or 2 parameters, got %d", numIn)
	}

	inputParamIdx := 0
	if numIn == 2 {
		if !fnType.In(0).Implements(contextType) {
			return fmt.Errorf("first parameter must be context.Context when using 2 parameters")
		}
		t.hasContext = true
		inputParamIdx = 1
	}

	inputType := fnType.In(inputParamIdx)
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
		t.inputIsPtr = true
	}
	t.inputType = inputType

	if fnType.NumOut() != 2 {
		return fmt.Errorf("handler must return (result, error), got %d return values", fnType.NumOut())
	}
	if !fnType.Out(1).Implements(errorType) {
		return fmt.Errorf("second return value must be error")
	}

	s, err := schema.GenerateFromType(inputType)
	if err != nil {
		return fmt.Errorf("failed to generate input schema: %w", err)
	}
	raw, err := s.JSON()
	if err != nil {
		return err
	}
	t.desc.InputSchema = raw
	t.handler = reflect.ValueOf(fn)
	return nil
}

func (t *typedTool) Descriptor() ToolDescriptor { return t.desc }

// Call decodes args into the handler's input type and invokes it.
func (t *typedTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	inputPtr := reflect.New(t.inputType)
	if len(args) > 0 {
		if err := json.Unmarshal(args, inputPtr.Interface()); err != nil {
			return nil, protocol.NewInvalidParams(fmt.Sprintf("failed to parse arguments: %v", err))
		}
	}

	var in []reflect.Value
	if t.hasContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	if t.inputIsPtr {
		in = append(in, inputPtr)
	} else {
		in = append(in, inputPtr.Elem())
	}

	out := t.handler.Call(in)
	if errVal := out[1].Interface(); errVal != nil {
		return nil, errVal.(error)
	}
	return out[0].Interface(), nil
}
