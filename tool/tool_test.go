package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/internal/util"
)

func testToolContext() *core.ToolContext {
	rc := core.NewRunContext(context.Background(), "run-1", nil, nil)
	return core.NewToolContext(rc, "fc-1", "tester")
}

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
	D string `json:"d" enum:"red,green,blue" description:"Constrained field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	assert.Contains(t, props, "d")

	// Required only includes non-pointer, non-omitempty exported fields
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a", "d"}, req)

	dSchema := props["d"].(map[string]any)
	assert.Equal(t, []string{"red", "green", "blue"}, dSchema["enum"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		// Use []any to mirror possible JSON decoded schema shape
		"required": []any{"x"},
	}

	// Success; whole-valued floats satisfy integer (JSON decoding yields float64)
	assert.NoError(t, util.ValidateParameters(map[string]any{"x": 5}, schema))
	assert.NoError(t, util.ValidateParameters(map[string]any{"x": 5.0}, schema))

	// Missing required
	err := util.ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	vErr, ok := err.(*util.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "x", vErr.Field)

	// Wrong type
	err = util.ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.Error(t, err)
	vErr, ok = err.(*util.ValidationError)
	require.True(t, ok)
	assert.Contains(t, vErr.Message, "expected type integer")
}

func TestValidateParameters_Enum(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"color": map[string]any{"type": "string", "enum": []string{"red", "green"}},
		},
	}

	assert.NoError(t, util.ValidateParameters(map[string]any{"color": "red"}, schema))

	err := util.ValidateParameters(map[string]any{"color": "purple"}, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in enum")
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	result, err := sumTool.Call(testToolContext(), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return 0, nil
	})

	_, err := tTool.Call(testToolContext(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.Equal(t, "test", toolErr.Tool)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	failing := NewFunctionTool("fail", "Always fails", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			return nil, errors.New("boom")
		})

	_, err := failing.Call(testToolContext(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Contains(t, toolErr.Message, "boom")
}

func TestFunctionTool_CustomToolErrorPreserved(t *testing.T) {
	custom := NewFunctionTool("custom", "Returns custom error", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			return nil, &ToolError{Tool: "custom", Message: "quota exceeded", Code: "QUOTA"}
		})

	_, err := custom.Call(testToolContext(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "QUOTA", toolErr.Code)
}

func TestNewFunctionToolFromStruct(t *testing.T) {
	type sumArgs struct {
		A float64 `json:"a" description:"First addend"`
		B float64 `json:"b" description:"Second addend"`
	}

	sumTool := NewFunctionToolFromStruct("sum", "Add numbers", sumArgs{},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})

	props := sumTool.Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")

	_, err := sumTool.Call(testToolContext(), map[string]any{"a": 1.0})
	require.Error(t, err)
	toolErr := err.(*ToolError)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_FatalOnError(t *testing.T) {
	fatal := NewFunctionTool("fatal", "Fatal tool", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) { return "ok", nil },
		func(o *FunctionOptions) { o.FatalOnError = true })

	assert.True(t, fatal.FatalOnError())
}

// -------------------- Registry Tests --------------------

func echoTool(name string) Tool {
	return NewFunctionTool(name, "Echo", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"msg": map[string]any{"type": "string"},
		},
	}, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["msg"], nil
	})
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry(echoTool("echo"), echoTool("echo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate tool name")
}

func TestRegistry_NamesPreserveOrder(t *testing.T) {
	r, err := NewRegistry(echoTool("b"), echoTool("a"), echoTool("c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, r.Names())
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_InvokeSuccess(t *testing.T) {
	r, err := NewRegistry(echoTool("echo"))
	require.NoError(t, err)

	result, err := r.Invoke(testToolContext(), "echo", `{"msg":"hello"}`)
	require.NoError(t, err)
	// String results pass through verbatim, not JSON quoted.
	assert.Equal(t, "hello", result)
}

func TestRegistry_InvokeSerializesStructuredResults(t *testing.T) {
	structured := NewFunctionTool("stats", "Stats", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			return map[string]any{"count": 3}, nil
		})
	r, err := NewRegistry(structured)
	require.NoError(t, err)

	result, err := r.Invoke(testToolContext(), "stats", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, result)
}

func TestRegistry_InvokeUnknownTool(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.Invoke(testToolContext(), "ghost", "{}")
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, CodeUnknown, toolErr.Code)
}

func TestRegistry_InvokeBadArgumentsJSON(t *testing.T) {
	r, err := NewRegistry(echoTool("echo"))
	require.NoError(t, err)

	_, err = r.Invoke(testToolContext(), "echo", `{broken`)
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestRegistry_InvokeRecoversPanic(t *testing.T) {
	panicking := NewFunctionTool("panic", "Panics", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			panic("unexpected state")
		})
	r, err := NewRegistry(panicking)
	require.NoError(t, err)

	_, err = r.Invoke(testToolContext(), "panic", "{}")
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, CodePanic, toolErr.Code)
	assert.Contains(t, toolErr.Message, "unexpected state")
	assert.NotEmpty(t, toolErr.Details)
}

func TestRegistry_Fatal(t *testing.T) {
	fatal := NewFunctionTool("fatal", "Fatal", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) { return "ok", nil },
		func(o *FunctionOptions) { o.FatalOnError = true })

	r, err := NewRegistry(fatal, echoTool("echo"))
	require.NoError(t, err)

	assert.True(t, r.Fatal("fatal"))
	assert.False(t, r.Fatal("echo"))
	assert.False(t, r.Fatal("missing"))
}

func TestRegistry_CustomSerializer(t *testing.T) {
	custom := NewFunctionTool("custom", "Custom serializer", map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) { return 42, nil },
		func(o *FunctionOptions) {
			o.Serializer = func(result any) (string, error) {
				return "answer=42", nil
			}
		})
	r, err := NewRegistry(custom)
	require.NoError(t, err)

	result, err := r.Invoke(testToolContext(), "custom", "{}")
	require.NoError(t, err)
	assert.Equal(t, "answer=42", result)
}
