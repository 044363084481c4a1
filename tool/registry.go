package tool

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/hupe1980/agentloop/core"
)

// Registry binds tool names to implementations for one agent. Tool names are
// unique within a registry; construction fails on duplicates. A Registry is
// immutable after construction and safe for concurrent use.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry from the given tools, preserving registration
// order and rejecting duplicate names.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }

// Fatal reports whether the named tool is declared fatal-on-error.
func (r *Registry) Fatal(name string) bool {
	t, ok := r.tools[name]
	if !ok {
		return false
	}
	ft, ok := t.(FatalTool)
	return ok && ft.FatalOnError()
}

// Invoke looks up a tool, decodes and validates its raw JSON arguments,
// executes it and serializes the result.
//
// Error semantics: every failure surfaces as *ToolError. Unknown tools,
// undecodable or invalid arguments, handler errors and handler panics are all
// recoverable from the run's perspective; the caller decides whether the
// tool's fatal-on-error declaration escalates them.
func (r *Registry) Invoke(toolCtx *core.ToolContext, name, rawArgs string) (result string, err error) {
	impl, ok := r.tools[name]
	if !ok {
		return "", &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("tool %q is not registered", name),
			Code:    CodeUnknown,
		}
	}

	args := map[string]any{}
	if rawArgs != "" {
		if jsonErr := json.Unmarshal([]byte(rawArgs), &args); jsonErr != nil {
			return "", &ToolError{
				Tool:    name,
				Message: fmt.Sprintf("failed to decode arguments: %v", jsonErr),
				Code:    CodeValidation,
			}
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			toolCtx.Logger().Error("tool.call.panic", "tool", name, "recover", rec)
			result = ""
			err = &ToolError{
				Tool:    name,
				Message: fmt.Sprintf("panic: %v", rec),
				Code:    CodePanic,
				Details: string(debug.Stack()),
			}
		}
	}()

	value, err := impl.Call(toolCtx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return "", toolErr
		}
		return "", &ToolError{
			Tool:    name,
			Message: err.Error(),
			Code:    CodeExecution,
		}
	}

	return serializeResult(impl, value)
}

// serializeResult applies the tool's own serializer when implemented, else
// the default JSON encoding.
func serializeResult(t Tool, value any) (string, error) {
	serializer, ok := t.(ResultSerializer)
	if !ok {
		return defaultSerialize(value)
	}
	out, err := serializer.SerializeResult(value)
	if err != nil {
		return "", &ToolError{
			Tool:    t.Name(),
			Message: fmt.Sprintf("failed to serialize result: %v", err),
			Code:    CodeExecution,
		}
	}
	return out, nil
}

// defaultSerialize renders strings verbatim and JSON-encodes everything else
// so structured results survive the round trip through history.
func defaultSerialize(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(data), nil
}
