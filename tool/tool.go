// Package tool implements the function / tool calling subsystem that lets
// agents invoke structured capabilities (APIs, computations, side-effects)
// with schema validated arguments, consistent error handling and rich
// metadata for model guidance.
package tool

import (
	"fmt"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/internal/util"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are registered at agent construction and invoked zero or more times
// per turn. Implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Confine side effects to the ToolContext payload / external world
//   - Be thread-safe: independent calls within one turn may run concurrently
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should be descriptive and follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the model to help it decide when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	// This schema is used for parameter validation and model function calling.
	Parameters() map[string]any

	// Call executes the tool with already-validated structured arguments and
	// the constrained ToolContext.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// FatalTool is an optional interface a Tool may implement to declare that an
// execution failure must abort the whole run instead of being fed back to
// the model as a recoverable tool-error result.
type FatalTool interface {
	FatalOnError() bool
}

// ResultSerializer is an optional interface a Tool may implement to control
// how its result is serialized into the conversation history. Without it the
// registry JSON-encodes non-string results.
type ResultSerializer interface {
	SerializeResult(result any) (string, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes used by ToolError for categorization.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeUnknown    = "UNKNOWN_TOOL"
	CodePanic      = "PANIC"
)

// ToolError represents a recoverable tool failure. It is serialized into the
// conversation history so the model can observe the failure and self-correct;
// it never aborts the run unless the tool is declared fatal-on-error.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
