package runner

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentloop/guardrail"
)

// ErrCancelled marks runs terminated by caller cancellation or deadline.
// Terminal errors caused by cancellation wrap it, so
// errors.Is(err, ErrCancelled) distinguishes cancellation from other limits.
var ErrCancelled = errors.New("run cancelled")

// GuardrailTrippedError aborts a run when a guardrail signals a tripwire.
type GuardrailTrippedError struct {
	Phase       guardrail.Phase
	GuardrailID string
	Reason      string
	Payload     any
}

func (e *GuardrailTrippedError) Error() string {
	return fmt.Sprintf("guardrail %q tripped (phase=%s): %s", e.GuardrailID, e.Phase, e.Reason)
}

// UnknownHandoffTargetError reports a handoff request naming a target the
// source agent never declared.
type UnknownHandoffTargetError struct {
	Source string
	Target string
}

func (e *UnknownHandoffTargetError) Error() string {
	return fmt.Sprintf("agent %q requested handoff to undeclared target %q", e.Source, e.Target)
}

// MalformedResponseError reports a model response the state machine cannot
// consume, e.g. one combining tool calls with a handoff.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

// ToolExecutionError aborts a run when a fatal-on-error tool fails.
type ToolExecutionError struct {
	Tool  string
	Cause error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("fatal tool %q failed: %v", e.Tool, e.Cause)
}

// Unwrap exposes the underlying tool failure.
func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// MaxTurnsError aborts a run that would exceed its turn budget. It is raised
// before the next model call, never after.
type MaxTurnsError struct {
	Limit int
}

func (e *MaxTurnsError) Error() string {
	return fmt.Sprintf("exceeded max turns: %d", e.Limit)
}

// ProviderError reports a model call that failed after the provider
// exhausted its own retry policy.
type ProviderError struct {
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("model provider failure: %v", e.Cause)
}

// Unwrap exposes the underlying provider failure.
func (e *ProviderError) Unwrap() error { return e.Cause }

// cancelledError wraps a context error as a run cancellation.
func cancelledError(cause error) error {
	return fmt.Errorf("%w: %v", ErrCancelled, cause)
}
