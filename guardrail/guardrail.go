// Package guardrail implements validation gates applied around an agent's
// work: input guardrails run before the model call of a turn, output
// guardrails run against a candidate final output. Any guardrail can signal a
// tripwire that aborts the run.
package guardrail

import (
	"context"

	"github.com/hupe1980/agentloop/core"
)

// Phase identifies which side of the agent's work a guardrail validates.
type Phase string

const (
	// PhaseInput guards the input before the model call of a turn.
	PhaseInput Phase = "input"
	// PhaseOutput guards a candidate final output.
	PhaseOutput Phase = "output"
)

// Result is the outcome of a single guardrail check.
type Result struct {
	TripwireTriggered bool   // true aborts the run
	Reason            string // human readable explanation for a tripwire
	Payload           any    // optional structured diagnostics
}

// Pass returns a passing result.
func Pass() Result { return Result{} }

// Tripwire returns a tripped result with the given reason.
func Tripwire(reason string) Result {
	return Result{TripwireTriggered: true, Reason: reason}
}

// InputFunc checks the run input before a model call.
type InputFunc func(ctx context.Context, runCtx *core.RunContext, input string) (Result, error)

// OutputFunc checks a candidate final output.
type OutputFunc func(ctx context.Context, runCtx *core.RunContext, output string) (Result, error)

// Input is an input-phase guardrail.
type Input struct {
	ID    string
	Check InputFunc
}

// Output is an output-phase guardrail.
type Output struct {
	ID    string
	Check OutputFunc
}

// Trip records the first tripwire of a chain evaluation.
type Trip struct {
	Phase       Phase
	GuardrailID string
	Reason      string
	Payload     any
}
