package agent

import "github.com/hupe1980/agentloop/core"

// Hooks is a set of optional per-agent lifecycle callbacks. Each slot
// defaults to a no-op when nil; implement only the callbacks you need.
//
// Dispatch is synchronous and blocking relative to the run loop: the runner
// waits for a hook to return before proceeding, so hooks observe a strictly
// increasing, loop-consistent event order and may safely maintain their own
// counters without locking against the same agent's other events.
type Hooks struct {
	// OnStart fires when the agent becomes active, both the first time and
	// each re-entry with new information (e.g. after a tool result).
	OnStart func(runCtx *core.RunContext, a *Agent)
	// OnEnd fires once the agent produced the run's final output. Output is
	// the decoded value when the agent declares an output schema, else the
	// raw text.
	OnEnd func(runCtx *core.RunContext, a *Agent, output any)
	// OnHandoff fires when the agent hands control to another agent.
	OnHandoff func(runCtx *core.RunContext, source, target *Agent)
	// OnToolStart fires before each tool invocation.
	OnToolStart func(runCtx *core.RunContext, a *Agent, toolName string)
	// OnToolEnd fires after each tool invocation with the serialized result.
	OnToolEnd func(runCtx *core.RunContext, a *Agent, toolName, result string)
}

// EmitStart invokes OnStart when set.
func (h Hooks) EmitStart(runCtx *core.RunContext, a *Agent) {
	if h.OnStart != nil {
		h.OnStart(runCtx, a)
	}
}

// EmitEnd invokes OnEnd when set.
func (h Hooks) EmitEnd(runCtx *core.RunContext, a *Agent, output any) {
	if h.OnEnd != nil {
		h.OnEnd(runCtx, a, output)
	}
}

// EmitHandoff invokes OnHandoff when set.
func (h Hooks) EmitHandoff(runCtx *core.RunContext, source, target *Agent) {
	if h.OnHandoff != nil {
		h.OnHandoff(runCtx, source, target)
	}
}

// EmitToolStart invokes OnToolStart when set.
func (h Hooks) EmitToolStart(runCtx *core.RunContext, a *Agent, toolName string) {
	if h.OnToolStart != nil {
		h.OnToolStart(runCtx, a, toolName)
	}
}

// EmitToolEnd invokes OnToolEnd when set.
func (h Hooks) EmitToolEnd(runCtx *core.RunContext, a *Agent, toolName, result string) {
	if h.OnToolEnd != nil {
		h.OnToolEnd(runCtx, a, toolName, result)
	}
}
