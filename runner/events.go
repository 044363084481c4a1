package runner

import (
	"fmt"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/guardrail"
	"github.com/hupe1980/agentloop/trace"
)

// Hook dispatch is synchronous and serialized: a slow hook slows the run
// down, but callbacks never interleave even while tools run concurrently.

func (s *runState) emitStart(a *agent.Agent) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	a.Hooks().EmitStart(s.rc, a)
}

func (s *runState) emitEnd(a *agent.Agent, output any) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	a.Hooks().EmitEnd(s.rc, a, output)
}

func (s *runState) emitHandoff(source, target *agent.Agent) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	source.Hooks().EmitHandoff(s.rc, source, target)
}

func (s *runState) emitToolStart(a *agent.Agent, toolName string) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	a.Hooks().EmitToolStart(s.rc, a, toolName)
}

func (s *runState) emitToolEnd(a *agent.Agent, toolName, result string) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	a.Hooks().EmitToolEnd(s.rc, a, toolName, result)
}

// runInputGuardrails validates the original run input before the model call
// of the current turn. Returns the first trip in registration order, nil if
// all guardrails pass.
func (s *runState) runInputGuardrails(a *agent.Agent) *guardrail.Trip {
	guards := a.InputGuardrails()
	if len(guards) == 0 {
		return nil
	}

	span := s.collector.Root().StartChild(trace.KindGuardrail, fmt.Sprintf("input guardrails (%s)", a.Name()))
	span.SetAttr("agent", a.Name())
	span.SetAttr("count", len(guards))

	trip := guardrail.EvaluateInput(s.rc, guards, s.input)
	if trip != nil {
		span.SetAttr("guardrail", trip.GuardrailID)
		span.End(trace.StatusError, trip.Reason)
		return trip
	}

	span.End(trace.StatusOK, "")
	return nil
}

// runOutputGuardrails validates a candidate final output before it is
// accepted.
func (s *runState) runOutputGuardrails(a *agent.Agent, candidate string, turnSpan *trace.Span) *guardrail.Trip {
	guards := a.OutputGuardrails()
	if len(guards) == 0 {
		return nil
	}

	span := turnSpan.StartChild(trace.KindGuardrail, fmt.Sprintf("output guardrails (%s)", a.Name()))
	span.SetAttr("agent", a.Name())
	span.SetAttr("count", len(guards))

	trip := guardrail.EvaluateOutput(s.rc, guards, candidate)
	if trip != nil {
		span.SetAttr("guardrail", trip.GuardrailID)
		span.End(trace.StatusError, trip.Reason)
		return trip
	}

	span.End(trace.StatusOK, "")
	return nil
}
