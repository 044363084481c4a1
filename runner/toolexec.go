package runner

import (
	"sync"
	"time"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/trace"
)

// executeToolCalls runs all tool calls of one turn, independent calls in
// parallel bounded by MaxParallelTools. All calls are joined before the loop
// advances and results keep the model's call order regardless of completion
// order. A failing fatal-on-error tool is returned as a run-aborting error;
// any other failure becomes an error result fed back to the model.
func (s *runState) executeToolCalls(a *agent.Agent, calls []core.FunctionCall, turnSpan *trace.Span) ([]core.Content, error) {
	maxParallel := s.runner.maxParallelTools
	if maxParallel <= 0 || maxParallel > len(calls) {
		maxParallel = len(calls)
	}

	results := make([]core.Content, len(calls))
	fatals := make([]error, len(calls))

	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, call core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx], fatals[idx] = s.invokeTool(a, call, turnSpan)
		}(i, call)
	}

	wg.Wait()

	// First fatal error in call order wins.
	for _, err := range fatals {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// invokeTool executes a single call: hooks, span, registry dispatch, result
// content. The returned error is non-nil only for fatal-on-error tools.
func (s *runState) invokeTool(a *agent.Agent, call core.FunctionCall, turnSpan *trace.Span) (core.Content, error) {
	callID := call.ID
	if callID == "" {
		callID = core.NewID()
	}

	span := turnSpan.StartChild(trace.KindTool, "tool "+call.Name)
	span.SetAttr("tool", call.Name)
	span.SetAttr("call_id", callID)

	s.emitToolStart(a, call.Name)

	toolCtx := core.NewToolContext(s.rc, callID, a.Name())

	began := time.Now()
	result, err := a.Tools().Invoke(toolCtx, call.Name, call.Arguments)
	duration := time.Since(began)

	if err != nil {
		s.rc.LogWarn("runner.tool.failed",
			"agent", a.Name(),
			"tool", call.Name,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		span.End(trace.StatusError, err.Error())
		s.emitToolEnd(a, call.Name, err.Error())

		if a.Tools().Fatal(call.Name) {
			return core.NewToolResultContent(callID, call.Name, "", err), &ToolExecutionError{Tool: call.Name, Cause: err}
		}
		// Non-fatal failure: surface the error to the model so it can
		// self-correct on the next turn.
		return core.NewToolResultContent(callID, call.Name, "", err), nil
	}

	s.rc.LogDebug("runner.tool.completed",
		"agent", a.Name(),
		"tool", call.Name,
		"duration_ms", duration.Milliseconds(),
	)
	span.End(trace.StatusOK, "")
	s.emitToolEnd(a, call.Name, result)

	return core.NewToolResultContent(callID, call.Name, result, nil), nil
}
