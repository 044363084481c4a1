package guardrail

import (
	"fmt"

	"github.com/hupe1980/agentloop/core"
	"golang.org/x/sync/errgroup"
)

// EvaluateInput runs all input guardrails concurrently against the run input.
// Every check runs to completion so diagnostics are complete even when an
// early one trips; the chain result is the first tripwire in registration
// order. A check that returns an error or panics is treated as tripped with
// that failure as reason (fail-closed). Returns nil when the chain passes.
func EvaluateInput(runCtx *core.RunContext, guards []Input, input string) *Trip {
	if len(guards) == 0 {
		return nil
	}

	results := make([]Result, len(guards))

	var g errgroup.Group
	for i, guard := range guards {
		g.Go(func() error {
			results[i] = runChecked(guard.ID, func() (Result, error) {
				return guard.Check(runCtx.Context, runCtx, input)
			})
			return nil
		})
	}
	_ = g.Wait()

	ids := make([]string, len(guards))
	for i, guard := range guards {
		ids[i] = guard.ID
	}
	return firstTrip(PhaseInput, ids, results, runCtx)
}

// EvaluateOutput runs all output guardrails concurrently against a candidate
// final output, with the same completion, ordering and fail-closed semantics
// as EvaluateInput.
func EvaluateOutput(runCtx *core.RunContext, guards []Output, output string) *Trip {
	if len(guards) == 0 {
		return nil
	}

	results := make([]Result, len(guards))

	var g errgroup.Group
	for i, guard := range guards {
		g.Go(func() error {
			results[i] = runChecked(guard.ID, func() (Result, error) {
				return guard.Check(runCtx.Context, runCtx, output)
			})
			return nil
		})
	}
	_ = g.Wait()

	ids := make([]string, len(guards))
	for i, guard := range guards {
		ids[i] = guard.ID
	}
	return firstTrip(PhaseOutput, ids, results, runCtx)
}

// runChecked executes one guardrail check converting errors and panics into
// tripped results.
func runChecked(id string, check func() (Result, error)) (out Result) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Tripwire(fmt.Sprintf("guardrail %q panicked: %v", id, rec))
		}
	}()

	res, err := check()
	if err != nil {
		return Result{
			TripwireTriggered: true,
			Reason:            fmt.Sprintf("guardrail %q failed: %v", id, err),
			Payload:           err,
		}
	}
	return res
}

// firstTrip selects the first tripped result in registration order.
func firstTrip(phase Phase, ids []string, results []Result, runCtx *core.RunContext) *Trip {
	for i, res := range results {
		if !res.TripwireTriggered {
			runCtx.LogDebug("guardrail.passed", "phase", string(phase), "guardrail", ids[i])
			continue
		}
		runCtx.LogWarn("guardrail.tripwire", "phase", string(phase), "guardrail", ids[i], "reason", res.Reason)
		return &Trip{
			Phase:       phase,
			GuardrailID: ids[i],
			Reason:      res.Reason,
			Payload:     res.Payload,
		}
	}
	return nil
}
