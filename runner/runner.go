package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/session"
	"github.com/hupe1980/agentloop/trace"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// MaxTurns limits model calls per run, the safety valve against
	// infinite tool/handoff cycles. Enforced before each model call.
	MaxTurns int
	// MaxParallelTools bounds concurrent tool executions within one turn.
	// 0 or negative means one goroutine per requested call.
	MaxParallelTools int
	// Logger receives structured runtime events. Defaults to NoOpLogger.
	Logger logging.Logger
	// TraceExporter receives the span tree of every run, on success and
	// failure alike. Defaults to trace.NoopExporter.
	TraceExporter trace.Exporter
	// SessionStore enables conversation continuity across runs when a
	// RunOptions.SessionID is supplied.
	SessionStore session.Store
}

// RunOptions configure a single run.
type RunOptions struct {
	// Payload is the application-defined state shared with tools and
	// guardrails through the RunContext.
	Payload any
	// SessionID keys stored conversation history; requires a SessionStore.
	SessionID string
	// MaxTurns overrides the runner-wide limit for this run when > 0.
	MaxTurns int
}

// Result is the successful outcome of a run.
type Result struct {
	RunID      string
	FinalAgent string
	// Output is the decoded final value when the final agent declares an
	// output schema, else the raw text.
	Output    any
	RawOutput string
	History   []core.Content
	Turns     int
	Trace     *trace.SpanSnapshot
}

// Runner drives runs through the turn-based state machine. A Runner holds no
// per-run state; its public methods are safe for concurrent use and
// concurrent runs are fully independent.
type Runner struct {
	maxTurns         int
	maxParallelTools int
	logger           logging.Logger
	exporter         trace.Exporter
	sessions         session.Store
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxTurns:      10,
		Logger:        logging.NoOpLogger{},
		TraceExporter: trace.NoopExporter{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		maxTurns:         opts.MaxTurns,
		maxParallelTools: opts.MaxParallelTools,
		logger:           opts.Logger,
		exporter:         opts.TraceExporter,
		sessions:         opts.SessionStore,
	}
}

// Run executes the loop starting at the given agent until a final output is
// produced or a terminal error occurs. The context's deadline/cancellation
// propagates to the in-flight model call and tool calls and terminates the
// run with ErrCancelled. The run's trace is exported in every case.
func (r *Runner) Run(ctx context.Context, start *agent.Agent, input string, optFns ...func(o *RunOptions)) (*Result, error) {
	if start == nil {
		return nil, fmt.Errorf("starting agent must not be nil")
	}

	ro := RunOptions{MaxTurns: r.maxTurns}
	for _, fn := range optFns {
		fn(&ro)
	}
	if ro.MaxTurns <= 0 {
		ro.MaxTurns = r.maxTurns
	}

	runID := core.NewID()
	rc := core.NewRunContext(ctx, runID, ro.Payload, r.logger)

	preloaded := 0
	if ro.SessionID != "" && r.sessions != nil {
		history, err := r.sessions.History(ro.SessionID)
		if err != nil {
			return nil, fmt.Errorf("load session %q: %w", ro.SessionID, err)
		}
		rc.Append(history...)
		preloaded = len(history)
	}
	rc.Append(core.NewUserContent(input))

	collector := trace.NewCollector("run " + start.Name())
	collector.Root().SetAttr("run_id", runID)
	collector.Root().SetAttr("starting_agent", start.Name())

	began := time.Now()
	r.logger.Info("run.start", "run_id", runID, "agent", start.Name())

	state := &runState{
		runner:    r,
		rc:        rc,
		opts:      ro,
		collector: collector,
		input:     input,
	}

	result, err := state.loop(start)

	if err != nil {
		collector.Finish(trace.StatusError, err.Error())
	} else {
		collector.Finish(trace.StatusOK, "")
	}
	snapshot := collector.Snapshot()
	r.exporter.Export(snapshot)

	finalAgent := rc.ActiveAgent()
	r.logRunCompletion(finalAgent, rc.Turns(), time.Since(began), err)

	if err != nil {
		return nil, err
	}

	if ro.SessionID != "" && r.sessions != nil {
		history := rc.History()
		if appendErr := r.sessions.Append(ro.SessionID, history[preloaded:]...); appendErr != nil {
			r.logger.Warn("run.session.append_failed", "session_id", ro.SessionID, "error", appendErr.Error())
		}
	}

	result.Trace = snapshot
	return result, nil
}

func (r *Runner) logRunCompletion(agentName string, turns int, dur time.Duration, err error) {
	args := []any{"final_agent", agentName, "turns", turns, "duration_ms", dur.Milliseconds(), "success", err == nil}
	if err != nil {
		args = append(args, "error", err.Error())
		r.logger.Error("run.completed", args...)
		return
	}
	r.logger.Info("run.completed", args...)
}

// runState carries the per-run loop state. Hook dispatch is serialized by
// hookMu so callbacks never observe interleaved invocations even when tools
// of one turn execute concurrently.
type runState struct {
	runner    *Runner
	rc        *core.RunContext
	opts      RunOptions
	collector *trace.Collector
	input     string

	hookMu sync.Mutex
}

// loop is the state machine of §turn execution: guardrails, model call,
// response classification, tool dispatch / handoff / final output.
func (s *runState) loop(active *agent.Agent) (*Result, error) {
	rc := s.rc

	for {
		if err := rc.Err(); err != nil {
			return nil, cancelledError(err)
		}

		rc.SetActiveAgent(active.Name())
		s.emitStart(active)

		if trip := s.runInputGuardrails(active); trip != nil {
			// No model call is made for this turn.
			return nil, &GuardrailTrippedError{
				Phase:       trip.Phase,
				GuardrailID: trip.GuardrailID,
				Reason:      trip.Reason,
				Payload:     trip.Payload,
			}
		}

		// Enforced before the next model call, not after.
		if rc.Turns() >= s.opts.MaxTurns {
			return nil, &MaxTurnsError{Limit: s.opts.MaxTurns}
		}

		turnNo := rc.AdvanceTurn()
		turnSpan := s.collector.Root().StartChild(trace.KindTurn, fmt.Sprintf("turn %d (%s)", turnNo, active.Name()))
		turnSpan.SetAttr("agent", active.Name())

		req := model.Request{
			Instructions: active.Instructions(),
			Contents:     rc.History(),
			Tools:        active.ToolDefinitions(),
			OutputSchema: active.OutputSchema(),
		}

		modelStart := time.Now()
		resp, err := active.Model().Generate(rc.Context, req)
		if err != nil {
			turnSpan.End(trace.StatusError, err.Error())
			if ctxErr := rc.Err(); ctxErr != nil {
				return nil, cancelledError(ctxErr)
			}
			return nil, &ProviderError{Cause: err}
		}
		rc.LogDebug("runner.model.call",
			"agent", active.Name(),
			"model", active.Model().Info().Name,
			"turn", turnNo,
			"duration_ms", time.Since(modelStart).Milliseconds(),
		)

		rc.Append(resp.Content)

		turn := model.Classify(resp)
		turnSpan.SetAttr("turn_kind", turn.Kind.String())

		switch turn.Kind {
		case model.TurnToolCalls:
			results, fatalErr := s.executeToolCalls(active, turn.Calls, turnSpan)
			rc.Append(results...)
			if fatalErr != nil {
				turnSpan.End(trace.StatusError, fatalErr.Error())
				return nil, fatalErr
			}
			if err := rc.Err(); err != nil {
				turnSpan.End(trace.StatusError, err.Error())
				return nil, cancelledError(err)
			}
			turnSpan.End(trace.StatusOK, "")
			// Loop back with the same agent; it is started again with the
			// tool results as new information.

		case model.TurnHandoff:
			next, err := s.performHandoff(active, turn, turnSpan)
			if err != nil {
				turnSpan.End(trace.StatusError, err.Error())
				return nil, err
			}
			turnSpan.End(trace.StatusOK, "")
			active = next

		case model.TurnFinal:
			result, err := s.finalize(active, turn.Output, turnSpan)
			if err != nil {
				turnSpan.End(trace.StatusError, err.Error())
				return nil, err
			}
			turnSpan.End(trace.StatusOK, "")
			return result, nil

		default:
			turnSpan.End(trace.StatusError, turn.Reason)
			return nil, &MalformedResponseError{Reason: turn.Reason}
		}
	}
}

// performHandoff validates the requested target against the source's
// declared edges, records the transfer result in history, applies the
// history filter exactly once and switches the active agent.
func (s *runState) performHandoff(source *agent.Agent, turn model.Turn, turnSpan *trace.Span) (*agent.Agent, error) {
	handoff, ok := source.ResolveHandoff(turn.HandoffTarget)
	if !ok {
		return nil, &UnknownHandoffTargetError{Source: source.Name(), Target: turn.HandoffTarget}
	}

	span := turnSpan.StartChild(trace.KindHandoff, fmt.Sprintf("handoff %s -> %s", source.Name(), turn.HandoffTarget))
	span.SetAttr("source", source.Name())
	span.SetAttr("target", turn.HandoffTarget)

	// Give the transfer call a matching result so providers replaying the
	// history see a completed tool call.
	transferResult := fmt.Sprintf(`{"transferred":true,"agent":%q}`, turn.HandoffTarget)
	s.rc.Append(core.NewToolResultContent(turn.TransferCall.ID, model.TransferToolName, transferResult, nil))

	if handoff.Filter != nil {
		s.rc.ReplaceHistory(handoff.Filter(s.rc.History()))
	}

	s.emitHandoff(source, handoff.Target)
	s.rc.LogInfo("runner.handoff", "source", source.Name(), "target", turn.HandoffTarget)
	span.End(trace.StatusOK, "")

	return handoff.Target, nil
}

// finalize runs output guardrails against the candidate, decodes it per the
// agent's output schema and emits the end-of-run hook.
func (s *runState) finalize(active *agent.Agent, raw string, turnSpan *trace.Span) (*Result, error) {
	if trip := s.runOutputGuardrails(active, raw, turnSpan); trip != nil {
		return nil, &GuardrailTrippedError{
			Phase:       trip.Phase,
			GuardrailID: trip.GuardrailID,
			Reason:      trip.Reason,
			Payload:     trip.Payload,
		}
	}

	output, err := decodeOutput(active, raw)
	if err != nil {
		return nil, &MalformedResponseError{Reason: err.Error()}
	}

	s.emitEnd(active, output)

	return &Result{
		RunID:      s.rc.RunID,
		FinalAgent: active.Name(),
		Output:     output,
		RawOutput:  raw,
		History:    s.rc.History(),
		Turns:      s.rc.Turns(),
	}, nil
}

// decodeOutput turns the final text into the declared output shape, or
// returns it verbatim for schema-less agents.
func decodeOutput(a *agent.Agent, raw string) (any, error) {
	if a.OutputSchema() == nil {
		return raw, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("final output does not match declared shape: %v", err)
	}
	return out, nil
}
