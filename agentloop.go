// Package agentloop provides a high-level façade over the core runner and
// service abstractions (sessions, tracing & logging) enabling rapid
// construction of tool-using, multi-agent LLM applications. Most applications
// interact with this package by:
//  1. Creating an AgentLoop via New() (optionally overriding default in-memory services)
//  2. Building agents with the agent package (model, tools, guardrails, handoffs)
//  3. Executing runs with Run until the agent graph produces a final output
//
// The façade delegates orchestration to runner.Runner while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable session store,
// a structured logger and a trace exporter.
package agentloop

import (
	"context"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/runner"
	"github.com/hupe1980/agentloop/session"
	"github.com/hupe1980/agentloop/trace"
)

// Options configures the AgentLoop instance.
type Options struct {
	// MaxTurns limits model calls per run. Guards against infinite
	// tool-call or handoff cycles; overridable per run.
	MaxTurns int

	// MaxParallelTools bounds concurrent tool executions within a single
	// turn. Zero means one goroutine per requested call.
	MaxParallelTools int

	// SessionStore persists conversation history across runs (defaults to
	// an in-memory implementation).
	SessionStore session.Store

	// TraceExporter receives each run's span tree (defaults to NoopExporter).
	TraceExporter trace.Exporter

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentLoop is the high-level façade aggregating the runner and its services.
type AgentLoop struct {
	opts   Options
	runner *runner.Runner
}

// New creates a new AgentLoop instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *AgentLoop {
	opts := Options{
		MaxTurns:      10,
		SessionStore:  session.NewInMemoryStore(),
		TraceExporter: trace.NoopExporter{},
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := runner.New(func(o *runner.Options) {
		o.MaxTurns = opts.MaxTurns
		o.MaxParallelTools = opts.MaxParallelTools
		o.Logger = opts.Logger
		o.TraceExporter = opts.TraceExporter
		o.SessionStore = opts.SessionStore
	})

	return &AgentLoop{opts: opts, runner: r}
}

// Run executes the loop starting at the given agent and blocks until a final
// output or a terminal error.
func (l *AgentLoop) Run(
	ctx context.Context,
	start *agent.Agent,
	input string,
	optFns ...func(o *runner.RunOptions),
) (*runner.Result, error) {
	return l.runner.Run(ctx, start, input, optFns...)
}

// RunSession is a convenience wrapper binding the run to a stored session so
// consecutive calls share conversation history.
func (l *AgentLoop) RunSession(
	ctx context.Context,
	sessionID string,
	start *agent.Agent,
	input string,
	optFns ...func(o *runner.RunOptions),
) (*runner.Result, error) {
	withSession := append([]func(o *runner.RunOptions){func(o *runner.RunOptions) {
		o.SessionID = sessionID
	}}, optFns...)
	return l.runner.Run(ctx, start, input, withSession...)
}
