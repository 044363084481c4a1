package core

import (
	"context"

	"github.com/hupe1980/agentloop/logging"
)

// ToolContext provides a constrained surface for tool implementations invoked
// during a turn. It exposes the shared run state (payload, history snapshot)
// plus identifiers correlating the invocation with the originating model
// request, without allowing a tool to steer the loop directly.
type ToolContext struct {
	runCtx    *RunContext
	callID    string
	agentName string
}

// NewToolContext constructs a tool context bound to a parent RunContext and
// the unique id of the function call being served.
func NewToolContext(runCtx *RunContext, callID, agentName string) *ToolContext {
	return &ToolContext{runCtx: runCtx, callID: callID, agentName: agentName}
}

// Context returns the cancellation context of the run.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// RunID returns the run identifier.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// CallID returns the function call id correlating model request and execution.
func (tc *ToolContext) CallID() string { return tc.callID }

// AgentName returns the name of the agent that requested the call.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// Payload returns the application-defined run payload. Tools mutating it
// concurrently must synchronize themselves.
func (tc *ToolContext) Payload() any { return tc.runCtx.Payload }

// History returns a copy of the conversation history at invocation time.
func (tc *ToolContext) History() []Content { return tc.runCtx.History() }

// Turns returns the run's model call count at invocation time.
func (tc *ToolContext) Turns() int { return tc.runCtx.Turns() }

// Logger returns the run logger.
func (tc *ToolContext) Logger() logging.Logger { return tc.runCtx.Logger() }
