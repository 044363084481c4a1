package core

import (
	"context"
	"sync"

	"github.com/hupe1980/agentloop/logging"
)

// RunContext carries the mutable state of one in-flight run. It aggregates:
//   - The ambient cancellation Context
//   - The run identifier
//   - An application-defined payload the runtime is agnostic to
//   - The ordered conversation history
//   - The active agent name and the turn counter
//
// A RunContext is exclusively owned by one run and must never be shared
// between concurrent runs. History and counters are mutex guarded because
// concurrently executing tools within a turn may read them; ordering of
// payload mutations from concurrent tools is the tools' own responsibility.
type RunContext struct {
	Context context.Context
	RunID   string

	// Payload is the application-defined shared state. Tool handlers may
	// mutate it; concurrent tools must bring their own synchronization.
	Payload any

	mu          sync.RWMutex
	activeAgent string
	history     []Content
	turns       int

	logger logging.Logger
}

// NewRunContext constructs a RunContext with empty history. A nil logger is
// substituted with logging.NoOpLogger.
func NewRunContext(ctx context.Context, runID string, payload any, logger logging.Logger) *RunContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &RunContext{
		Context: ctx,
		RunID:   runID,
		Payload: payload,
		logger:  logger,
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Logger returns the logger bound to this run.
func (rc *RunContext) Logger() logging.Logger { return rc.logger }

// LogDebug logs a debug message.
func (rc *RunContext) LogDebug(msg string, args ...any) { rc.logger.Debug(msg, args...) }

// LogInfo logs an info message.
func (rc *RunContext) LogInfo(msg string, args ...any) { rc.logger.Info(msg, args...) }

// LogWarn logs a warning message.
func (rc *RunContext) LogWarn(msg string, args ...any) { rc.logger.Warn(msg, args...) }

// LogError logs an error message.
func (rc *RunContext) LogError(msg string, args ...any) { rc.logger.Error(msg, args...) }

// History returns a copy of the conversation history accumulated so far.
func (rc *RunContext) History() []Content {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	out := make([]Content, len(rc.history))
	copy(out, rc.history)
	return out
}

// HistoryLen returns the current number of history items.
func (rc *RunContext) HistoryLen() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	return len(rc.history)
}

// Append adds items to the end of the conversation history.
func (rc *RunContext) Append(items ...Content) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.history = append(rc.history, items...)
}

// ReplaceHistory swaps the whole conversation history, used when a handoff
// filter rewrites the context handed to the next agent.
func (rc *RunContext) ReplaceHistory(items []Content) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.history = make([]Content, len(items))
	copy(rc.history, items)
}

// ActiveAgent returns the name of the agent currently driving the run.
func (rc *RunContext) ActiveAgent() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	return rc.activeAgent
}

// SetActiveAgent records the agent currently driving the run.
func (rc *RunContext) SetActiveAgent(name string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.activeAgent = name
}

// Turns returns the number of model calls made so far.
func (rc *RunContext) Turns() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	return rc.turns
}

// AdvanceTurn increments the turn counter and returns the new value. Called
// once per model call.
func (rc *RunContext) AdvanceTurn() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.turns++
	return rc.turns
}
