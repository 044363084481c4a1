package agent

import "github.com/hupe1980/agentloop/core"

// HistoryFilter transforms the conversation history handed to a handoff
// target. It must be a pure function; it is applied exactly once at the
// moment of transfer.
type HistoryFilter func(history []core.Content) []core.Content

// Handoff is a declared control-transfer edge from one agent to another.
// Transfers to undeclared targets are rejected at run time.
type Handoff struct {
	// Target receives control when the edge is traversed.
	Target *Agent
	// Filter optionally rewrites the history handed to Target.
	Filter HistoryFilter
}

// HandoffTo declares a plain handoff edge to target.
func HandoffTo(target *Agent) Handoff {
	return Handoff{Target: target}
}

// HandoffWithFilter declares a handoff edge whose history is rewritten by
// filter at transfer time.
func HandoffWithFilter(target *Agent, filter HistoryFilter) Handoff {
	return Handoff{Target: target, Filter: filter}
}
