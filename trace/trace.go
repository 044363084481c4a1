// Package trace builds a hierarchical span tree for one run and forwards an
// immutable snapshot of it to a pluggable exporter after the run completes or
// fails. One root span covers the run; turns, tool calls, handoffs and
// guardrail evaluations open child spans.
package trace

import (
	"sync"
	"time"

	"github.com/hupe1980/agentloop/core"
)

// Kind categorizes a span.
type Kind string

const (
	// KindRun is the single root span of a run.
	KindRun Kind = "run"
	// KindTurn covers one model call and its handling.
	KindTurn Kind = "turn"
	// KindTool covers one tool invocation.
	KindTool Kind = "tool"
	// KindHandoff covers one control transfer.
	KindHandoff Kind = "handoff"
	// KindGuardrail covers one guardrail chain evaluation.
	KindGuardrail Kind = "guardrail"
)

// Status is the terminal state of a span.
type Status string

const (
	// StatusUnset marks a span still open.
	StatusUnset Status = "unset"
	// StatusOK marks successful completion.
	StatusOK Status = "ok"
	// StatusError marks failure.
	StatusError Status = "error"
)

// Span is a timed, hierarchical record of one operation within a run. Spans
// are created through Collector / Span.StartChild and mutated only via their
// methods; all access is synchronized by the owning collector so spans may be
// ended from concurrently executing tool goroutines.
type Span struct {
	c *Collector

	id            string
	kind          Kind
	name          string
	startTime     time.Time
	endTime       time.Time
	status        Status
	statusMessage string
	attrs         map[string]any
	children      []*Span
}

// Collector owns the span tree of exactly one run.
type Collector struct {
	mu   sync.Mutex
	root *Span
}

// NewCollector opens the root run span.
func NewCollector(name string) *Collector {
	c := &Collector{}
	c.root = &Span{
		c:         c,
		id:        core.NewID(),
		kind:      KindRun,
		name:      name,
		startTime: time.Now().UTC(),
		status:    StatusUnset,
	}
	return c
}

// Root returns the run span.
func (c *Collector) Root() *Span { return c.root }

// Finish ends the root span if still open.
func (c *Collector) Finish(status Status, msg string) {
	c.root.End(status, msg)
}

// StartChild opens a child span fully nested within the receiver.
func (s *Span) StartChild(kind Kind, name string) *Span {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	child := &Span{
		c:         s.c,
		id:        core.NewID(),
		kind:      kind,
		name:      name,
		startTime: time.Now().UTC(),
		status:    StatusUnset,
	}
	s.children = append(s.children, child)
	return child
}

// SetAttr records a key/value attribute on the span.
func (s *Span) SetAttr(key string, value any) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if s.attrs == nil {
		s.attrs = map[string]any{}
	}
	s.attrs[key] = value
}

// End closes the span with the given status. Ending an already ended span is
// a no-op, so failure paths may end defensively.
func (s *Span) End(status Status, msg string) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if s.status != StatusUnset {
		return
	}
	s.status = status
	s.statusMessage = msg
	s.endTime = time.Now().UTC()
}

// SpanSnapshot is the immutable exported form of a span tree. Open spans are
// snapshotted with their current end state so a failed run still exports its
// partial trace.
type SpanSnapshot struct {
	ID            string          `json:"id"`
	Kind          Kind            `json:"kind"`
	Name          string          `json:"name"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	Status        Status          `json:"status"`
	StatusMessage string          `json:"status_message,omitempty"`
	Attributes    map[string]any  `json:"attributes,omitempty"`
	Children      []*SpanSnapshot `json:"children,omitempty"`
}

// Snapshot deep-copies the span tree.
func (c *Collector) Snapshot() *SpanSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return snapshotLocked(c.root)
}

func snapshotLocked(s *Span) *SpanSnapshot {
	snap := &SpanSnapshot{
		ID:            s.id,
		Kind:          s.kind,
		Name:          s.name,
		StartTime:     s.startTime,
		EndTime:       s.endTime,
		Status:        s.status,
		StatusMessage: s.statusMessage,
	}
	if len(s.attrs) > 0 {
		snap.Attributes = make(map[string]any, len(s.attrs))
		for k, v := range s.attrs {
			snap.Attributes[k] = v
		}
	}
	for _, child := range s.children {
		snap.Children = append(snap.Children, snapshotLocked(child))
	}
	return snap
}
