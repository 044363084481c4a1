package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentloop/core"
)

// MockOptions configure a MockModel.
type MockOptions struct {
	Provider string
	// Latency is slept (cancellable) before each scripted response, useful
	// for exercising deadline and cancellation paths.
	Latency time.Duration
}

// MockModel is a scripted in-memory Model for tests and examples. Responses
// are consumed in FIFO order; Generate fails once the script is exhausted.
// It records every request it receives for assertions.
type MockModel struct {
	info    Info
	latency time.Duration

	mu       sync.Mutex
	script   []scriptedStep
	requests []Request
}

type scriptedStep struct {
	resp *Response
	err  error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string, optFns ...func(o *MockOptions)) *MockModel {
	opts := MockOptions{Provider: "mock"}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      opts.Provider,
			SupportsTools: true,
		},
		latency: opts.Latency,
	}
}

// EnqueueText scripts a plain final-output response.
func (m *MockModel) EnqueueText(text string) {
	m.enqueue(&Response{
		ID:           core.NewID(),
		Content:      core.NewAssistantContent(text),
		FinishReason: "stop",
	}, nil)
}

// EnqueueToolCalls scripts a response requesting the given tool calls. Calls
// without an ID get one assigned.
func (m *MockModel) EnqueueToolCalls(calls ...core.FunctionCall) {
	parts := make([]core.Part, 0, len(calls))
	for _, fc := range calls {
		if fc.ID == "" {
			fc.ID = core.NewID()
		}
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	m.enqueue(&Response{
		ID:           core.NewID(),
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: "tool_calls",
	}, nil)
}

// EnqueueHandoff scripts a response requesting a transfer to the named agent.
func (m *MockModel) EnqueueHandoff(target string) {
	m.EnqueueToolCalls(core.FunctionCall{
		Name:      TransferToolName,
		Arguments: fmt.Sprintf(`{"agent":%q}`, target),
	})
}

// EnqueueError scripts a provider failure.
func (m *MockModel) EnqueueError(err error) {
	m.enqueue(nil, err)
}

// EnqueueResponse scripts an arbitrary response, e.g. one that mixes text,
// tool calls and handoffs to exercise malformed-response handling.
func (m *MockModel) EnqueueResponse(resp *Response) {
	m.enqueue(resp, nil)
}

func (m *MockModel) enqueue(resp *Response, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.script = append(m.script, scriptedStep{resp: resp, err: err})
}

// Requests returns the requests observed so far in call order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of Generate invocations.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

// Generate implements Model. It respects context cancellation during the
// configured latency window and pops the next scripted step.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		return nil, fmt.Errorf("mock model %s: script exhausted after %d calls", m.info.Name, len(m.requests)-1)
	}

	step := m.script[0]
	m.script = m.script[1:]

	if step.err != nil {
		return nil, step.err
	}
	return step.resp, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
