package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContext_HistoryCopySemantics(t *testing.T) {
	rc := NewRunContext(context.Background(), "run-1", nil, nil)
	rc.Append(NewUserContent("hello"))

	h := rc.History()
	require.Len(t, h, 1)

	// Mutating the returned slice must not affect internal state.
	h[0] = NewUserContent("mutated")
	assert.Equal(t, "hello", rc.History()[0].Text())
}

func TestRunContext_AppendAndReplace(t *testing.T) {
	rc := NewRunContext(context.Background(), "run-1", nil, nil)
	rc.Append(NewUserContent("one"), NewAssistantContent("two"))
	assert.Equal(t, 2, rc.HistoryLen())

	rc.ReplaceHistory([]Content{NewUserContent("only")})
	require.Equal(t, 1, rc.HistoryLen())
	assert.Equal(t, "only", rc.History()[0].Text())
}

func TestRunContext_Turns(t *testing.T) {
	rc := NewRunContext(context.Background(), "run-1", nil, nil)
	assert.Equal(t, 0, rc.Turns())
	assert.Equal(t, 1, rc.AdvanceTurn())
	assert.Equal(t, 2, rc.AdvanceTurn())
	assert.Equal(t, 2, rc.Turns())
}

func TestRunContext_ActiveAgent(t *testing.T) {
	rc := NewRunContext(context.Background(), "run-1", nil, nil)
	assert.Empty(t, rc.ActiveAgent())
	rc.SetActiveAgent("picker")
	assert.Equal(t, "picker", rc.ActiveAgent())
}

func TestRunContext_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rc := NewRunContext(ctx, "run-1", nil, nil)
	assert.NoError(t, rc.Err())
	cancel()
	assert.Error(t, rc.Err())
	select {
	case <-rc.Done():
	default:
		t.Fatal("Done channel should be closed after cancel")
	}
}

func TestRunContext_ConcurrentAppends(t *testing.T) {
	rc := NewRunContext(context.Background(), "run-1", nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.Append(NewToolResultContent("id", "tool", "ok", nil))
			_ = rc.History()
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, rc.HistoryLen())
}

func TestToolContext_Accessors(t *testing.T) {
	rc := NewRunContext(context.Background(), "run-1", map[string]int{"count": 1}, nil)
	rc.Append(NewUserContent("hi"))
	rc.SetActiveAgent("picker")

	tc := NewToolContext(rc, "call-1", "picker")
	assert.Equal(t, "run-1", tc.RunID())
	assert.Equal(t, "call-1", tc.CallID())
	assert.Equal(t, "picker", tc.AgentName())
	assert.Equal(t, map[string]int{"count": 1}, tc.Payload())
	assert.Len(t, tc.History(), 1)
	assert.NotNil(t, tc.Logger())
	assert.NoError(t, tc.Context().Err())
}

func TestContent_PartAccessors(t *testing.T) {
	c := Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "checking "},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "lookup"}},
		TextPart{Text: "now"},
	}}

	assert.Equal(t, "checking now", c.Text())
	calls := c.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "lookup", calls[0].Name)
}

func TestNewToolResultContent(t *testing.T) {
	ok := NewToolResultContent("c1", "lookup", `{"hits":3}`, nil)
	assert.Equal(t, "tool", ok.Role)
	responses := ok.FunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, `{"hits":3}`, responses[0].Result)
	assert.Empty(t, responses[0].Error)

	failed := NewToolResultContent("c2", "lookup", "", assert.AnError)
	responses = failed.FunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, assert.AnError.Error(), responses[0].Error)
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.NotEmpty(t, id)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}
