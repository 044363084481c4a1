package model

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
)

func assistantResponse(parts ...core.Part) *Response {
	return &Response{
		ID:      core.NewID(),
		Content: core.Content{Role: "assistant", Parts: parts},
	}
}

func callPart(id, name, args string) core.Part {
	return core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args}}
}

func TestClassify_FinalText(t *testing.T) {
	turn := Classify(assistantResponse(core.TextPart{Text: "the answer is 42"}))
	assert.Equal(t, TurnFinal, turn.Kind)
	assert.Equal(t, "the answer is 42", turn.Output)
}

func TestClassify_ToolCalls(t *testing.T) {
	turn := Classify(assistantResponse(
		callPart("c1", "lookup", `{"q":"go"}`),
		callPart("c2", "fetch", `{}`),
	))
	assert.Equal(t, TurnToolCalls, turn.Kind)
	require.Len(t, turn.Calls, 2)
	assert.Equal(t, "lookup", turn.Calls[0].Name)
	assert.Equal(t, "fetch", turn.Calls[1].Name)
}

func TestClassify_Handoff(t *testing.T) {
	turn := Classify(assistantResponse(callPart("c1", TransferToolName, `{"agent":"billing"}`)))
	assert.Equal(t, TurnHandoff, turn.Kind)
	assert.Equal(t, "billing", turn.HandoffTarget)
	assert.Equal(t, "c1", turn.TransferCall.ID)
}

func TestClassify_TextAlongsideToolCallsIsToolCalls(t *testing.T) {
	// Providers often emit commentary text next to tool calls; the calls win.
	turn := Classify(assistantResponse(
		core.TextPart{Text: "let me check"},
		callPart("c1", "lookup", `{}`),
	))
	assert.Equal(t, TurnToolCalls, turn.Kind)
}

func TestClassify_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		resp   *Response
		reason string
	}{
		{
			name: "handoff combined with tool calls",
			resp: assistantResponse(
				callPart("c1", "lookup", `{}`),
				callPart("c2", TransferToolName, `{"agent":"b"}`),
			),
			reason: "handoff with tool calls",
		},
		{
			name: "multiple handoffs",
			resp: assistantResponse(
				callPart("c1", TransferToolName, `{"agent":"a"}`),
				callPart("c2", TransferToolName, `{"agent":"b"}`),
			),
			reason: "2 handoffs",
		},
		{
			name:   "handoff missing target",
			resp:   assistantResponse(callPart("c1", TransferToolName, `{}`)),
			reason: "missing target",
		},
		{
			name:   "handoff with undecodable arguments",
			resp:   assistantResponse(callPart("c1", TransferToolName, `{not json`)),
			reason: "invalid handoff arguments",
		},
		{
			name:   "empty response",
			resp:   assistantResponse(),
			reason: "neither output nor tool calls",
		},
		{
			name:   "nil response",
			resp:   nil,
			reason: "nil response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn := Classify(tt.resp)
			assert.Equal(t, TurnMalformed, turn.Kind)
			assert.Contains(t, turn.Reason, tt.reason)
		})
	}
}

func TestTransferToolDefinition_EnumConstrainsTargets(t *testing.T) {
	def := TransferToolDefinition([]string{"billing", "support"})
	assert.Equal(t, TransferToolName, def.Function.Name)

	props := def.Function.Parameters["properties"].(map[string]any)
	agentSchema := props["agent"].(map[string]any)
	assert.Equal(t, []string{"billing", "support"}, agentSchema["enum"])
	assert.Equal(t, []string{"agent"}, def.Function.Parameters["required"])
}

func TestMockModel_ScriptOrderAndExhaustion(t *testing.T) {
	m := NewMockModel("scripted")
	m.EnqueueText("first")
	m.EnqueueText("second")

	ctx := context.Background()

	resp, err := m.Generate(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content.Text())

	resp, err = m.Generate(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content.Text())

	_, err = m.Generate(ctx, Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script exhausted")
	assert.Equal(t, 3, m.CallCount())
}

func TestMockModel_RecordsRequests(t *testing.T) {
	m := NewMockModel("scripted")
	m.EnqueueText("ok")

	req := Request{Instructions: "be nice", Contents: []core.Content{core.NewUserContent("hello")}}
	_, err := m.Generate(context.Background(), req)
	require.NoError(t, err)

	requests := m.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "be nice", requests[0].Instructions)
}

func TestMockModel_EnqueueHandoffShape(t *testing.T) {
	m := NewMockModel("scripted")
	m.EnqueueHandoff("billing")

	resp, err := m.Generate(context.Background(), Request{})
	require.NoError(t, err)

	calls := resp.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, TransferToolName, calls[0].Name)
	assert.Equal(t, fmt.Sprintf(`{"agent":%q}`, "billing"), calls[0].Arguments)
}
