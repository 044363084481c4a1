package model

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentloop/core"
)

// TransferToolName is the reserved function name a model uses to request a
// handoff. The runner injects its definition for agents with declared
// handoff targets; providers surface it like any other tool call.
const TransferToolName = "transfer_to_agent"

// TransferToolDefinition builds the reserved transfer tool schema constrained
// to the declared target names.
func TransferToolDefinition(targets []string) ToolDefinition {
	agentSchema := map[string]any{
		"type":        "string",
		"description": "Target agent name",
	}
	if len(targets) > 0 {
		enum := make([]string, len(targets))
		copy(enum, targets)
		agentSchema["enum"] = enum
	}
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        TransferToolName,
			Description: "Transfer control of the conversation to another agent by name. Use when another agent is better suited.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent": agentSchema,
				},
				"required": []string{"agent"},
			},
		},
	}
}

// TurnKind identifies the single action a model response requests.
type TurnKind int

const (
	// TurnMalformed marks a response that requests more than one kind of
	// action (or none) and cannot drive the state machine.
	TurnMalformed TurnKind = iota
	// TurnFinal marks a terminal output candidate.
	TurnFinal
	// TurnToolCalls marks one or more tool invocation requests.
	TurnToolCalls
	// TurnHandoff marks a control transfer request to another agent.
	TurnHandoff
)

// String returns a readable label for the turn kind.
func (k TurnKind) String() string {
	switch k {
	case TurnFinal:
		return "final"
	case TurnToolCalls:
		return "tool_calls"
	case TurnHandoff:
		return "handoff"
	default:
		return "malformed"
	}
}

// Turn is the tagged union the state machine consumes. Exactly one of
// Output, Calls or HandoffTarget is meaningful depending on Kind; Reason is
// populated for TurnMalformed.
type Turn struct {
	Kind          TurnKind
	Output        string              // final output candidate (Kind == TurnFinal)
	Calls         []core.FunctionCall // requested tool calls (Kind == TurnToolCalls)
	TransferCall  core.FunctionCall   // the transfer call itself (Kind == TurnHandoff)
	HandoffTarget string              // requested target agent (Kind == TurnHandoff)
	Reason        string              // why the response is malformed
}

// transferArgs is the expected argument shape of the reserved transfer tool.
type transferArgs struct {
	Agent string `json:"agent"`
}

// Classify reduces a model response to exactly one turn kind. A response may
// request tool calls or a handoff or a final output, never more than one kind
// simultaneously; any combination is malformed because the active-agent
// identity would be ambiguous when forming the next model call.
func Classify(resp *Response) Turn {
	if resp == nil {
		return Turn{Kind: TurnMalformed, Reason: "nil response"}
	}

	var transfers, calls []core.FunctionCall
	for _, fc := range resp.ToolCalls() {
		if fc.Name == TransferToolName {
			transfers = append(transfers, fc)
			continue
		}
		calls = append(calls, fc)
	}

	switch {
	case len(transfers) > 0 && len(calls) > 0:
		return Turn{Kind: TurnMalformed, Reason: "response combines a handoff with tool calls"}
	case len(transfers) > 1:
		return Turn{Kind: TurnMalformed, Reason: fmt.Sprintf("response requests %d handoffs", len(transfers))}
	case len(transfers) == 1:
		var args transferArgs
		if err := json.Unmarshal([]byte(emptyToObject(transfers[0].Arguments)), &args); err != nil {
			return Turn{Kind: TurnMalformed, Reason: fmt.Sprintf("invalid handoff arguments: %v", err)}
		}
		if args.Agent == "" {
			return Turn{Kind: TurnMalformed, Reason: "handoff request missing target agent name"}
		}
		return Turn{Kind: TurnHandoff, TransferCall: transfers[0], HandoffTarget: args.Agent}
	case len(calls) > 0:
		return Turn{Kind: TurnToolCalls, Calls: calls}
	}

	text := resp.Content.Text()
	if text == "" {
		return Turn{Kind: TurnMalformed, Reason: "response carries neither output nor tool calls"}
	}
	return Turn{Kind: TurnFinal, Output: text}
}

func emptyToObject(args string) string {
	if args == "" {
		return "{}"
	}
	return args
}
