package agent

import (
	"fmt"

	"github.com/hupe1980/agentloop/guardrail"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// Options configure an Agent. Use functional options with New.
type Options struct {
	// Instructions is the system prompt driving the agent's model calls.
	Instructions string
	// Tools the agent may call; names must be unique within the agent.
	Tools []tool.Tool
	// InputGuardrails run before each model call of the agent.
	InputGuardrails []guardrail.Input
	// OutputGuardrails run against the agent's candidate final output.
	OutputGuardrails []guardrail.Output
	// Handoffs declares the agents this agent may transfer control to.
	Handoffs []Handoff
	// OutputSchema optionally declares the JSON shape of the final output.
	// When set, the runner decodes the final text into a structured value.
	OutputSchema map[string]any
	// Hooks receive lifecycle notifications for this agent.
	Hooks Hooks
}

// Agent is an immutable configured reasoning unit. All fields are fixed at
// construction; the same Agent may drive any number of concurrent runs.
type Agent struct {
	name             string
	instructions     string
	llm              model.Model
	tools            *tool.Registry
	inputGuardrails  []guardrail.Input
	outputGuardrails []guardrail.Output
	handoffs         []Handoff
	handoffIndex     map[string]int
	outputSchema     map[string]any
	hooks            Hooks
}

// New constructs an Agent, validating that the name is set, the model is
// present, tool names are unique and handoff targets are distinct.
func New(name string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("agent name must not be empty")
	}
	if llm == nil {
		return nil, fmt.Errorf("agent %q: model must not be nil", name)
	}

	opts := Options{
		Instructions: fmt.Sprintf("You are %s, a helpful AI assistant.", name),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry, err := tool.NewRegistry(opts.Tools...)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", name, err)
	}

	handoffIndex := make(map[string]int, len(opts.Handoffs))
	for i, h := range opts.Handoffs {
		if h.Target == nil {
			return nil, fmt.Errorf("agent %q: handoff %d has nil target", name, i)
		}
		target := h.Target.Name()
		if target == name {
			return nil, fmt.Errorf("agent %q: handoff to itself", name)
		}
		if _, exists := handoffIndex[target]; exists {
			return nil, fmt.Errorf("agent %q: duplicate handoff target %q", name, target)
		}
		handoffIndex[target] = i
	}

	return &Agent{
		name:             name,
		instructions:     opts.Instructions,
		llm:              llm,
		tools:            registry,
		inputGuardrails:  opts.InputGuardrails,
		outputGuardrails: opts.OutputGuardrails,
		handoffs:         opts.Handoffs,
		handoffIndex:     handoffIndex,
		outputSchema:     opts.OutputSchema,
		hooks:            opts.Hooks,
	}, nil
}

// Name returns the agent's unique identifier within a run's agent graph.
func (a *Agent) Name() string { return a.name }

// Instructions returns the system prompt for the agent's model calls.
func (a *Agent) Instructions() string { return a.instructions }

// Model returns the inference provider driving the agent.
func (a *Agent) Model() model.Model { return a.llm }

// Tools returns the agent's tool registry.
func (a *Agent) Tools() *tool.Registry { return a.tools }

// InputGuardrails returns the input-phase guardrails in registration order.
func (a *Agent) InputGuardrails() []guardrail.Input { return a.inputGuardrails }

// OutputGuardrails returns the output-phase guardrails in registration order.
func (a *Agent) OutputGuardrails() []guardrail.Output { return a.outputGuardrails }

// Handoffs returns the declared handoff edges in registration order.
func (a *Agent) Handoffs() []Handoff { return a.handoffs }

// HandoffTargets returns the names of all declared handoff targets.
func (a *Agent) HandoffTargets() []string {
	targets := make([]string, len(a.handoffs))
	for i, h := range a.handoffs {
		targets[i] = h.Target.Name()
	}
	return targets
}

// ResolveHandoff looks up a declared handoff edge by target name. Pure
// lookup; no side effects.
func (a *Agent) ResolveHandoff(target string) (Handoff, bool) {
	i, ok := a.handoffIndex[target]
	if !ok {
		return Handoff{}, false
	}
	return a.handoffs[i], true
}

// OutputSchema returns the declared final output shape, or nil. Callers must
// not mutate the returned map.
func (a *Agent) OutputSchema() map[string]any { return a.outputSchema }

// Hooks returns the agent's lifecycle hooks.
func (a *Agent) Hooks() Hooks { return a.hooks }

// ToolDefinitions builds the model-facing tool schemas for this agent,
// including the reserved transfer tool when handoff targets are declared.
func (a *Agent) ToolDefinitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, a.tools.Len()+1)
	for _, name := range a.tools.Names() {
		t, _ := a.tools.Get(name)
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	if len(a.handoffs) > 0 {
		defs = append(defs, model.TransferToolDefinition(a.HandoffTargets()))
	}
	return defs
}
