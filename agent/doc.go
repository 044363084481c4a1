// Package agent defines the immutable agent configuration consumed by the
// runner: identity, instructions, model, tool set, guardrails, declared
// handoff edges, expected output shape and lifecycle hooks. An Agent is
// constructed once and may be shared read-only across concurrent runs.
package agent
