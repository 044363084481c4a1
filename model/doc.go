// Package model defines the provider contract consumed by the runner: a
// normalized Request/Response pair, unified tool call and tool definition
// shapes, and the tagged-union classification of a response into exactly one
// of final output, tool calls, handoff or malformed. Provider adapters live
// in sub-packages (openai, anthropic); MockModel supports deterministic tests.
package model
