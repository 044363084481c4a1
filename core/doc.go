// Package core contains the shared data model of the runtime: role-based
// conversation content with a closed set of part types, the per-run mutable
// RunContext, and the constrained ToolContext handed to tool implementations.
package core
