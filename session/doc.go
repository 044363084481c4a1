// Package session provides optional conversation continuity across runs. A
// Store keeps per-session history; the runner preloads it before a run and
// appends the items the run produced after a successful completion.
package session
