// Package runner implements the turn executor: the state machine that drives
// one or more agents through model calls, guardrail checks, tool dispatch and
// handoffs until a terminal output is produced or the run fails with a
// classified error. Run is the sole externally callable operation of the
// core runtime.
package runner
