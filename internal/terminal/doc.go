// Package terminal owns the set of live shell sessions.
//
// Each session wraps one shell process attached to a pseudo-terminal.
// The Registry is the sole owner of process handles: creation, input,
// resize, and termination all go through it, and removal from the
// registry happens only when the exit event for the process arrives.
//
// Output and exit events fan out to registered Sinks (the I/O router,
// the attention monitor). For a single session, output chunks are
// delivered in production order and the exit event is delivered after
// the final chunk. No ordering exists across sessions.
//
// Spawning is abstracted behind the Spawner interface so the registry
// can be exercised in tests without a real pty. The default spawner
// uses creack/pty with the platform default shell.
package terminal
