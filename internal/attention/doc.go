// Package attention signals output arriving in unfocused panes.
//
// A flash marks "a background command finished or produced output"
// without polling. Bursts of output coalesce into a single cue: new
// output for a pane with an active flash is absorbed rather than
// re-triggering or extending the timer.
package attention
