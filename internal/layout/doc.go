// Package layout arranges terminal panes and tracks input focus.
//
// Four modes exist: single, two-horizontal, two-vertical, and four.
// Mode transitions are explicit; shrinking a layout parks the sessions
// of removed panes rather than killing them, and growing back reclaims
// a parked session by pane index before creating a new one.
package layout
