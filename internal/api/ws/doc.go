// Package ws carries the two WebSocket surfaces of the service.
//
// A display surface attaches to exactly one session via
// /sessions/:id/stream: raw session output flows out as binary frames,
// keystrokes and control messages (input, resize, ping) flow in. A
// session exit is announced with a JSON "exited" frame so the surface
// can render a dead pane instead of a blank one.
//
// The host event feed at /events delivers lifecycle and attention
// events (session_created, session_exited, layout_changed,
// focus_changed, attention) to the hosting UI.
package ws
