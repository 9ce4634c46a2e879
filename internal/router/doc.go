// Package router forwards bytes between sessions and display surfaces.
//
// One direction carries session output to the surfaces subscribed to
// that session id; the other forwards surface keystrokes to the
// session's input stream. The router never interprets bytes and never
// touches process handles.
package router
