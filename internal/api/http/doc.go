// Package http implements the REST control plane: session lifecycle,
// layout transitions, focus movement, and attention state. Errors from
// the session registry map onto HTTP statuses (404 unknown id, 409
// duplicate id, 502 spawn failure, 503 missing pty capability).
package http
