// Package server wires the registry, router, layout coordinator,
// attention monitor, and API surfaces into one HTTP server.
package server
