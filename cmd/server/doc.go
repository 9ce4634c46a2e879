// Command server runs the termdeck multi-terminal session service.
//
// It exposes session lifecycle, layout, and attention state over HTTP,
// streams session bytes to display surfaces over WebSocket, and feeds
// host-level events to the desktop shell. Configuration comes from
// environment variables or a TOML file (CONFIG_FILE).
package main
