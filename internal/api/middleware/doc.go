// Package middleware provides HTTP middleware for the control plane:
// CORS, per-IP rate limiting, and request id propagation.
package middleware
