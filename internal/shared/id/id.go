// Package id provides typed, prefixed ULID generation.
//
// Session ids are not generated here: the registry owns its own
// "term-<counter>" scheme because the counter resets with the registry.
// Everything else that needs an identity (attached surfaces, event feed
// clients, requests) gets a prefixed ULID: lexicographically sortable,
// unique, and readable in logs.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SurfaceID identifies one attached display surface connection.
type SurfaceID string

// FeedClientID identifies one host event feed connection.
type FeedClientID string

// RequestID identifies an API request.
type RequestID string

const (
	SurfacePrefix    = "surf"
	FeedClientPrefix = "feed"
	RequestPrefix    = "req"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with cryptographically secure entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy
// source, useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSurfaceID generates a surface connection id.
func NewSurfaceID() SurfaceID {
	return SurfaceID(Default().GenerateWithPrefix(SurfacePrefix))
}

// NewFeedClientID generates an event feed client id.
func NewFeedClientID() FeedClientID {
	return FeedClientID(Default().GenerateWithPrefix(FeedClientPrefix))
}

// NewRequestID generates a request id.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id SurfaceID) String() string    { return string(id) }
func (id FeedClientID) String() string { return string(id) }
func (id RequestID) String() string    { return string(id) }
