package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator returns "<prefix>-0001", "<prefix>-0002", ...
//
// Used in place of random UUIDs so that golden history snapshots are
// byte-identical across runs.
//
// Thread-safety: safe for concurrent use.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. An empty prefix becomes "id".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// NewID returns the next id.
func (g *SequentialIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
