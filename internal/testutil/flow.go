package testutil

import (
	"fmt"
	"sync"
)

// FixedFlowGenerator hands out predictable session ids: prefix-1, prefix-2
// and so on. The same scenario run with a fresh generator produces
// byte-identical session logs.
//
// Thread-safety: FixedFlowGenerator is safe for concurrent use.
type FixedFlowGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedFlowGenerator creates a generator. An empty prefix becomes
// "test-session".
func NewFixedFlowGenerator(prefix string) *FixedFlowGenerator {
	if prefix == "" {
		prefix = "test-session"
	}
	return &FixedFlowGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *FixedFlowGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
