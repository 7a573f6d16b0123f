package layers

import (
	"fmt"
	"sync"
	"time"
)

// IDGenerator issues time-based, strictly increasing layer ids. Ids are never reused
// within a generator, even after the layer is removed.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

func (g *IDGenerator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.now().UnixNano()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return ID(fmt.Sprintf("layer-%d", n))
}
