// Package generator draws the randomized parameters of test trials.
package generator

import (
	"math/rand"
	"sync"
	"time"
)

// Generator produces randomized stimulus parameters. It is safe for
// concurrent use; the Amsler blink task draws from it off the main goroutine.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return NewWithSource(rand.NewSource(seed))
}

// NewWithSource wraps an arbitrary source.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Segment selects one of n equal segments uniformly. n <= 0 yields 0.
func (g *Generator) Segment(n int) int {
	if n <= 0 {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Intn(n)
}

// Chance returns true with probability p.
func (g *Generator) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64() < p
}

// Float64 returns a value in [0,1).
func (g *Generator) Float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}

// OtherSegment returns a segment in [0,n) different from exclude.
func (g *Generator) OtherSegment(n, exclude int) int {
	if n <= 1 {
		return 0
	}
	pick := g.Segment(n - 1)
	if pick >= exclude {
		pick++
	}
	return pick
}
