package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/macula/internal/generator"
)

const (
	DefaultBlinkInterval    = 3 * time.Second
	DefaultBlinkDuration    = 200 * time.Millisecond
	DefaultBlinkProbability = 0.3
)

// BlinkOptions configures the simulated blink.
type BlinkOptions struct {
	// Interval between blink rolls. Zero disables the background task; Tick
	// can still be driven by hand.
	Interval    time.Duration
	Duration    time.Duration
	Probability float64
}

// DefaultBlinkOptions returns the stock blink schedule.
func DefaultBlinkOptions() BlinkOptions {
	return BlinkOptions{
		Interval:    DefaultBlinkInterval,
		Duration:    DefaultBlinkDuration,
		Probability: DefaultBlinkProbability,
	}
}

// Blinker periodically rolls for a blink and remembers until when the latest
// one lasts. The background task belongs to one session and is released by
// Stop.
type Blinker struct {
	opts  BlinkOptions
	gen   *generator.Generator
	clock Clock
	log   *zap.Logger

	mu          sync.Mutex
	activeUntil time.Time
	blinks      int
	cancel      context.CancelFunc
	runID       int
	wg          sync.WaitGroup
}

// NewBlinker creates a stopped Blinker.
func NewBlinker(opts BlinkOptions, gen *generator.Generator, clock Clock, log *zap.Logger) *Blinker {
	if gen == nil {
		gen = generator.New()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Blinker{opts: opts, gen: gen, clock: clock, log: log}
}

// Start launches the periodic task. It is a no-op when already running or
// when no interval is configured.
func (b *Blinker) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil || b.opts.Interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.runID++
	b.wg.Add(1)
	go b.run(ctx, b.runID)
}

func (b *Blinker) run(ctx context.Context, id int) {
	defer b.wg.Done()
	defer b.release(id)
	ticker := time.NewTicker(b.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Tick()
		}
	}
}

// release clears the cancel func once task id has exited, unless a newer task
// has replaced it.
func (b *Blinker) release(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.runID != id || b.cancel == nil {
		return
	}
	b.cancel()
	b.cancel = nil
}

// Tick rolls once for a blink and reports whether one started.
func (b *Blinker) Tick() bool {
	if !b.gen.Chance(b.opts.Probability) {
		return false
	}
	now := b.clock.Now()
	b.mu.Lock()
	b.activeUntil = now.Add(b.opts.Duration)
	b.blinks++
	b.mu.Unlock()
	b.log.Debug("blink", zap.Duration("duration", b.opts.Duration))
	return true
}

// Active reports whether a blink is in progress.
func (b *Blinker) Active() bool {
	now := b.clock.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Before(b.activeUntil)
}

// Blinks returns how many blinks have occurred.
func (b *Blinker) Blinks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blinks
}

// Running reports whether the background task is alive.
func (b *Blinker) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel != nil
}

// Stop cancels the background task and waits for it to exit. Safe to call
// more than once.
func (b *Blinker) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.activeUntil = time.Time{}
	b.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	b.wg.Wait()
}
