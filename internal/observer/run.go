package observer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/macula/internal/engine"
	"github.com/verte-zerg/macula/internal/model"
)

const (
	// AmslerGridSize is the number of cells per side the observer marks on.
	AmslerGridSize = 20
	// amslerTapTime is the simulated time the observer spends per tap.
	amslerTapTime = 1500 * time.Millisecond
	// amslerScanSteps is how many tap-times the observer studies the grid
	// before marking.
	amslerScanSteps = 8
)

// SimClock is a manually advanced engine.Clock.
type SimClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewSimClock starts a clock at t.
func NewSimClock(t time.Time) *SimClock {
	return &SimClock{now: t}
}

// Now implements engine.Clock.
func (c *SimClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *SimClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// RunTrials answers every stimulus of s until it finishes.
func RunTrials(ctx context.Context, s *engine.Sequencer, o *Observer) (model.Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stim, ok := s.Current()
		if !ok {
			return s.Result()
		}
		resp, err := o.Respond(stim)
		if err != nil {
			return nil, err
		}
		step, err := s.Submit(resp)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", s.TrialIndex(), err)
		}
		if step.Done() {
			return step.Result, nil
		}
	}
}

// AmslerOptions configures a simulated Amsler run.
type AmslerOptions struct {
	Eye    model.Eye
	Blink  engine.BlinkOptions
	Clock  *SimClock
	Logger *zap.Logger
}

// RunAmsler walks the observer over the grid on simulated time. Blinks are
// rolled on the configured interval as the clock advances, and the observer
// glances at the center on attention slips.
func RunAmsler(ctx context.Context, o *Observer, opts AmslerOptions) model.AmslerResult {
	clock := opts.Clock
	if clock == nil {
		clock = NewSimClock(time.Now())
	}
	interval := opts.Blink.Interval
	manual := opts.Blink
	manual.Interval = 0
	a := engine.NewAmsler(ctx, engine.AmslerOptions{
		Eye:       opts.Eye,
		Blink:     manual,
		Clock:     clock,
		Generator: o.gen,
		Logger:    opts.Logger,
	})
	defer a.Close()

	var sinceRoll time.Duration
	advance := func(d time.Duration) {
		clock.Advance(d)
		if interval <= 0 {
			return
		}
		for sinceRoll += d; sinceRoll >= interval; sinceRoll -= interval {
			a.Blinker().Tick()
		}
	}

	glance := func() {
		if a.Blinker().Active() && o.GlancesAtCenter() {
			_, _ = a.Tap(model.Point{X: 0.5, Y: 0.5})
		}
	}
	for i := 0; i < amslerScanSteps && ctx.Err() == nil; i++ {
		advance(amslerTapTime)
		glance()
	}
	for _, p := range o.AmslerMarks(AmslerGridSize) {
		if ctx.Err() != nil {
			break
		}
		advance(amslerTapTime)
		glance()
		// Points come from in-grid cells, so Tap cannot reject them.
		_, _ = a.Tap(p)
	}
	advance(amslerTapTime)
	return a.Finish()
}

// RunReading reads every sentence on simulated time.
func RunReading(ctx context.Context, sentences []model.Sentence, o *Observer, clock *SimClock, log *zap.Logger) (model.ReadingResult, error) {
	if clock == nil {
		clock = NewSimClock(time.Now())
	}
	r, err := engine.NewReading(sentences, engine.ReadingOptions{Clock: clock, Logger: log})
	if err != nil {
		return model.ReadingResult{}, err
	}
	for !r.Finished() {
		if err := ctx.Err(); err != nil {
			return r.Result(), err
		}
		s, _, _ := r.Current()
		if err := r.StartTimer(); err != nil {
			return r.Result(), err
		}
		clock.Advance(o.ReadingTime(s))
		if _, err := r.StopTimer(); err != nil {
			return r.Result(), err
		}
		if _, err := r.Next(); err != nil {
			return r.Result(), err
		}
	}
	return r.Result(), nil
}
