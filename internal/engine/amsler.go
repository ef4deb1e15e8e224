package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/macula/internal/generator"
	"github.com/verte-zerg/macula/internal/model"
	"github.com/verte-zerg/macula/internal/stats"
)

// FixationRadius is the distance from the grid center, in normalized
// coordinates, within which a tap during a blink counts as a fixation loss.
const FixationRadius = 0.05

var gridCenter = model.Point{X: 0.5, Y: 0.5}

// AmslerOptions configures an Amsler session.
type AmslerOptions struct {
	Eye       model.Eye
	Blink     BlinkOptions
	Clock     Clock
	Generator *generator.Generator
	Logger    *zap.Logger
}

// TapOutcome tells the caller what a tap did.
type TapOutcome int

const (
	TapMarked TapOutcome = iota
	TapFixationLoss
)

// Amsler is a single-shot timed session: the user marks distortions on the
// grid while a simulated blink checks fixation.
type Amsler struct {
	id      string
	eye     model.Eye
	clock   Clock
	log     *zap.Logger
	blinker *Blinker
	stop    Termination

	started  time.Time
	selected model.MarkType
	marks    []model.AmslerMark
	losses    int
	finalized bool
	result    model.AmslerResult
}

// NewAmsler starts an Amsler session and its blink task. The task lives until
// Finish or Close, or until ctx is cancelled.
func NewAmsler(ctx context.Context, opts AmslerOptions) *Amsler {
	if opts.Eye == "" {
		opts.Eye = model.EyeRight
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	id := uuid.NewString()
	log := opts.Logger.With(zap.String("test", string(model.TestAmsler)), zap.String("session", id))
	a := &Amsler{
		id:       id,
		eye:      opts.Eye,
		clock:    opts.Clock,
		log:      log,
		blinker:  NewBlinker(opts.Blink, opts.Generator, opts.Clock, log),
		stop:     SingleShotTimed{},
		started:  opts.Clock.Now(),
		selected: model.MarkDistortion,
	}
	a.blinker.Start(ctx)
	log.Debug("session started", zap.String("eye", string(a.eye)))
	return a
}

// SessionID returns the session's UUID.
func (a *Amsler) SessionID() string { return a.id }

// Eye returns the eye under test.
func (a *Amsler) Eye() model.Eye { return a.eye }

// Blinker exposes the session's blink task.
func (a *Amsler) Blinker() *Blinker { return a.blinker }

// Selected returns the mark type new taps will record.
func (a *Amsler) Selected() model.MarkType { return a.selected }

// Select changes the mark type for subsequent taps.
func (a *Amsler) Select(t model.MarkType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: mark type %q", ErrUnexpectedResponse, t)
	}
	a.selected = t
	return nil
}

// Tap handles a touch at p. During a blink a tap on the fixation point counts
// as a fixation loss; every other tap places a mark.
func (a *Amsler) Tap(p model.Point) (TapOutcome, error) {
	if a.Finished() {
		return 0, fmt.Errorf("%w: amsler session already finished", ErrInvalidState)
	}
	if !p.InUnitSquare() {
		return 0, fmt.Errorf("%w: (%.3f, %.3f)", ErrInvalidPoint, p.X, p.Y)
	}
	if a.blinker.Active() && distance(p, gridCenter) < FixationRadius {
		a.losses++
		a.log.Info("fixation loss", zap.Int("count", a.losses))
		return TapFixationLoss, nil
	}
	a.marks = append(a.marks, model.AmslerMark{Position: p, Type: a.selected})
	return TapMarked, nil
}

// UndoLastMark removes the most recent mark. It reports false when there is
// nothing to undo.
func (a *Amsler) UndoLastMark() (bool, error) {
	if a.Finished() {
		return false, fmt.Errorf("%w: amsler session already finished", ErrInvalidState)
	}
	if len(a.marks) == 0 {
		return false, nil
	}
	a.marks = a.marks[:len(a.marks)-1]
	return true, nil
}

// Marks returns a copy of the placed marks.
func (a *Amsler) Marks() []model.AmslerMark {
	out := make([]model.AmslerMark, len(a.marks))
	copy(out, a.marks)
	return out
}

// FixationLosses returns the current fixation loss count.
func (a *Amsler) FixationLosses() int { return a.losses }

// Finished reports whether the session's termination policy has closed it.
func (a *Amsler) Finished() bool {
	_, done := a.ended()
	return done
}

func (a *Amsler) ended() (StopReason, bool) {
	return a.stop.Check(Progress{Finalized: a.finalized})
}

// Finish ends the session, releases the blink task and scores it. Calling it
// again returns the same result.
func (a *Amsler) Finish() model.AmslerResult {
	if a.Finished() {
		return a.result
	}
	a.blinker.Stop()
	a.finalized = true
	reason, _ := a.ended()
	ended := a.clock.Now()
	duration := max(ended.Sub(a.started).Milliseconds(), 0)
	a.result = model.AmslerResult{
		SessionID:         a.id,
		EyeTested:         a.eye,
		Marks:             a.Marks(),
		FixationLossCount: a.losses,
		DurationMillis:    duration,
		StartedAt:         a.started,
		EndedAt:           ended,
		ReliabilityScore:  stats.Reliability(duration, a.losses),
	}
	a.log.Info("session finished",
		zap.String("reason", string(reason)),
		zap.Int("marks", len(a.marks)),
		zap.Int("fixation_losses", a.losses),
		zap.Int64("duration_ms", duration),
		zap.Float64("reliability", a.result.ReliabilityScore),
	)
	return a.result
}

// Close releases the blink task without scoring. It is safe after Finish.
func (a *Amsler) Close() {
	a.blinker.Stop()
}

func distance(a, b model.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
