package engine

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/macula/internal/model"
	"github.com/verte-zerg/macula/internal/stats"
)

// ErrNoSentences is returned when a reading session has nothing to read.
var ErrNoSentences = errors.New("reading corpus is empty")

// ReadingOptions configures a reading session.
type ReadingOptions struct {
	Clock  Clock
	Logger *zap.Logger
}

// Reading times the reader over a fixed list of sentences, one at a time.
type Reading struct {
	sentences []model.Sentence
	clock     Clock
	log       *zap.Logger
	stop      Termination

	index    int
	timed    bool
	running  bool
	started  time.Time
	attempts []model.ReadingAttempt
	finished bool
}

// NewReading starts a reading session on the first sentence.
func NewReading(sentences []model.Sentence, opts ReadingOptions) (*Reading, error) {
	if len(sentences) == 0 {
		return nil, ErrNoSentences
	}
	for i, s := range sentences {
		if s.WordCount <= 0 {
			return nil, fmt.Errorf("sentence %d: %w", i, stats.ErrInvalidWordCount)
		}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := &Reading{
		sentences: append([]model.Sentence(nil), sentences...),
		clock:     opts.Clock,
		log:       opts.Logger.With(zap.String("test", string(model.TestReading))),
		stop:      FixedTrialCount{N: len(sentences)},
	}
	r.log.Debug("session started", zap.Int("sentences", len(sentences)))
	return r, nil
}

// Current returns the sentence on screen and its index. It returns false once
// the session has finished.
func (r *Reading) Current() (model.Sentence, int, bool) {
	if r.finished {
		return model.Sentence{}, r.index, false
	}
	return r.sentences[r.index], r.index, true
}

// Len returns the number of sentences in the session.
func (r *Reading) Len() int { return len(r.sentences) }

// Running reports whether the timer is running.
func (r *Reading) Running() bool { return r.running }

// Elapsed returns the running timer's reading, or zero when stopped.
func (r *Reading) Elapsed() time.Duration {
	if !r.running {
		return 0
	}
	return r.clock.Now().Sub(r.started)
}

// Finished reports whether every sentence has been passed.
func (r *Reading) Finished() bool { return r.finished }

// Attempts returns the timed sentences so far.
func (r *Reading) Attempts() []model.ReadingAttempt {
	out := make([]model.ReadingAttempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}

// StartTimer starts timing the current sentence. Each sentence is timed at
// most once.
func (r *Reading) StartTimer() error {
	switch {
	case r.finished:
		return fmt.Errorf("%w: reading session already finished", ErrInvalidState)
	case r.running:
		return fmt.Errorf("%w: timer already running", ErrInvalidState)
	case r.timed:
		return fmt.Errorf("%w: sentence %d already timed", ErrInvalidState, r.index)
	}
	r.running = true
	r.started = r.clock.Now()
	return nil
}

// StopTimer stops the timer and records the attempt for the current sentence.
func (r *Reading) StopTimer() (model.ReadingAttempt, error) {
	if !r.running {
		return model.ReadingAttempt{}, fmt.Errorf("%w: timer not started", ErrInvalidState)
	}
	r.running = false
	elapsed := r.clock.Now().Sub(r.started).Milliseconds()
	s := r.sentences[r.index]
	wpm, err := stats.WordsPerMinute(s.WordCount, elapsed)
	if err != nil {
		return model.ReadingAttempt{}, fmt.Errorf("sentence %d: %w", r.index, err)
	}
	attempt := model.ReadingAttempt{
		SentenceIndex:  r.index,
		WordCount:      s.WordCount,
		DurationMillis: elapsed,
		WordsPerMinute: wpm,
	}
	r.attempts = append(r.attempts, attempt)
	r.timed = true
	r.log.Info("sentence timed",
		zap.Int("sentence", r.index),
		zap.Int64("duration_ms", elapsed),
		zap.Int("wpm", wpm),
	)
	return attempt, nil
}

// Next moves to the following sentence, timed or not. Passing the last
// sentence finishes the session; Next reports whether one remains.
func (r *Reading) Next() (bool, error) {
	if r.finished {
		return false, fmt.Errorf("%w: reading session already finished", ErrInvalidState)
	}
	if r.running {
		return false, fmt.Errorf("%w: stop the timer first", ErrInvalidState)
	}
	if reason, done := r.stop.Check(Progress{Trials: r.index + 1}); done {
		r.finished = true
		r.log.Info("session finished", zap.String("reason", string(reason)), zap.Int("attempts", len(r.attempts)))
		return false, nil
	}
	r.index++
	r.timed = false
	return true, nil
}

// Result summarizes the session. It is available at any time so a reader can
// quit early; unread sentences simply have no attempt.
func (r *Reading) Result() model.ReadingResult {
	wpms := make([]float64, len(r.attempts))
	for i, a := range r.attempts {
		wpms[i] = float64(a.WordsPerMinute)
	}
	return model.ReadingResult{
		Attempts:  r.Attempts(),
		Sentences: len(r.sentences),
		MeanWPM:   stats.Mean(wpms),
	}
}
