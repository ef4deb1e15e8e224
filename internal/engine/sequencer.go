package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/macula/internal/generator"
	"github.com/verte-zerg/macula/internal/model"
)

// protocol is the test-specific half of a trial session.
type protocol interface {
	kind() model.TestKind
	// stimulus draws the parameters for trial i. It is called exactly once per
	// presented trial.
	stimulus(i int) model.Stimulus
	// apply interprets resp against the hidden parameters of stim.
	apply(stim model.Stimulus, resp model.Response) (correct bool, err error)
	reversals() int
	result(trials []model.TrialRecord, reason StopReason) model.Result
}

// Options configures a session.
type Options struct {
	// Generator supplies trial randomness; nil uses a time-seeded generator.
	Generator *generator.Generator
	// Logger receives session events; nil disables logging.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Generator == nil {
		o.Generator = generator.New()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Step is the outcome of one response: either the next stimulus or, once the
// session has terminated, the final result.
type Step struct {
	Next   model.Stimulus
	Result model.Result
}

// Done reports whether the session finished with this step.
func (s Step) Done() bool {
	return s.Result != nil
}

// Sequencer drives one trial-based session from ACTIVE to FINISHED.
type Sequencer struct {
	proto protocol
	stop  Termination
	log   *zap.Logger

	trial    int
	current  model.Stimulus
	trials   []model.TrialRecord
	finished bool
	reason   StopReason
	result   model.Result
}

func newSequencer(p protocol, stop Termination, log *zap.Logger) *Sequencer {
	s := &Sequencer{
		proto: p,
		stop:  stop,
		log:   log.With(zap.String("test", string(p.kind()))),
	}
	s.current = p.stimulus(0)
	s.log.Debug("session started")
	return s
}

// Kind returns the test being run.
func (s *Sequencer) Kind() model.TestKind {
	return s.proto.kind()
}

// Current returns the stimulus awaiting a response. It returns false once the
// session has finished.
func (s *Sequencer) Current() (model.Stimulus, bool) {
	if s.finished {
		return nil, false
	}
	return s.current, true
}

// TrialIndex returns the zero-based index of the current trial.
func (s *Sequencer) TrialIndex() int {
	return s.trial
}

// Finished reports whether the session has terminated.
func (s *Sequencer) Finished() bool {
	return s.finished
}

// StopReason returns why the session ended.
func (s *Sequencer) StopReason() StopReason {
	return s.reason
}

// Trials returns a copy of the answered trials.
func (s *Sequencer) Trials() []model.TrialRecord {
	out := make([]model.TrialRecord, len(s.trials))
	copy(out, s.trials)
	return out
}

// Result returns the final result of a finished session.
func (s *Sequencer) Result() (model.Result, error) {
	if !s.finished {
		return nil, fmt.Errorf("%w: %s session still active", ErrInvalidState, s.Kind())
	}
	return s.result, nil
}

// Submit feeds a response for the current trial.
func (s *Sequencer) Submit(resp model.Response) (Step, error) {
	if s.finished {
		return Step{}, fmt.Errorf("%w: %s session already finished", ErrInvalidState, s.Kind())
	}
	correct, err := s.proto.apply(s.current, resp)
	if err != nil {
		return Step{}, err
	}
	s.trials = append(s.trials, model.TrialRecord{
		TrialIndex: s.trial,
		Stimulus:   s.current,
		Response:   resp,
		Correct:    correct,
	})
	s.trial++

	if reason, done := s.stop.Check(Progress{Trials: s.trial, Reversals: s.proto.reversals()}); done {
		s.finished = true
		s.reason = reason
		s.current = nil
		s.result = s.proto.result(s.Trials(), reason)
		s.log.Info("session finished",
			zap.Int("trials", s.trial),
			zap.Int("reversals", s.proto.reversals()),
			zap.String("reason", string(reason)),
		)
		return Step{Result: s.result}, nil
	}
	s.current = s.proto.stimulus(s.trial)
	return Step{Next: s.current}, nil
}

// Start creates a trial-based session for kind. Amsler and reading sessions
// have their own constructors.
func Start(kind model.TestKind, opts Options) (*Sequencer, error) {
	switch kind {
	case model.TestPHP:
		return NewPHP(opts), nil
	case model.TestMChart:
		return NewMChart(opts), nil
	case model.TestSDH:
		return NewSDH(opts), nil
	case model.TestCentralField:
		return NewCentralField(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q is not a trial-based test", ErrUnknownTest, kind)
	}
}
