package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/macula/internal/generator"
	"github.com/verte-zerg/macula/internal/model"
	"github.com/verte-zerg/macula/internal/staircase"
)

const (
	// Segments is the number of line segments in the forced-choice tests.
	Segments = 3

	PhpMaxTrials          = 32
	PhpMaxReversals       = 6
	PhpThresholdReversals = 4

	MChartMaxTrials    = 15
	MChartMaxReversals = 4
)

// NewPHP starts a preferential hyperacuity session: a 2-down/1-up log
// staircase on the offset amplitude, stopping at 32 trials or 6 reversals.
func NewPHP(opts Options) *Sequencer {
	opts = opts.withDefaults()
	p := &phpProtocol{
		gen:   opts.Generator,
		stair: staircase.New(staircase.NewPhpStep()),
		est:   staircase.TrailingMean{N: PhpThresholdReversals},
		log:   opts.Logger,
	}
	return newSequencer(p, TrialOrReversalCap{MaxTrials: PhpMaxTrials, MaxReversals: PhpMaxReversals}, opts.Logger)
}

type phpProtocol struct {
	gen   *generator.Generator
	stair *staircase.Staircase
	est   staircase.Estimator
	log   *zap.Logger
	track []float64
}

func (p *phpProtocol) kind() model.TestKind { return model.TestPHP }

func (p *phpProtocol) stimulus(i int) model.Stimulus {
	v := p.stair.Value()
	p.track = append(p.track, v)
	return model.PhpStimulus{
		TrialIndex:    i,
		OffsetSegment: p.gen.Segment(Segments),
		OffsetAmount:  v,
	}
}

func (p *phpProtocol) apply(stim model.Stimulus, resp model.Response) (bool, error) {
	st, ok := stim.(model.PhpStimulus)
	if !ok {
		return false, fmt.Errorf("%w: php session holds %T", ErrInvalidState, stim)
	}
	seg, err := segmentChoice(resp)
	if err != nil {
		return false, err
	}
	correct := seg == st.OffsetSegment
	upd, err := p.stair.Apply(correct)
	if err != nil {
		return false, fmt.Errorf("php step: %w", err)
	}
	logReversal(p.log, model.TestPHP, st.TrialIndex, upd)
	return correct, nil
}

func (p *phpProtocol) reversals() int { return p.stair.Reversals() }

func (p *phpProtocol) result(trials []model.TrialRecord, reason StopReason) model.Result {
	st := p.stair.State()
	res := model.PhpResult{
		Trials:         trials,
		Track:          append([]float64(nil), p.track...),
		ReversalValues: st.ReversalValues,
		StopReason:     string(reason),
	}
	res.Threshold, res.Determined = threshold(p.stair, p.est)
	return res
}

// NewMChart starts an M-Chart session: a 1-up/1-down staircase over the dot
// spacing table, stopping at 15 trials or 4 reversals.
func NewMChart(opts Options) *Sequencer {
	opts = opts.withDefaults()
	p := &mchartProtocol{
		stair: staircase.New(staircase.NewMChartStep()),
		est:   staircase.MeanAll{},
		log:   opts.Logger,
	}
	return newSequencer(p, TrialOrReversalCap{MaxTrials: MChartMaxTrials, MaxReversals: MChartMaxReversals}, opts.Logger)
}

type mchartProtocol struct {
	stair *staircase.Staircase
	est   staircase.Estimator
	log   *zap.Logger
	track []float64
}

func (p *mchartProtocol) kind() model.TestKind { return model.TestMChart }

func (p *mchartProtocol) stimulus(i int) model.Stimulus {
	p.track = append(p.track, p.stair.Value())
	return model.MChartStimulus{
		TrialIndex:   i,
		SpacingIndex: p.stair.Level(),
		Spacing:      p.stair.Value(),
	}
}

func (p *mchartProtocol) apply(stim model.Stimulus, resp model.Response) (bool, error) {
	st, ok := stim.(model.MChartStimulus)
	if !ok {
		return false, fmt.Errorf("%w: m-chart session holds %T", ErrInvalidState, stim)
	}
	line, ok := resp.(model.LineResponse)
	if !ok {
		return false, fmt.Errorf("%w: m-chart expects a line response, got %T", ErrUnexpectedResponse, resp)
	}
	if line != model.LineStraight && line != model.LineDistorted {
		return false, fmt.Errorf("%w: line response %d", ErrUnexpectedResponse, int(line))
	}
	upd, err := p.stair.Apply(line == model.LineStraight)
	if err != nil {
		return false, fmt.Errorf("m-chart step: %w", err)
	}
	logReversal(p.log, model.TestMChart, st.TrialIndex, upd)
	return false, nil
}

func (p *mchartProtocol) reversals() int { return p.stair.Reversals() }

func (p *mchartProtocol) result(trials []model.TrialRecord, reason StopReason) model.Result {
	st := p.stair.State()
	res := model.MChartResult{
		Trials:         trials,
		Track:          append([]float64(nil), p.track...),
		ReversalValues: st.ReversalValues,
		StopReason:     string(reason),
	}
	res.Threshold, res.Determined = threshold(p.stair, p.est)
	return res
}

func segmentChoice(resp model.Response) (int, error) {
	seg, ok := resp.(model.SegmentResponse)
	if !ok {
		return 0, fmt.Errorf("%w: expected a segment choice, got %T", ErrUnexpectedResponse, resp)
	}
	if seg < 0 || int(seg) >= Segments {
		return 0, fmt.Errorf("%w: segment %d not in [0, %d]", ErrUnexpectedResponse, int(seg), Segments-1)
	}
	return int(seg), nil
}

// threshold reports an undetermined result instead of failing when no
// reversal was recorded.
func threshold(s *staircase.Staircase, est staircase.Estimator) (float64, bool) {
	v, err := s.Threshold(est)
	if errors.Is(err, staircase.ErrInsufficientData) {
		return 0, false
	}
	return v, err == nil
}

func logReversal(log *zap.Logger, kind model.TestKind, trial int, upd staircase.Update) {
	if !upd.Reversal {
		return
	}
	log.Debug("reversal",
		zap.String("test", string(kind)),
		zap.Int("trial", trial),
		zap.Float64("value", upd.ReversalValue),
		zap.String("direction", upd.Move.Direction.String()),
	)
}
