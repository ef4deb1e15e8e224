package engine

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/macula/internal/generator"
	"github.com/verte-zerg/macula/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func seeded() Options {
	return Options{Generator: generator.NewSeeded(7)}
}

// answerPHP answers the current PHP trial correctly or not.
func answerPHP(t *testing.T, s *Sequencer, correct bool) Step {
	t.Helper()
	cur, ok := s.Current()
	require.True(t, ok)
	seg := cur.(model.PhpStimulus).OffsetSegment
	if !correct {
		seg = (seg + 1) % Segments
	}
	step, err := s.Submit(model.SegmentResponse(seg))
	require.NoError(t, err)
	return step
}

func TestPHPStopsAtTrialCapWithoutReversals(t *testing.T) {
	s := NewPHP(seeded())
	var step Step
	for i := 0; i < PhpMaxTrials; i++ {
		require.False(t, s.Finished(), "finished early at trial %d", i)
		step = answerPHP(t, s, true)
	}
	require.True(t, step.Done())
	assert.Equal(t, StopReasonMaxTrials, s.StopReason())

	res, ok := step.Result.(model.PhpResult)
	require.True(t, ok)
	assert.Len(t, res.Trials, PhpMaxTrials)
	assert.Len(t, res.Track, PhpMaxTrials)
	assert.Empty(t, res.ReversalValues)
	assert.False(t, res.Determined, "no reversals means no threshold")
	assert.Equal(t, 0.25, res.Track[0])
	for _, v := range res.Track {
		assert.GreaterOrEqual(t, v, 0.02)
		assert.LessOrEqual(t, v, 0.4)
	}
	for _, tr := range res.Trials {
		assert.True(t, tr.Correct)
	}
}

func TestPHPStopsAtSixReversals(t *testing.T) {
	s := NewPHP(seeded())
	pattern := []bool{true, true, false, true, true, false, true, true, false, true, true}
	var step Step
	for i, correct := range pattern {
		require.False(t, s.Finished(), "finished early at trial %d", i)
		step = answerPHP(t, s, correct)
	}
	require.True(t, step.Done())
	assert.Equal(t, StopReasonMaxReversals, s.StopReason())

	res := step.Result.(model.PhpResult)
	require.Len(t, res.ReversalValues, PhpMaxReversals)
	low := math.Exp(math.Log(0.25) - 0.357)
	assert.InDelta(t, low, res.ReversalValues[0], 1e-9)
	assert.InDelta(t, 0.25, res.ReversalValues[1], 1e-9)
	require.True(t, res.Determined)
	assert.InDelta(t, (low+0.25)/2, res.Threshold, 1e-9)
	assert.Len(t, res.Track, len(pattern))
}

func TestPHPFirstTwoCorrectStepDown(t *testing.T) {
	s := NewPHP(seeded())
	answerPHP(t, s, true)
	cur, _ := s.Current()
	assert.Equal(t, 0.25, cur.(model.PhpStimulus).OffsetAmount)
	answerPHP(t, s, true)
	cur, _ = s.Current()
	assert.InDelta(t, 0.175, cur.(model.PhpStimulus).OffsetAmount, 0.001)
}

func TestPHPRejectsWrongResponse(t *testing.T) {
	s := NewPHP(seeded())

	_, err := s.Submit(model.LineStraight)
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	_, err = s.Submit(model.SegmentResponse(3))
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	_, err = s.Submit(model.SegmentResponse(-1))
	require.ErrorIs(t, err, ErrUnexpectedResponse)

	assert.Equal(t, 0, s.TrialIndex())
	assert.Empty(t, s.Trials())
}

func TestSeededSessionsAreReproducible(t *testing.T) {
	a := NewPHP(seeded())
	b := NewPHP(seeded())
	for i := 0; i < 10; i++ {
		ca, _ := a.Current()
		cb, _ := b.Current()
		require.Equal(t, ca, cb)
		answerPHP(t, a, i%3 != 0)
		answerPHP(t, b, i%3 != 0)
	}
}

func TestSubmitAfterFinishIsInvalid(t *testing.T) {
	s := NewSDH(seeded())

	_, err := s.Result()
	require.ErrorIs(t, err, ErrInvalidState)

	for i := 0; i < SdhTrials; i++ {
		_, err := s.Submit(model.SegmentResponse(0))
		require.NoError(t, err)
	}
	require.True(t, s.Finished())
	_, ok := s.Current()
	assert.False(t, ok)

	_, err = s.Submit(model.SegmentResponse(0))
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, s.Trials(), SdhTrials)

	res, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, model.TestSDH, res.Kind())
}

func TestMChartStopsAtTrialCap(t *testing.T) {
	s := NewMChart(Options{})
	var step Step
	for i := 0; i < MChartMaxTrials; i++ {
		var err error
		step, err = s.Submit(model.LineStraight)
		require.NoError(t, err)
	}
	require.True(t, step.Done())
	assert.Equal(t, StopReasonMaxTrials, s.StopReason())

	res := step.Result.(model.MChartResult)
	assert.Len(t, res.Track, MChartMaxTrials)
	assert.Equal(t, []float64{1.0, 1.2, 1.5, 2.0, 2.0}, res.Track[:5])
	assert.False(t, res.Determined)
}

func TestMChartAveragesAllReversals(t *testing.T) {
	s := NewMChart(Options{})
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, model.MChartStimulus{TrialIndex: 0, SpacingIndex: 6, Spacing: 1.0}, cur)

	responses := []model.LineResponse{model.LineDistorted, model.LineStraight, model.LineDistorted, model.LineStraight, model.LineDistorted}
	var step Step
	for _, r := range responses {
		var err error
		step, err = s.Submit(r)
		require.NoError(t, err)
	}
	require.True(t, step.Done())
	assert.Equal(t, StopReasonMaxReversals, s.StopReason())

	res := step.Result.(model.MChartResult)
	assert.Equal(t, []float64{0.8, 1.0, 0.8, 1.0}, res.ReversalValues)
	require.True(t, res.Determined)
	assert.InDelta(t, 0.9, res.Threshold, 1e-12)
	assert.Equal(t, []float64{1.0, 0.8, 1.0, 0.8, 1.0}, res.Track)
}

func TestMChartRejectsUnknownLineResponse(t *testing.T) {
	s := NewMChart(Options{})
	_, err := s.Submit(model.LineResponse(2))
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	_, err = s.Submit(model.SeenResponse(true))
	require.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestSDHScoresCorrectAnswers(t *testing.T) {
	s := NewSDH(seeded())
	for !s.Finished() {
		cur, _ := s.Current()
		st := cur.(model.SdhStimulus)
		require.GreaterOrEqual(t, st.HiddenSegment, 0)
		require.Less(t, st.HiddenSegment, Segments)
		resp := st.HiddenSegment
		if st.TrialIndex%4 == 0 {
			resp = (resp + 1) % Segments
		}
		_, err := s.Submit(model.SegmentResponse(resp))
		require.NoError(t, err)
	}
	res, err := s.Result()
	require.NoError(t, err)
	sdh := res.(model.SdhResult)
	assert.Equal(t, SdhTrials, sdh.TotalTrials)
	assert.Equal(t, 15, sdh.CorrectCount)
	assert.InDelta(t, 0.75, sdh.Score, 1e-12)
	assert.Equal(t, StopReasonCompleted, s.StopReason())
}

func TestCentralFieldWalksGridInRasterOrder(t *testing.T) {
	s := NewCentralField(Options{})
	for i := 0; i < CentralTrials; i++ {
		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, model.CentralStimulus{TrialIndex: i, Row: i / 5, Col: i % 5}, cur)
		_, err := s.Submit(model.SeenResponse(i != 12))
		require.NoError(t, err)
	}
	res, err := s.Result()
	require.NoError(t, err)
	cf := res.(model.CentralFieldResult)
	assert.Equal(t, 24, cf.SeenCount)
	grid := cf.Grid()
	require.Len(t, grid, 5)
	assert.False(t, grid[2][2])
	assert.True(t, grid[0][0])
}

func TestStartDispatchesTrialKinds(t *testing.T) {
	for _, kind := range []model.TestKind{model.TestPHP, model.TestMChart, model.TestSDH, model.TestCentralField} {
		s, err := Start(kind, seeded())
		require.NoError(t, err)
		assert.Equal(t, kind, s.Kind())
	}
	_, err := Start(model.TestAmsler, seeded())
	require.ErrorIs(t, err, ErrUnknownTest)
	_, err = Start(model.TestKind("nope"), seeded())
	require.ErrorIs(t, err, ErrUnknownTest)
}

func TestTerminationPolicies(t *testing.T) {
	c := TrialOrReversalCap{MaxTrials: 32, MaxReversals: 6}
	_, done := c.Check(Progress{Trials: 31, Reversals: 5})
	assert.False(t, done)
	reason, done := c.Check(Progress{Trials: 32, Reversals: 6})
	assert.True(t, done)
	assert.Equal(t, StopReasonMaxReversals, reason)

	reason, done = FixedTrialCount{N: 20}.Check(Progress{Trials: 20})
	assert.True(t, done)
	assert.Equal(t, StopReasonCompleted, reason)

	_, done = SingleShotTimed{}.Check(Progress{Trials: 100})
	assert.False(t, done)
	_, done = SingleShotTimed{}.Check(Progress{Finalized: true})
	assert.True(t, done)
}
