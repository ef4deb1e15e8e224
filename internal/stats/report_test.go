package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/macula/internal/model"
)

type fakeResult struct{ model.Result }

func render(t *testing.T, r model.Result) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderResult(&buf, r, PlotOptions{Width: 40, Height: 4}))
	return buf.String()
}

func TestRenderAmsler(t *testing.T) {
	out := render(t, model.AmslerResult{
		SessionID:         "abc",
		EyeTested:         model.EyeLeft,
		FixationLossCount: 1,
		DurationMillis:    12500,
		ReliabilityScore:  1,
		Marks: []model.AmslerMark{
			{Position: model.Point{X: 0.25, Y: 0.5}, Type: model.MarkDistortion},
		},
	})
	assert.Contains(t, out, "Amsler grid (LEFT eye)")
	assert.Contains(t, out, "Session: abc")
	assert.Contains(t, out, "Duration: 12.5s")
	assert.Contains(t, out, "Fixation losses: 1")
	assert.Contains(t, out, "Reliability: 1.00")
	assert.Contains(t, out, "0.250")
	assert.Contains(t, out, "DISTORTION")
}

func TestRenderAmslerWithoutMarks(t *testing.T) {
	out := render(t, model.AmslerResult{EyeTested: model.EyeRight})
	assert.Contains(t, out, "No marks placed.")
}

func TestRenderStaircasePlotsTrack(t *testing.T) {
	out := render(t, model.PhpResult{
		Track:          []float64{0.25, 0.175, 0.25, 0.175},
		ReversalValues: []float64{0.175, 0.25},
		Threshold:      0.2125,
		Determined:     true,
		StopReason:     "max_reversals",
	})
	assert.Contains(t, out, "PHP staircase")
	assert.Contains(t, out, "Reversals: 2 [0.175 0.250]")
	assert.Contains(t, out, "Stopped: max_reversals")
	assert.Contains(t, out, "Threshold (offset): 0.2125")
	assert.Contains(t, out, "Legend:")
	assert.Contains(t, out, "threshold")
}

func TestRenderStaircaseUndetermined(t *testing.T) {
	out := render(t, model.MChartResult{Track: []float64{1.0}})
	assert.Contains(t, out, "M-Chart staircase")
	assert.Contains(t, out, "Threshold (spacing): undetermined")
	assert.NotContains(t, out, "Legend:")
}

func TestRenderSdh(t *testing.T) {
	out := render(t, model.SdhResult{CorrectCount: 15, TotalTrials: 20, Score: 0.75})
	assert.Contains(t, out, "Correct: 15/20")
	assert.Contains(t, out, "Score: 75%")
}

func TestRenderCentralGrid(t *testing.T) {
	seen := make([]bool, 25)
	for i := range seen {
		seen[i] = i != 12
	}
	out := render(t, model.CentralFieldResult{Seen: seen, SeenCount: 24, GridSize: 5})
	assert.Contains(t, out, "Seen: 24/25")
	assert.Contains(t, out, "● ● ○ ● ●")
	assert.Equal(t, 1, strings.Count(out, "○"))
}

func TestRenderReading(t *testing.T) {
	out := render(t, model.ReadingResult{
		Sentences: 4,
		MeanWPM:   75,
		Attempts: []model.ReadingAttempt{
			{SentenceIndex: 0, WordCount: 9, DurationMillis: 6000, WordsPerMinute: 90},
			{SentenceIndex: 1, WordCount: 9, DurationMillis: 9000, WordsPerMinute: 60},
		},
	})
	assert.Contains(t, out, "Sentences read: 2/4")
	assert.Contains(t, out, "6.00")
	assert.Contains(t, out, "Mean WPM: 75.0")
}

func TestRenderReadingWithoutAttempts(t *testing.T) {
	out := render(t, model.ReadingResult{Sentences: 4})
	assert.Contains(t, out, "Sentences read: 0/4")
	assert.NotContains(t, out, "Mean WPM")
}

func TestRenderResultRejectsUnknownType(t *testing.T) {
	var buf bytes.Buffer
	err := RenderResult(&buf, fakeResult{}, PlotOptions{})
	require.Error(t, err)
	assert.Empty(t, buf.String())
}
