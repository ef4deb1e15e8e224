package model

import "time"

// Result is the final outcome of a finished session. Consumers switch on the
// concrete type: AmslerResult, PhpResult, SdhResult, MChartResult,
// CentralFieldResult or ReadingResult.
type Result interface {
	Kind() TestKind
	isResult()
}

// AmslerResult summarizes an Amsler grid session.
type AmslerResult struct {
	SessionID         string
	EyeTested         Eye
	Marks             []AmslerMark
	FixationLossCount int
	DurationMillis    int64
	StartedAt         time.Time
	EndedAt           time.Time
	ReliabilityScore  float64
}

// PhpResult summarizes a PHP staircase.
type PhpResult struct {
	Trials         []TrialRecord
	Track          []float64
	ReversalValues []float64
	// Threshold is only valid when Determined is true.
	Threshold  float64
	Determined bool
	StopReason string
}

// SdhResult summarizes an SDH session.
type SdhResult struct {
	Trials       []TrialRecord
	CorrectCount int
	TotalTrials  int
	Score        float64
}

// MChartResult summarizes an M-Chart staircase.
type MChartResult struct {
	Trials         []TrialRecord
	Track          []float64
	ReversalValues []float64
	// Threshold is only valid when Determined is true.
	Threshold  float64
	Determined bool
	StopReason string
}

// CentralFieldResult holds the seen/not-seen answer for every grid cell in
// raster order.
type CentralFieldResult struct {
	Trials    []TrialRecord
	Seen      []bool
	SeenCount int
	GridSize  int
}

// Grid returns Seen reshaped into rows.
func (r CentralFieldResult) Grid() [][]bool {
	if r.GridSize <= 0 {
		return nil
	}
	rows := make([][]bool, 0, r.GridSize)
	for start := 0; start < len(r.Seen); start += r.GridSize {
		end := start + r.GridSize
		if end > len(r.Seen) {
			end = len(r.Seen)
		}
		row := make([]bool, end-start)
		copy(row, r.Seen[start:end])
		rows = append(rows, row)
	}
	return rows
}

// ReadingAttempt is one timed sentence.
type ReadingAttempt struct {
	SentenceIndex  int
	WordCount      int
	DurationMillis int64
	WordsPerMinute int
}

// ReadingResult lists every timed sentence of a reading session.
type ReadingResult struct {
	Attempts  []ReadingAttempt
	Sentences int
	MeanWPM   float64
}

func (AmslerResult) Kind() TestKind       { return TestAmsler }
func (PhpResult) Kind() TestKind          { return TestPHP }
func (SdhResult) Kind() TestKind          { return TestSDH }
func (MChartResult) Kind() TestKind       { return TestMChart }
func (CentralFieldResult) Kind() TestKind { return TestCentralField }
func (ReadingResult) Kind() TestKind      { return TestReading }

func (AmslerResult) isResult()       {}
func (PhpResult) isResult()          {}
func (SdhResult) isResult()          {}
func (MChartResult) isResult()       {}
func (CentralFieldResult) isResult() {}
func (ReadingResult) isResult()      {}
