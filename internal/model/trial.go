package model

import "fmt"

// Stimulus describes what the presentation layer shows for one trial.
// Implementations are PhpStimulus, SdhStimulus, MChartStimulus and CentralStimulus.
type Stimulus interface {
	Trial() int
	isStimulus()
}

// PhpStimulus is a dotted line with one of three segments displaced.
type PhpStimulus struct {
	TrialIndex    int
	OffsetSegment int
	OffsetAmount  float64
}

// SdhStimulus is a dotted line with one of three segments hidden.
type SdhStimulus struct {
	TrialIndex    int
	HiddenSegment int
}

// MChartStimulus is a dotted line drawn at a spacing taken from the M-Chart table.
type MChartStimulus struct {
	TrialIndex   int
	SpacingIndex int
	Spacing      float64
}

// CentralStimulus is a point flashed at one cell of the central grid.
type CentralStimulus struct {
	TrialIndex int
	Row        int
	Col        int
}

func (s PhpStimulus) Trial() int     { return s.TrialIndex }
func (s SdhStimulus) Trial() int     { return s.TrialIndex }
func (s MChartStimulus) Trial() int  { return s.TrialIndex }
func (s CentralStimulus) Trial() int { return s.TrialIndex }

func (PhpStimulus) isStimulus()     {}
func (SdhStimulus) isStimulus()     {}
func (MChartStimulus) isStimulus()  {}
func (CentralStimulus) isStimulus() {}

// Response is a user answer translated by the presentation layer.
// Implementations are SegmentResponse, LineResponse and SeenResponse.
type Response interface {
	isResponse()
}

// SegmentResponse picks one of the three line segments (0, 1 or 2).
type SegmentResponse int

// LineResponse reports how the M-Chart line looked.
type LineResponse int

const (
	LineStraight LineResponse = iota
	LineDistorted
)

// SeenResponse reports whether a central-field point was seen.
type SeenResponse bool

func (SegmentResponse) isResponse() {}
func (LineResponse) isResponse()    {}
func (SeenResponse) isResponse()    {}

func (r LineResponse) String() string {
	if r == LineDistorted {
		return "distorted"
	}
	return "straight"
}

func (r SegmentResponse) String() string {
	return fmt.Sprintf("segment %d", int(r))
}

// TrialRecord is one answered trial. Correct is only meaningful for
// forced-choice protocols.
type TrialRecord struct {
	TrialIndex int
	Stimulus   Stimulus
	Response   Response
	Correct    bool
}
