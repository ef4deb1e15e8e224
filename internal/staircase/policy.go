// Package staircase implements adaptive threshold-seeking procedures: step
// policies, reversal tracking and threshold estimation.
package staircase

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrOutOfRange reports a stimulus value or index outside the policy bounds.
	ErrOutOfRange = errors.New("stimulus out of range")
	// ErrInsufficientData reports a threshold request with no reversals recorded.
	ErrInsufficientData = errors.New("insufficient reversals for threshold")
)

// Direction is the sign of a staircase step.
type Direction int

const (
	None Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// State is the staircase state owned by a single session.
type State struct {
	// Level is the table index for index policies; continuous policies leave it 0.
	Level              int
	Value              float64
	Direction          Direction
	ConsecutiveCorrect int
	ReversalCount      int
	ReversalValues     []float64
}

// Move is a policy's answer to a single response.
type Move struct {
	Level              int
	Value              float64
	Direction          Direction
	ConsecutiveCorrect int
	// Stepped is false when the response only advanced a run counter.
	Stepped bool
}

// StepPolicy computes the next stimulus from the current state and a response
// signal. What "positive" means is policy-specific: LogStep treats it as a
// correct answer, IndexStep as the line being reported straight.
type StepPolicy interface {
	Start() State
	Next(s State, positive bool) Move
	Check(m Move) error
}

const (
	PhpLogStep       = 0.357
	PhpMinOffset     = 0.02
	PhpMaxOffset     = 0.4
	PhpInitialOffset = 0.25
)

// LogStep is a transformed N-down/1-up staircase stepping in natural-log space.
type LogStep struct {
	Step      float64
	Min       float64
	Max       float64
	Initial   float64
	DownAfter int
}

// NewPhpStep returns the 2-down/1-up policy used by the PHP test.
func NewPhpStep() LogStep {
	return LogStep{
		Step:      PhpLogStep,
		Min:       PhpMinOffset,
		Max:       PhpMaxOffset,
		Initial:   PhpInitialOffset,
		DownAfter: 2,
	}
}

// Validate checks the policy parameters.
func (p LogStep) Validate() error {
	if p.Min <= 0 || p.Max <= p.Min {
		return fmt.Errorf("%w: bounds [%g, %g] must be positive and ordered", ErrOutOfRange, p.Min, p.Max)
	}
	if p.Initial < p.Min || p.Initial > p.Max {
		return fmt.Errorf("%w: initial value %g not in [%g, %g]", ErrOutOfRange, p.Initial, p.Min, p.Max)
	}
	if p.Step <= 0 {
		return fmt.Errorf("log step must be > 0, got %g", p.Step)
	}
	if p.DownAfter < 1 {
		return fmt.Errorf("down-after run must be >= 1, got %d", p.DownAfter)
	}
	return nil
}

// Start implements StepPolicy.
func (p LogStep) Start() State {
	return State{Value: clamp(p.Initial, p.Min, p.Max)}
}

// Next implements StepPolicy. A wrong answer steps up immediately; a correct
// answer only steps down once DownAfter correct answers have accumulated.
func (p LogStep) Next(s State, correct bool) Move {
	if !correct {
		return Move{Value: p.step(s.Value, Up), Direction: Up, Stepped: true}
	}
	run := s.ConsecutiveCorrect + 1
	if run < p.DownAfter {
		return Move{Value: s.Value, Direction: s.Direction, ConsecutiveCorrect: run}
	}
	return Move{Value: p.step(s.Value, Down), Direction: Down, Stepped: true}
}

// Check implements StepPolicy.
func (p LogStep) Check(m Move) error {
	if math.IsNaN(m.Value) || m.Value < p.Min || m.Value > p.Max {
		return fmt.Errorf("%w: value %g not in [%g, %g]", ErrOutOfRange, m.Value, p.Min, p.Max)
	}
	return nil
}

func (p LogStep) step(v float64, d Direction) float64 {
	if v < p.Min {
		v = p.Min
	}
	l := math.Log(v)
	if d == Up {
		l += p.Step
	} else {
		l -= p.Step
	}
	return clamp(math.Exp(l), p.Min, p.Max)
}

// MChartSpacings is the ascending dot-spacing table of the M-Chart test.
var MChartSpacings = []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1.0, 1.2, 1.5, 2.0}

// MChartInitialIndex points at spacing 1.0.
const MChartInitialIndex = 6

// IndexStep is a 1-up/1-down staircase over a fixed table of values.
type IndexStep struct {
	Table   []float64
	Initial int
}

// NewMChartStep returns the policy used by the M-Chart test.
func NewMChartStep() IndexStep {
	table := make([]float64, len(MChartSpacings))
	copy(table, MChartSpacings)
	return IndexStep{Table: table, Initial: MChartInitialIndex}
}

// Validate checks the policy parameters.
func (p IndexStep) Validate() error {
	if len(p.Table) == 0 {
		return fmt.Errorf("index table is empty")
	}
	if p.Initial < 0 || p.Initial >= len(p.Table) {
		return fmt.Errorf("%w: initial index %d not in [0, %d]", ErrOutOfRange, p.Initial, len(p.Table)-1)
	}
	return nil
}

// Start implements StepPolicy.
func (p IndexStep) Start() State {
	level := clampInt(p.Initial, 0, len(p.Table)-1)
	return State{Level: level, Value: p.Table[level]}
}

// Next implements StepPolicy. Every response moves one index: straight goes
// to a coarser spacing, distorted to a finer one.
func (p IndexStep) Next(s State, straight bool) Move {
	level := s.Level - 1
	dir := Down
	if straight {
		level = s.Level + 1
		dir = Up
	}
	level = clampInt(level, 0, len(p.Table)-1)
	return Move{Level: level, Value: p.Table[level], Direction: dir, Stepped: true}
}

// Check implements StepPolicy.
func (p IndexStep) Check(m Move) error {
	if m.Level < 0 || m.Level >= len(p.Table) {
		return fmt.Errorf("%w: index %d not in [0, %d]", ErrOutOfRange, m.Level, len(p.Table)-1)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
