// Package observer simulates a respondent so every test can be run end to
// end without a person at the screen.
package observer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/verte-zerg/macula/internal/generator"
	"github.com/verte-zerg/macula/internal/model"
	"github.com/verte-zerg/macula/internal/staircase"
)

// ErrInvalidProfile is returned by Validate.
var ErrInvalidProfile = errors.New("invalid observer profile")

// psychometricSlope is the logistic spread in natural-log units of the
// stimulus value.
const psychometricSlope = 0.15

// Cell addresses one central-field grid cell.
type Cell struct {
	Row int
	Col int
}

// ParseCell parses "row,col".
func ParseCell(s string) (Cell, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Cell{}, fmt.Errorf("%w: cell %q, want row,col", ErrInvalidProfile, s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Cell{}, fmt.Errorf("%w: cell %q: %v", ErrInvalidProfile, s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Cell{}, fmt.Errorf("%w: cell %q: %v", ErrInvalidProfile, s, err)
	}
	return Cell{Row: row, Col: col}, nil
}

// Profile describes the simulated eye.
type Profile struct {
	// PhpThreshold is the offset the observer detects half the time.
	PhpThreshold float64
	// MChartThreshold is the dot spacing at which the line looks bent half the time.
	MChartThreshold float64
	// SdhSensitivity is the chance of finding the hidden segment.
	SdhSensitivity float64
	// Lapse is the chance of an attention slip on any trial.
	Lapse float64
	// Scotoma lists central-field cells the observer cannot see.
	Scotoma    []Cell
	ReadingWPM float64
}

// DefaultProfile returns a mildly affected eye.
func DefaultProfile() Profile {
	return Profile{
		PhpThreshold:    0.08,
		MChartThreshold: 0.5,
		SdhSensitivity:  0.9,
		Lapse:           0.03,
		ReadingWPM:      120,
	}
}

// Validate checks that the profile is usable.
func (p Profile) Validate() error {
	switch {
	case p.PhpThreshold < staircase.PhpMinOffset || p.PhpThreshold > staircase.PhpMaxOffset:
		return fmt.Errorf("%w: php threshold %.3f: %w", ErrInvalidProfile, p.PhpThreshold, staircase.ErrOutOfRange)
	case p.MChartThreshold <= 0:
		return fmt.Errorf("%w: m-chart threshold must be positive", ErrInvalidProfile)
	case p.SdhSensitivity < 0 || p.SdhSensitivity > 1:
		return fmt.Errorf("%w: sdh sensitivity %.2f not in [0,1]", ErrInvalidProfile, p.SdhSensitivity)
	case p.Lapse < 0 || p.Lapse > 1:
		return fmt.Errorf("%w: lapse %.2f not in [0,1]", ErrInvalidProfile, p.Lapse)
	case p.ReadingWPM <= 0:
		return fmt.Errorf("%w: reading wpm must be positive", ErrInvalidProfile)
	}
	return nil
}

// Observer answers stimuli according to its profile.
type Observer struct {
	profile Profile
	gen     *generator.Generator
	scotoma map[Cell]bool
}

// New creates an Observer. A nil generator is time-seeded.
func New(p Profile, gen *generator.Generator) (*Observer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if gen == nil {
		gen = generator.New()
	}
	scotoma := make(map[Cell]bool, len(p.Scotoma))
	for _, c := range p.Scotoma {
		scotoma[c] = true
	}
	return &Observer{profile: p, gen: gen, scotoma: scotoma}, nil
}

// Profile returns the observer's profile.
func (o *Observer) Profile() Profile { return o.profile }

// Respond answers a trial stimulus.
func (o *Observer) Respond(stim model.Stimulus) (model.Response, error) {
	switch s := stim.(type) {
	case model.PhpStimulus:
		if o.lapse() || !o.gen.Chance(detect(s.OffsetAmount, o.profile.PhpThreshold)) {
			return model.SegmentResponse(o.gen.Segment(3)), nil
		}
		return model.SegmentResponse(s.OffsetSegment), nil
	case model.SdhStimulus:
		if o.lapse() {
			return model.SegmentResponse(o.gen.Segment(3)), nil
		}
		if o.gen.Chance(o.profile.SdhSensitivity) {
			return model.SegmentResponse(s.HiddenSegment), nil
		}
		return model.SegmentResponse(o.gen.OtherSegment(3, s.HiddenSegment)), nil
	case model.MChartStimulus:
		bent := o.gen.Chance(detect(s.Spacing, o.profile.MChartThreshold))
		if o.lapse() {
			bent = !bent
		}
		if bent {
			return model.LineDistorted, nil
		}
		return model.LineStraight, nil
	case model.CentralStimulus:
		seen := !o.scotoma[Cell{Row: s.Row, Col: s.Col}]
		if o.lapse() {
			seen = !seen
		}
		return model.SeenResponse(seen), nil
	default:
		return nil, fmt.Errorf("observer: unsupported stimulus %T", stim)
	}
}

// ReadingTime returns how long the observer takes to read s, within 10% of
// the profile's reading rate.
func (o *Observer) ReadingTime(s model.Sentence) time.Duration {
	minutes := float64(s.WordCount) / o.profile.ReadingWPM
	jitter := 0.9 + 0.2*o.gen.Float64()
	return time.Duration(minutes * jitter * float64(time.Minute))
}

// AmslerMarks returns where the observer marks the grid: the center of every
// scotoma cell on a gridSize x gridSize layout.
func (o *Observer) AmslerMarks(gridSize int) []model.Point {
	points := make([]model.Point, 0, len(o.profile.Scotoma))
	for _, c := range o.profile.Scotoma {
		if c.Row < 0 || c.Col < 0 || c.Row >= gridSize || c.Col >= gridSize {
			continue
		}
		points = append(points, model.Point{
			X: (float64(c.Col) + 0.5) / float64(gridSize),
			Y: (float64(c.Row) + 0.5) / float64(gridSize),
		})
	}
	return points
}

// GlancesAtCenter reports whether the observer taps the fixation point at a
// given moment, which happens on an attention slip.
func (o *Observer) GlancesAtCenter() bool {
	return o.lapse()
}

func (o *Observer) lapse() bool {
	return o.gen.Chance(o.profile.Lapse)
}

// detect is a logistic psychometric function of value against threshold in
// log space: 0.5 at the threshold, rising with value.
func detect(value, threshold float64) float64 {
	if value <= 0 || threshold <= 0 {
		return 0
	}
	curve := distuv.Logistic{Mu: math.Log(threshold), S: psychometricSlope}
	return curve.CDF(math.Log(value))
}
