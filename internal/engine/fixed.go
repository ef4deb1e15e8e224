package engine

import (
	"fmt"

	"github.com/verte-zerg/macula/internal/generator"
	"github.com/verte-zerg/macula/internal/model"
)

const (
	SdhTrials = 20

	CentralGridSize = 5
	CentralTrials   = CentralGridSize * CentralGridSize
)

// NewSDH starts a scotoma detection session: 20 independent trials, each
// hiding one of three segments at random.
func NewSDH(opts Options) *Sequencer {
	opts = opts.withDefaults()
	p := &sdhProtocol{gen: opts.Generator, total: SdhTrials}
	return newSequencer(p, FixedTrialCount{N: SdhTrials}, opts.Logger)
}

type sdhProtocol struct {
	gen     *generator.Generator
	total   int
	correct int
}

func (p *sdhProtocol) kind() model.TestKind { return model.TestSDH }

func (p *sdhProtocol) stimulus(i int) model.Stimulus {
	return model.SdhStimulus{TrialIndex: i, HiddenSegment: p.gen.Segment(Segments)}
}

func (p *sdhProtocol) apply(stim model.Stimulus, resp model.Response) (bool, error) {
	st, ok := stim.(model.SdhStimulus)
	if !ok {
		return false, fmt.Errorf("%w: sdh session holds %T", ErrInvalidState, stim)
	}
	seg, err := segmentChoice(resp)
	if err != nil {
		return false, err
	}
	correct := seg == st.HiddenSegment
	if correct {
		p.correct++
	}
	return correct, nil
}

func (p *sdhProtocol) reversals() int { return 0 }

func (p *sdhProtocol) result(trials []model.TrialRecord, _ StopReason) model.Result {
	return model.SdhResult{
		Trials:       trials,
		CorrectCount: p.correct,
		TotalTrials:  p.total,
		Score:        float64(p.correct) / float64(p.total),
	}
}

// NewCentralField starts a central-field session. The 25 stimuli walk the
// 5x5 grid in raster order; nothing about them is random.
func NewCentralField(opts Options) *Sequencer {
	opts = opts.withDefaults()
	p := &centralProtocol{size: CentralGridSize}
	return newSequencer(p, FixedTrialCount{N: CentralTrials}, opts.Logger)
}

type centralProtocol struct {
	size int
	seen []bool
}

func (p *centralProtocol) kind() model.TestKind { return model.TestCentralField }

func (p *centralProtocol) stimulus(i int) model.Stimulus {
	return model.CentralStimulus{TrialIndex: i, Row: i / p.size, Col: i % p.size}
}

func (p *centralProtocol) apply(stim model.Stimulus, resp model.Response) (bool, error) {
	if _, ok := stim.(model.CentralStimulus); !ok {
		return false, fmt.Errorf("%w: central-field session holds %T", ErrInvalidState, stim)
	}
	seen, ok := resp.(model.SeenResponse)
	if !ok {
		return false, fmt.Errorf("%w: central field expects seen/not-seen, got %T", ErrUnexpectedResponse, resp)
	}
	p.seen = append(p.seen, bool(seen))
	return false, nil
}

func (p *centralProtocol) reversals() int { return 0 }

func (p *centralProtocol) result(trials []model.TrialRecord, _ StopReason) model.Result {
	seen := make([]bool, len(p.seen))
	copy(seen, p.seen)
	count := 0
	for _, s := range seen {
		if s {
			count++
		}
	}
	return model.CentralFieldResult{
		Trials:    trials,
		Seen:      seen,
		SeenCount: count,
		GridSize:  p.size,
	}
}
