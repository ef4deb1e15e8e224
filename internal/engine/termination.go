package engine

// StopReason indicates why a session ended.
type StopReason string

const (
	// StopReasonNone indicates the session continues.
	StopReasonNone StopReason = ""
	// StopReasonMaxTrials indicates the trial cap was reached.
	StopReasonMaxTrials StopReason = "max_trials"
	// StopReasonMaxReversals indicates the reversal cap was reached.
	StopReasonMaxReversals StopReason = "max_reversals"
	// StopReasonCompleted indicates a fixed protocol ran to its end.
	StopReasonCompleted StopReason = "completed"
)

// Progress is what a termination policy looks at.
type Progress struct {
	Trials    int
	Reversals int
	// Finalized is set once the user ends a timed single-shot measurement.
	Finalized bool
}

// Termination decides whether a session is complete.
type Termination interface {
	Check(p Progress) (StopReason, bool)
}

// TrialOrReversalCap stops at MaxTrials trials or MaxReversals reversals,
// whichever comes first. A zero cap is ignored.
type TrialOrReversalCap struct {
	MaxTrials    int
	MaxReversals int
}

// Check implements Termination.
func (c TrialOrReversalCap) Check(p Progress) (StopReason, bool) {
	if c.MaxReversals > 0 && p.Reversals >= c.MaxReversals {
		return StopReasonMaxReversals, true
	}
	if c.MaxTrials > 0 && p.Trials >= c.MaxTrials {
		return StopReasonMaxTrials, true
	}
	return StopReasonNone, false
}

// FixedTrialCount stops after exactly N trials.
type FixedTrialCount struct {
	N int
}

// Check implements Termination.
func (c FixedTrialCount) Check(p Progress) (StopReason, bool) {
	if p.Trials >= c.N {
		return StopReasonCompleted, true
	}
	return StopReasonNone, false
}

// SingleShotTimed stops once the timed measurement has been finalized.
type SingleShotTimed struct{}

// Check implements Termination.
func (SingleShotTimed) Check(p Progress) (StopReason, bool) {
	if p.Finalized {
		return StopReasonCompleted, true
	}
	return StopReasonNone, false
}
