package staircase

// Update describes what one response did to the staircase.
type Update struct {
	Move          Move
	Reversal      bool
	ReversalValue float64
}

// Staircase binds a step policy to its state and reversal tracker.
type Staircase struct {
	policy  StepPolicy
	tracker ReversalTracker
	state   State
}

// New starts a staircase at the policy's initial value.
func New(policy StepPolicy) *Staircase {
	return &Staircase{policy: policy, state: policy.Start()}
}

// Apply feeds one response signal. On ErrOutOfRange the state is left untouched.
func (s *Staircase) Apply(positive bool) (Update, error) {
	move := s.policy.Next(s.state, positive)
	if err := s.policy.Check(move); err != nil {
		return Update{}, err
	}
	pre := s.state.Value
	upd := Update{Move: move}
	if move.Stepped && s.tracker.Observe(move.Direction, pre) {
		upd.Reversal = true
		upd.ReversalValue = pre
		s.state.ReversalCount++
		s.state.ReversalValues = append(s.state.ReversalValues, pre)
	}
	s.state.Level = move.Level
	s.state.Value = move.Value
	s.state.Direction = move.Direction
	s.state.ConsecutiveCorrect = move.ConsecutiveCorrect
	return upd, nil
}

// State returns a copy of the current state.
func (s *Staircase) State() State {
	st := s.state
	st.ReversalValues = make([]float64, len(s.state.ReversalValues))
	copy(st.ReversalValues, s.state.ReversalValues)
	return st
}

// Value returns the current stimulus value.
func (s *Staircase) Value() float64 {
	return s.state.Value
}

// Level returns the current table index.
func (s *Staircase) Level() int {
	return s.state.Level
}

// Reversals returns the number of reversals so far.
func (s *Staircase) Reversals() int {
	return s.state.ReversalCount
}

// Threshold reduces the recorded reversals with est.
func (s *Staircase) Threshold(est Estimator) (float64, error) {
	return est.Estimate(s.state.ReversalValues)
}
