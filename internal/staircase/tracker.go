package staircase

// ReversalTracker records the stimulus value at every change of step direction.
type ReversalTracker struct {
	last   Direction
	values []float64
}

// Observe feeds the direction of an actual step together with the stimulus
// value before that step. It returns true when the step is a reversal. The
// first step never is, since there is no earlier direction to compare with.
func (t *ReversalTracker) Observe(dir Direction, value float64) bool {
	if dir == None {
		return false
	}
	reversed := t.last != None && dir != t.last
	if reversed {
		t.values = append(t.values, value)
	}
	t.last = dir
	return reversed
}

// Count returns the number of reversals seen.
func (t *ReversalTracker) Count() int {
	return len(t.values)
}

// Values returns a copy of the reversal values in order.
func (t *ReversalTracker) Values() []float64 {
	out := make([]float64, len(t.values))
	copy(out, t.values)
	return out
}

// Last returns the direction of the latest step.
func (t *ReversalTracker) Last() Direction {
	return t.last
}
