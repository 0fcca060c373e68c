package keyframe

type MotionState int

const (
	Moving MotionState = iota
	Still
)

func (s MotionState) String() string {
	if s == Still {
		return "still"
	}
	return "moving"
}

// Transition is the state change between two consecutive sampled frames.
type Transition struct {
	From MotionState
	To   MotionState
}

// Settled is true only on the Moving -> Still edge.
func (t Transition) Settled() bool {
	return t.From == Moving && t.To == Still
}

func stateOf(still bool) MotionState {
	if still {
		return Still
	}
	return Moving
}
