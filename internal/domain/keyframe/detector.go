package keyframe

// Decision is the outcome of observing one sampled frame.
type Decision struct {
	Transition Transition

	// Emit is set when the frame becomes a keyframe; Index is then its keyframe index.
	Emit  bool
	Index int

	// Suppressed is set on a Moving -> Still edge that came too soon after the last keyframe.
	Suppressed bool
}

// Detector is the stillness state machine for a single video.
// Not safe for concurrent use; create a new Detector per run.
type Detector struct {
	window             *DiffWindow
	stillnessThreshold float64
	minInterval        float64
	state              MotionState
	lastKeyframe       float64
	next               int
}

func NewDetector(cfg Config) *Detector {
	return &Detector{
		window:             NewDiffWindow(cfg.StillnessFrames),
		stillnessThreshold: cfg.StillnessThreshold,
		minInterval:        cfg.MinInterval,
		state:              Moving,
		lastKeyframe:       -cfg.MinInterval,
	}
}

// Observe feeds the difference between the current sampled frame and the
// previous one (0 for the first frame) taken at timestamp seconds.
func (d *Detector) Observe(diff, timestamp float64) Decision {
	d.window.Push(diff)
	still := d.window.Full() && d.window.AllBelow(d.stillnessThreshold)

	dec := Decision{Transition: Transition{From: d.state, To: stateOf(still)}}
	if dec.Transition.Settled() {
		if timestamp-d.lastKeyframe >= d.minInterval {
			dec.Emit = true
			dec.Index = d.next
			d.next++
			d.lastKeyframe = timestamp
		} else {
			dec.Suppressed = true
		}
	}
	d.state = dec.Transition.To
	return dec
}

func (d *Detector) State() MotionState { return d.state }

// Emitted returns how many keyframes have been emitted so far.
func (d *Detector) Emitted() int { return d.next }

func (d *Detector) Window() []float64 { return d.window.Values() }
