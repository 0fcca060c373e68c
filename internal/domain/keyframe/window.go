package keyframe

// DiffWindow is a bounded FIFO of the most recent frame differences.
// Pushing into a full window evicts the oldest value.
type DiffWindow struct {
	buf   []float64
	start int
	count int
}

func NewDiffWindow(capacity int) *DiffWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &DiffWindow{buf: make([]float64, capacity)}
}

func (w *DiffWindow) Push(v float64) {
	if w.count < len(w.buf) {
		w.buf[(w.start+w.count)%len(w.buf)] = v
		w.count++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

func (w *DiffWindow) Len() int      { return w.count }
func (w *DiffWindow) Capacity() int { return len(w.buf) }
func (w *DiffWindow) Full() bool    { return w.count == len(w.buf) }

// AllBelow reports whether every held value is strictly below threshold.
func (w *DiffWindow) AllBelow(threshold float64) bool {
	for i := 0; i < w.count; i++ {
		if !(w.buf[(w.start+i)%len(w.buf)] < threshold) {
			return false
		}
	}
	return true
}

// Values returns the held values, oldest first.
func (w *DiffWindow) Values() []float64 {
	out := make([]float64, w.count)
	for i := range out {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}
