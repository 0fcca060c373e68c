package entity

import "image"

// Frame is one raw decoded video frame.
type Frame struct {
	Index     int
	Timestamp float64 // seconds
	Image     *image.RGBA
}

// Keyframe is a frame chosen by the selector. Index values are dense and
// assigned in emission order; a Keyframe is never modified after creation.
type Keyframe struct {
	Index     int
	Timestamp float64
	Image     *image.RGBA
}

// Timestamps returns the keyframe timestamps in order.
func Timestamps(keyframes []Keyframe) []float64 {
	out := make([]float64, len(keyframes))
	for i, kf := range keyframes {
		out[i] = kf.Timestamp
	}
	return out
}
