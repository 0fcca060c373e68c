package keyframe

import (
	"errors"
	"fmt"
	"math"
)

// Config holds the stillness selector settings.
type Config struct {
	// DiffThreshold is accepted for compatibility with existing job parameters.
	// The still/moving decision only looks at StillnessThreshold.
	DiffThreshold float64

	// SampleRate is the number of frames per second to evaluate.
	SampleRate float64

	// MinInterval is the minimum number of seconds between two keyframes.
	MinInterval float64

	// StillnessThreshold is the mean grayscale difference below which a frame pair is quiet.
	StillnessThreshold float64

	// StillnessFrames is how many consecutive quiet pairs make the stream still.
	StillnessFrames int
}

func DefaultConfig() Config {
	return Config{
		DiffThreshold:      25,
		SampleRate:         24,
		MinInterval:        0.5,
		StillnessThreshold: 3,
		StillnessFrames:    5,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.DiffThreshold < 0 {
		errs = append(errs, fmt.Errorf("diff threshold must be >= 0, got %v", c.DiffThreshold))
	}
	if !(c.SampleRate > 0) {
		errs = append(errs, fmt.Errorf("sample rate must be > 0, got %v", c.SampleRate))
	}
	if c.MinInterval < 0 {
		errs = append(errs, fmt.Errorf("min interval must be >= 0, got %v", c.MinInterval))
	}
	if !(c.StillnessThreshold > 0) {
		errs = append(errs, fmt.Errorf("stillness threshold must be > 0, got %v", c.StillnessThreshold))
	}
	if c.StillnessFrames < 1 {
		errs = append(errs, fmt.Errorf("stillness frames must be >= 1, got %d", c.StillnessFrames))
	}
	return errors.Join(errs...)
}

// FrameInterval returns N such that every Nth raw frame is sampled.
// A sample rate at or above the native rate samples every frame.
func (c Config) FrameInterval(nativeFPS float64) int {
	if !(nativeFPS > 0) || !(c.SampleRate > 0) {
		return 1
	}
	n := int(math.Floor(nativeFPS / c.SampleRate))
	if n <= 0 {
		return 1
	}
	return n
}
