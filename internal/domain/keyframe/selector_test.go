package keyframe

import (
	"context"
	"errors"
	"testing"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/keysnap/keyframe-service/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioAFrames() []entity.Frame {
	// Consecutive mean differences: 0 (first), 1, 2, 1, 20, 1, 1, 1, 0.5.
	return framesAt(1,
		px(100, 100), px(101, 101), px(103, 103), px(104, 104), px(124, 124),
		px(125, 125), px(126, 126), px(127, 127), px(128, 127),
	)
}

func scenarioAConfig() Config {
	return Config{DiffThreshold: 25, SampleRate: 1, MinInterval: 2, StillnessThreshold: 5, StillnessFrames: 3}
}

func TestSelectRisingEdgesFromFrames(t *testing.T) {
	sel := NewSelector(scenarioAConfig(), 0, nil)

	kfs, err := sel.Select(context.Background(), newSliceSource(1, scenarioAFrames()), nil)
	require.NoError(t, err)

	require.Len(t, kfs, 2)
	assert.Equal(t, []float64{2, 7}, entity.Timestamps(kfs))
	assert.Equal(t, 0, kfs[0].Index)
	assert.Equal(t, 1, kfs[1].Index)
	assert.Equal(t, uint8(103), kfs[0].Image.Pix[0])
}

func TestSelectIsIdempotent(t *testing.T) {
	sel := NewSelector(scenarioAConfig(), 0, nil)

	first, err := sel.Select(context.Background(), newSliceSource(1, scenarioAFrames()), nil)
	require.NoError(t, err)
	second, err := sel.Select(context.Background(), newSliceSource(1, scenarioAFrames()), nil)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Index, second[i].Index)
		assert.Equal(t, first[i].Timestamp, second[i].Timestamp)
		assert.Equal(t, first[i].Image.Pix, second[i].Image.Pix)
	}
}

func TestSelectSampleRateAboveNativeSamplesEveryFrame(t *testing.T) {
	frames := framesAt(10, px(0), px(50), px(50), px(100), px(100))
	cfg := Config{SampleRate: 100, MinInterval: 0, StillnessThreshold: 5, StillnessFrames: 1}

	kfs, err := NewSelector(cfg, 0, nil).Select(context.Background(), newSliceSource(10, frames), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.2, 0.4}, entity.Timestamps(kfs))
}

func TestSelectDecimatesByFrameInterval(t *testing.T) {
	frames := framesAt(10, px(0), px(50), px(50), px(100), px(100))
	cfg := Config{SampleRate: 5, MinInterval: 0, StillnessThreshold: 5, StillnessFrames: 1}

	// Only frames 0, 2 and 4 are sampled: diffs 0, 50, 50.
	kfs, err := NewSelector(cfg, 0, nil).Select(context.Background(), newSliceSource(10, frames), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, entity.Timestamps(kfs))
}

func TestSelectNoKeyframeForTrailingMotion(t *testing.T) {
	frames := framesAt(1, px(10), px(60), px(10), px(60), px(10))
	cfg := Config{SampleRate: 1, MinInterval: 0, StillnessThreshold: 5, StillnessFrames: 2}

	kfs, err := NewSelector(cfg, 0, nil).Select(context.Background(), newSliceSource(1, frames), nil)
	require.NoError(t, err)
	assert.Empty(t, kfs)
}

func TestSelectKeyframeOwnsImage(t *testing.T) {
	frames := framesAt(1, px(7))
	cfg := Config{SampleRate: 1, MinInterval: 0, StillnessThreshold: 5, StillnessFrames: 1}

	kfs, err := NewSelector(cfg, 0, nil).Select(context.Background(), newSliceSource(1, frames), nil)
	require.NoError(t, err)
	require.Len(t, kfs, 1)

	frames[0].Image.Pix[0] = 200
	assert.Equal(t, uint8(7), kfs[0].Image.Pix[0])
}

func TestSelectReportsProgress(t *testing.T) {
	frames := framesAt(1, px(1), px(1), px(1), px(1), px(1))
	cfg := Config{SampleRate: 1, MinInterval: 0, StillnessThreshold: 5, StillnessFrames: 1}

	var calls [][2]int
	_, err := NewSelector(cfg, 2, nil).Select(context.Background(), newSliceSource(1, frames), func(processed, total int) {
		calls = append(calls, [2]int{processed, total})
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, calls)
}

func TestSelectWrapsReadFailures(t *testing.T) {
	src := newSliceSource(1, framesAt(1, px(1), px(1), px(1)))
	src.failAt = 2
	src.failErr = errors.New("pipe closed")

	kfs, err := NewSelector(scenarioAConfig(), 0, nil).Select(context.Background(), src, nil)
	assert.Nil(t, kfs)
	assert.ErrorIs(t, err, port.ErrSourceUnavailable)
}

func TestSelectKeepsMalformedFrameError(t *testing.T) {
	src := newSliceSource(1, framesAt(1, px(1), px(1)))
	src.failAt = 1
	src.failErr = port.ErrMalformedFrame

	_, err := NewSelector(scenarioAConfig(), 0, nil).Select(context.Background(), src, nil)
	assert.ErrorIs(t, err, port.ErrMalformedFrame)
	assert.NotErrorIs(t, err, port.ErrSourceUnavailable)
}

func TestSelectFailsOnFrameSizeChange(t *testing.T) {
	frames := framesAt(1, px(1, 1), px(1))
	_, err := NewSelector(scenarioAConfig(), 0, nil).Select(context.Background(), newSliceSource(1, frames), nil)
	assert.ErrorIs(t, err, port.ErrMalformedFrame)
}

func TestSelectHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSelector(scenarioAConfig(), 0, nil).Select(ctx, newSliceSource(1, scenarioAFrames()), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectRejectsInvalidConfig(t *testing.T) {
	cfg := scenarioAConfig()
	cfg.StillnessFrames = 0
	_, err := NewSelector(cfg, 0, nil).Select(context.Background(), newSliceSource(1, scenarioAFrames()), nil)
	assert.ErrorContains(t, err, "invalid selector config")
}
