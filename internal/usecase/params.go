package usecase

import (
	"fmt"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/keysnap/keyframe-service/internal/domain/keyframe"
)

// resolveParams applies per-job overrides on top of the worker defaults.
func resolveParams(base keyframe.Config, baseMaxPerRow int, p *entity.KeyframeParams) (keyframe.Config, int, error) {
	cfg, maxPerRow := base, baseMaxPerRow
	if p != nil {
		if p.DiffThreshold != nil {
			cfg.DiffThreshold = *p.DiffThreshold
		}
		if p.SampleRate != nil {
			cfg.SampleRate = *p.SampleRate
		}
		if p.MinInterval != nil {
			cfg.MinInterval = *p.MinInterval
		}
		if p.StillnessThreshold != nil {
			cfg.StillnessThreshold = *p.StillnessThreshold
		}
		if p.StillnessFrames != nil {
			cfg.StillnessFrames = *p.StillnessFrames
		}
		if p.MaxPerRow != nil {
			maxPerRow = *p.MaxPerRow
		}
	}
	if err := cfg.Validate(); err != nil {
		return keyframe.Config{}, 0, err
	}
	if maxPerRow < 1 {
		return keyframe.Config{}, 0, fmt.Errorf("max per row must be >= 1, got %d", maxPerRow)
	}
	return cfg, maxPerRow, nil
}
