package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultFeatureConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultFeatureConfig().Validate())
}

func TestMaxFormantFor(t *testing.T) {
	cfg := DefaultFeatureConfig().Formant

	tests := []struct {
		meanF0 float64
		want   float64
	}{
		{100, 5000},
		{170, 5000},
		{170.01, 5500},
		{250, 5500},
		{299.9, 5500},
		{300, 8000},
		{420, 8000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.MaxFormantFor(tt.meanF0), "meanF0=%v", tt.meanF0)
	}
}

func TestValidateRejectsBadRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FeatureConfig)
	}{
		{"inverted pitch range", func(c *FeatureConfig) { c.Pitch.Ceiling = 50 }},
		{"zero intensity pitch", func(c *FeatureConfig) { c.Intensity.MinPitch = 0 }},
		{"too few formants", func(c *FeatureConfig) { c.Formant.MaxFormants = 3 }},
		{"jitter factor below one", func(c *FeatureConfig) { c.Jitter.MaxPeriodFactor = 0.5 }},
		{"negative budget", func(c *FeatureConfig) { c.TimeBudget = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFeatureConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
