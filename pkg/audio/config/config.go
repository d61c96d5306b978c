package config

import (
	"fmt"
	"time"
)

// FeatureConfig holds every tunable of the voice feature extractor
type FeatureConfig struct {
	// Pitch tracking
	Pitch PitchConfig `json:"pitch" yaml:"pitch" mapstructure:"pitch"`

	// Broad first pass used to bound the refined pitch search
	BroadPitchFloor   float64 `json:"broad_pitch_floor" yaml:"broad_pitch_floor" mapstructure:"broad_pitch_floor"`
	BroadPitchCeiling float64 `json:"broad_pitch_ceiling" yaml:"broad_pitch_ceiling" mapstructure:"broad_pitch_ceiling"`
	BandFloorFactor   float64 `json:"band_floor_factor" yaml:"band_floor_factor" mapstructure:"band_floor_factor"`
	BandCeilingFactor float64 `json:"band_ceiling_factor" yaml:"band_ceiling_factor" mapstructure:"band_ceiling_factor"`

	Intensity   IntensityConfig   `json:"intensity" yaml:"intensity" mapstructure:"intensity"`
	Harmonicity HarmonicityConfig `json:"harmonicity" yaml:"harmonicity" mapstructure:"harmonicity"`
	Jitter      JitterConfig      `json:"jitter" yaml:"jitter" mapstructure:"jitter"`
	Formant     FormantConfig     `json:"formant" yaml:"formant" mapstructure:"formant"`

	// Feature selection
	EnableSpectralHNR bool `json:"enable_spectral_hnr" yaml:"enable_spectral_hnr" mapstructure:"enable_spectral_hnr"`

	// Each formant value is recorded twice per glottal point. Population
	// statistics are unchanged by the doubling.
	DuplicateFormantSamples bool `json:"duplicate_formant_samples" yaml:"duplicate_formant_samples" mapstructure:"duplicate_formant_samples"`

	// Upper bound on extraction wall time, zero disables
	TimeBudget time.Duration `json:"time_budget" yaml:"time_budget" mapstructure:"time_budget"`
}

// PitchConfig controls the autocorrelation pitch tracker
type PitchConfig struct {
	TimeStep         float64 `json:"time_step" yaml:"time_step" mapstructure:"time_step"` // 0 means 0.75/floor
	Floor            float64 `json:"floor" yaml:"floor" mapstructure:"floor"`
	Ceiling          float64 `json:"ceiling" yaml:"ceiling" mapstructure:"ceiling"`
	PeriodsPerWindow float64 `json:"periods_per_window" yaml:"periods_per_window" mapstructure:"periods_per_window"`
	SilenceThreshold float64 `json:"silence_threshold" yaml:"silence_threshold" mapstructure:"silence_threshold"`
	VoicingThreshold float64 `json:"voicing_threshold" yaml:"voicing_threshold" mapstructure:"voicing_threshold"`
	OctaveCost       float64 `json:"octave_cost" yaml:"octave_cost" mapstructure:"octave_cost"`
}

// IntensityConfig controls the short-time intensity contour
type IntensityConfig struct {
	MinPitch     float64 `json:"min_pitch" yaml:"min_pitch" mapstructure:"min_pitch"`
	TimeStep     float64 `json:"time_step" yaml:"time_step" mapstructure:"time_step"` // 0 means 0.8/min_pitch
	SubtractMean bool    `json:"subtract_mean" yaml:"subtract_mean" mapstructure:"subtract_mean"`
}

// HarmonicityConfig controls the cross-correlation HNR
type HarmonicityConfig struct {
	TimeStep         float64 `json:"time_step" yaml:"time_step" mapstructure:"time_step"`
	SilenceThreshold float64 `json:"silence_threshold" yaml:"silence_threshold" mapstructure:"silence_threshold"`
	PeriodsPerWindow float64 `json:"periods_per_window" yaml:"periods_per_window" mapstructure:"periods_per_window"`
}

// JitterConfig bounds the periods considered for local jitter
type JitterConfig struct {
	ShortestPeriod  float64 `json:"shortest_period" yaml:"shortest_period" mapstructure:"shortest_period"`
	LongestPeriod   float64 `json:"longest_period" yaml:"longest_period" mapstructure:"longest_period"`
	MaxPeriodFactor float64 `json:"max_period_factor" yaml:"max_period_factor" mapstructure:"max_period_factor"`
}

// FormantConfig controls Burg formant analysis and the ceiling selection by mean pitch
type FormantConfig struct {
	TimeStep        float64 `json:"time_step" yaml:"time_step" mapstructure:"time_step"`
	MaxFormants     int     `json:"max_formants" yaml:"max_formants" mapstructure:"max_formants"`
	WindowLength    float64 `json:"window_length" yaml:"window_length" mapstructure:"window_length"`
	PreEmphasisFrom float64 `json:"pre_emphasis_from" yaml:"pre_emphasis_from" mapstructure:"pre_emphasis_from"`

	// Ceiling bands keyed on mean F0
	LowPitchLimit  float64 `json:"low_pitch_limit" yaml:"low_pitch_limit" mapstructure:"low_pitch_limit"`
	HighPitchLimit float64 `json:"high_pitch_limit" yaml:"high_pitch_limit" mapstructure:"high_pitch_limit"`
	LowMaxFormant  float64 `json:"low_max_formant" yaml:"low_max_formant" mapstructure:"low_max_formant"`
	MidMaxFormant  float64 `json:"mid_max_formant" yaml:"mid_max_formant" mapstructure:"mid_max_formant"`
	HighMaxFormant float64 `json:"high_max_formant" yaml:"high_max_formant" mapstructure:"high_max_formant"`
}

// DefaultFeatureConfig returns the calibrated analysis settings
func DefaultFeatureConfig() *FeatureConfig {
	return &FeatureConfig{
		Pitch: PitchConfig{
			TimeStep:         0,
			Floor:            75,
			Ceiling:          600,
			PeriodsPerWindow: 3,
			SilenceThreshold: 0.03,
			VoicingThreshold: 0.45,
			OctaveCost:       0.01,
		},
		BroadPitchFloor:   50,
		BroadPitchCeiling: 600,
		BandFloorFactor:   0.9,
		BandCeilingFactor: 1.1,
		Intensity: IntensityConfig{
			MinPitch:     100,
			SubtractMean: true,
		},
		Harmonicity: HarmonicityConfig{
			TimeStep:         0.01,
			SilenceThreshold: 0.1,
			PeriodsPerWindow: 1.0,
		},
		Jitter: JitterConfig{
			ShortestPeriod:  0.0001,
			LongestPeriod:   0.02,
			MaxPeriodFactor: 1.3,
		},
		Formant: FormantConfig{
			TimeStep:        0.0025,
			MaxFormants:     5,
			WindowLength:    0.025,
			PreEmphasisFrom: 50,
			LowPitchLimit:   170,
			HighPitchLimit:  300,
			LowMaxFormant:   5000,
			MidMaxFormant:   5500,
			HighMaxFormant:  8000,
		},
		EnableSpectralHNR:       true,
		DuplicateFormantSamples: true,
		TimeBudget:              30 * time.Second,
	}
}

// MaxFormantFor picks the formant search ceiling for a mean pitch
func (c *FormantConfig) MaxFormantFor(meanF0 float64) float64 {
	switch {
	case meanF0 <= c.LowPitchLimit:
		return c.LowMaxFormant
	case meanF0 < c.HighPitchLimit:
		return c.MidMaxFormant
	default:
		return c.HighMaxFormant
	}
}

// Validate checks the configuration for values the analyzers cannot work with
func (c *FeatureConfig) Validate() error {
	if c.Pitch.Floor <= 0 || c.Pitch.Ceiling <= c.Pitch.Floor {
		return fmt.Errorf("pitch range must satisfy 0 < floor < ceiling, got [%.1f, %.1f]", c.Pitch.Floor, c.Pitch.Ceiling)
	}
	if c.Pitch.PeriodsPerWindow <= 0 {
		return fmt.Errorf("pitch periods per window must be positive")
	}
	if c.BroadPitchFloor <= 0 || c.BroadPitchCeiling <= c.BroadPitchFloor {
		return fmt.Errorf("broad pitch range must satisfy 0 < floor < ceiling")
	}
	if c.BandFloorFactor <= 0 || c.BandCeilingFactor < 1 {
		return fmt.Errorf("band factors must be positive with ceiling factor >= 1")
	}
	if c.Intensity.MinPitch <= 0 {
		return fmt.Errorf("intensity minimum pitch must be positive")
	}
	if c.Harmonicity.TimeStep <= 0 || c.Harmonicity.PeriodsPerWindow <= 0 {
		return fmt.Errorf("harmonicity time step and periods per window must be positive")
	}
	if c.Jitter.ShortestPeriod <= 0 || c.Jitter.LongestPeriod <= c.Jitter.ShortestPeriod {
		return fmt.Errorf("jitter period bounds must satisfy 0 < shortest < longest")
	}
	if c.Jitter.MaxPeriodFactor < 1 {
		return fmt.Errorf("jitter max period factor must be at least 1")
	}
	if c.Formant.MaxFormants < 4 {
		return fmt.Errorf("at least 4 formants are required, got %d", c.Formant.MaxFormants)
	}
	if c.Formant.TimeStep <= 0 || c.Formant.WindowLength <= 0 {
		return fmt.Errorf("formant time step and window length must be positive")
	}
	if c.Formant.LowPitchLimit >= c.Formant.HighPitchLimit {
		return fmt.Errorf("formant pitch bands must satisfy low < high")
	}
	if c.TimeBudget < 0 {
		return fmt.Errorf("time budget cannot be negative")
	}
	return nil
}
