package extractors

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
)

// Feature names of the trained schema, in positional order
const (
	IntensityMax     = "intensityMax"
	IntensityMin     = "intensityMin"
	IntensityMean    = "intensityMean"
	PitchMax         = "PitchMax"
	PitchMin         = "PitchMin"
	PitchMean        = "PitchMean"
	DiffPitchMaxMean = "diffPitchMaxMean"
	F1Std            = "F1_STD"
	F3Std            = "F3_STD"
	F2StdF1          = "F2_STD_F1"
)

// Extended features, reported but never fed to the model
const (
	MeanF0       = "meanF0"
	StdevF0      = "stdevF0"
	HNR          = "hnr"
	SpectralHNR  = "spectralHNR"
	LocalJitter  = "localJitter"
	MaxFormant   = "maxFormant"
	F2Std        = "F2_STD"
	F4Std        = "F4_STD"
	PointCount   = "pointCount"
	DurationSecs = "duration"
)

// Schema is an ordered list of feature names
type Schema []string

// DefaultSchema is the declared feature order of every vector
var DefaultSchema = Schema{
	IntensityMax,
	IntensityMin,
	IntensityMean,
	PitchMax,
	PitchMin,
	PitchMean,
	DiffPitchMaxMean,
	F1Std,
	F3Std,
	F2StdF1,
}

// ScoringSchema is the model input: the declared schema without its last field
func ScoringSchema() Schema {
	return DefaultSchema[:len(DefaultSchema)-1]
}

// ExtendedFeatures lists the extra names an extractor may populate
var ExtendedFeatures = []string{
	MeanF0, StdevF0, HNR, SpectralHNR, LocalJitter, MaxFormant, F2Std, F4Std, PointCount, DurationSecs,
}

// FeatureVector maps feature names to values
type FeatureVector map[string]float64

// Get returns a feature value, treating NaN as zero
func (fv FeatureVector) Get(name string) float64 {
	v, ok := fv[name]
	if !ok || math.IsNaN(v) {
		return 0
	}
	return v
}

// Sanitize replaces NaN and infinite values with zero in place
func (fv FeatureVector) Sanitize() FeatureVector {
	for k, v := range fv {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fv[k] = 0
		}
	}
	return fv
}

// Row lays the vector out positionally for a schema, zero-filling NaN values.
// A name absent from the vector is a schema mismatch.
func (fv FeatureVector) Row(schema Schema) ([]float64, error) {
	row := make([]float64, len(schema))
	for i, name := range schema {
		v, ok := fv[name]
		if !ok {
			return nil, common.NewAnalysisErrorWithFields("scaling", common.ErrCodeSchemaMismatch,
				fmt.Sprintf("feature %q missing from vector", name), nil,
				map[string]any{"feature": name, "position": i})
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		row[i] = v
	}
	return row, nil
}

// Core returns a copy holding only the declared schema fields
func (fv FeatureVector) Core() FeatureVector {
	out := make(FeatureVector, len(DefaultSchema))
	for _, name := range DefaultSchema {
		if v, ok := fv[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Validate checks that every declared schema field is present
func (fv FeatureVector) Validate() error {
	_, err := fv.Row(DefaultSchema)
	return err
}
