package scoring

import (
	"fmt"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
)

// ScalerParameters are the per-feature standardization constants of the
// trained scaler
type ScalerParameters struct {
	Features []string  `json:"features" yaml:"features"`
	Mean     []float64 `json:"mean" yaml:"mean"`
	Scale    []float64 `json:"scale" yaml:"scale"`
}

// Validate checks that the parameter arrays agree in length and that no
// scale is zero
func (p *ScalerParameters) Validate() error {
	if len(p.Features) == 0 {
		return schemaMismatch("scaler has no features", nil)
	}
	if len(p.Mean) != len(p.Features) || len(p.Scale) != len(p.Features) {
		return schemaMismatch(fmt.Sprintf("scaler arrays disagree: %d features, %d means, %d scales",
			len(p.Features), len(p.Mean), len(p.Scale)), nil)
	}
	for i, s := range p.Scale {
		if s == 0 {
			return common.NewAnalysisErrorWithFields("scaling", common.ErrCodeNumericDegeneracy,
				"scaler has a zero scale", nil, map[string]any{"feature": p.Features[i]})
		}
	}
	return nil
}

// Scaler standardizes feature vectors. It is immutable once built and safe
// for concurrent use.
type Scaler struct {
	params ScalerParameters
	schema extractors.Schema
}

// NewScaler validates the parameters and builds a scaler
func NewScaler(params ScalerParameters) (*Scaler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Copy so later edits to the caller's slices cannot leak in
	p := ScalerParameters{
		Features: append([]string(nil), params.Features...),
		Mean:     append([]float64(nil), params.Mean...),
		Scale:    append([]float64(nil), params.Scale...),
	}
	return &Scaler{params: p, schema: extractors.Schema(p.Features)}, nil
}

// Features returns the feature order the scaler expects
func (s *Scaler) Features() extractors.Schema {
	return append(extractors.Schema(nil), s.schema...)
}

// Parameters returns a copy of the scaler parameters
func (s *Scaler) Parameters() ScalerParameters {
	return ScalerParameters{
		Features: append([]string(nil), s.params.Features...),
		Mean:     append([]float64(nil), s.params.Mean...),
		Scale:    append([]float64(nil), s.params.Scale...),
	}
}

// Scale maps a feature vector to standardized model input
func (s *Scaler) Scale(fv extractors.FeatureVector) ([]float64, error) {
	row, err := fv.Row(s.schema)
	if err != nil {
		return nil, err
	}
	for i, v := range row {
		row[i] = (v - s.params.Mean[i]) / s.params.Scale[i]
	}
	return row, nil
}

// Unscale is the inverse of Scale on positional rows
func (s *Scaler) Unscale(normalized []float64) ([]float64, error) {
	if len(normalized) != len(s.schema) {
		return nil, schemaMismatch(fmt.Sprintf("expected %d values, got %d", len(s.schema), len(normalized)), nil)
	}
	out := make([]float64, len(normalized))
	for i, v := range normalized {
		out[i] = v*s.params.Scale[i] + s.params.Mean[i]
	}
	return out, nil
}

// Vector rebuilds a named feature vector from an unscaled row
func (s *Scaler) Vector(row []float64) (extractors.FeatureVector, error) {
	if len(row) != len(s.schema) {
		return nil, schemaMismatch(fmt.Sprintf("expected %d values, got %d", len(s.schema), len(row)), nil)
	}
	fv := make(extractors.FeatureVector, len(row))
	for i, name := range s.schema {
		fv[name] = row[i]
	}
	return fv, nil
}

// IdentityScaler returns a scaler over the scoring schema that leaves values unchanged
func IdentityScaler() *Scaler {
	schema := extractors.ScoringSchema()
	params := ScalerParameters{
		Features: append([]string(nil), schema...),
		Mean:     make([]float64, len(schema)),
		Scale:    make([]float64, len(schema)),
	}
	for i := range params.Scale {
		params.Scale[i] = 1
	}
	return &Scaler{params: params, schema: extractors.Schema(params.Features)}
}

func schemaMismatch(message string, fields map[string]any) error {
	return common.NewAnalysisErrorWithFields("scoring", common.ErrCodeSchemaMismatch, message, nil, fields)
}
