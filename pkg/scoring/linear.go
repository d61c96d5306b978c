package scoring

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// LinearParameters describe a linear regression score model
type LinearParameters struct {
	Intercept    float64   `json:"intercept" yaml:"intercept"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
}

// LinearModel scores a row as intercept + coefficients . row
type LinearModel struct {
	intercept    float64
	coefficients []float64
}

// NewLinearModel builds a linear model
func NewLinearModel(params LinearParameters) (*LinearModel, error) {
	if len(params.Coefficients) == 0 {
		return nil, fmt.Errorf("linear model has no coefficients")
	}
	return &LinearModel{
		intercept:    params.Intercept,
		coefficients: append([]float64(nil), params.Coefficients...),
	}, nil
}

func (m *LinearModel) Predict(normalized []float64) (float64, error) {
	if err := checkArity(m, normalized); err != nil {
		return 0, err
	}
	score := m.intercept + floats.Dot(m.coefficients, normalized)
	if err := checkFinite(ModelTypeLinear, score); err != nil {
		return 0, err
	}
	return score, nil
}

func (m *LinearModel) NumFeatures() int {
	return len(m.coefficients)
}

func (m *LinearModel) Type() string {
	return ModelTypeLinear
}
