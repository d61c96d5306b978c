package scoring

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
)

// Model type identifiers used in parameter files
const (
	ModelTypeLinear  = "linear"
	ModelTypeXGBoost = "xgboost"
	ModelTypeONNX    = "onnx"
)

// Model maps a standardized feature row to a raw score. Implementations are
// pure and safe for concurrent use.
type Model interface {
	Predict(normalized []float64) (float64, error)
	NumFeatures() int
	Type() string
}

func checkArity(m Model, normalized []float64) error {
	if len(normalized) != m.NumFeatures() {
		return common.NewAnalysisErrorWithFields("scoring", common.ErrCodeSchemaMismatch,
			fmt.Sprintf("%s model expects %d features, got %d", m.Type(), m.NumFeatures(), len(normalized)), nil,
			map[string]any{"expected": m.NumFeatures(), "actual": len(normalized)})
	}
	return nil
}

func checkFinite(model string, score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return common.NewAnalysisError("scoring", common.ErrCodeNumericDegeneracy,
			fmt.Sprintf("%s model produced a non-finite score", model), nil)
	}
	return nil
}
