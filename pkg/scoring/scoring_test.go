package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
)

// ScoringTestSuite covers scaling, models and parameter loading
type ScoringTestSuite struct {
	suite.Suite
	scaler *Scaler
	vector extractors.FeatureVector
}

func (s *ScoringTestSuite) SetupTest() {
	scaler, err := NewScaler(ScalerParameters{
		Features: []string(extractors.ScoringSchema()),
		Mean:     []float64{78, 36, 62, 300, 90, 180, 120, 200, 300},
		Scale:    []float64{5, 2, 5, 60, 20, 40, 40, 50, 70},
	})
	s.Require().NoError(err)
	s.scaler = scaler

	s.vector = extractors.FeatureVector{
		extractors.IntensityMax:     83,
		extractors.IntensityMin:     38,
		extractors.IntensityMean:    67,
		extractors.PitchMax:         360,
		extractors.PitchMin:         110,
		extractors.PitchMean:        200,
		extractors.DiffPitchMaxMean: 160,
		extractors.F1Std:            250,
		extractors.F3Std:            370,
		extractors.F2StdF1:          1.4,
	}
}

func (s *ScoringTestSuite) TestScaleStandardizes() {
	row, err := s.scaler.Scale(s.vector)
	s.Require().NoError(err)
	s.Require().Len(row, 9)

	s.InDelta(1.0, row[0], 1e-12)
	s.InDelta(1.0, row[1], 1e-12)
	s.InDelta(1.0, row[2], 1e-12)
	s.InDelta(1.0, row[3], 1e-12)
	s.InDelta(1.0, row[8], 1e-12)
}

func (s *ScoringTestSuite) TestUnscaleInvertsScale() {
	for _, v := range [][]float64{
		{0, 0, 0, 0, 0, 0, 0, 0, 0},
		{1.5, -2, 0.25, 3, -0.75, 0.1, 9, -4, 2},
	} {
		raw, err := s.scaler.Unscale(v)
		s.Require().NoError(err)
		fv, err := s.scaler.Vector(raw)
		s.Require().NoError(err)
		back, err := s.scaler.Scale(fv)
		s.Require().NoError(err)
		s.InDeltaSlice(v, back, 1e-9)
	}
}

func (s *ScoringTestSuite) TestScaleZeroFillsNaN() {
	s.vector[extractors.PitchMin] = 0
	withZero, err := s.scaler.Scale(s.vector)
	s.Require().NoError(err)

	s.vector[extractors.PitchMin] = nan()
	withNaN, err := s.scaler.Scale(s.vector)
	s.Require().NoError(err)

	s.Equal(withZero, withNaN)
}

func (s *ScoringTestSuite) TestScaleMissingFeatureIsSchemaMismatch() {
	delete(s.vector, extractors.F1Std)
	_, err := s.scaler.Scale(s.vector)
	s.Require().Error(err)
	s.ErrorIs(err, common.ErrSchemaMismatch)
}

func (s *ScoringTestSuite) TestScaleIgnoresDroppedField() {
	delete(s.vector, extractors.F2StdF1)
	_, err := s.scaler.Scale(s.vector)
	s.NoError(err)
}

func (s *ScoringTestSuite) TestLinearModelArity() {
	model, err := NewLinearModel(LinearParameters{Intercept: 10, Coefficients: []float64{1, 2, 3}})
	s.Require().NoError(err)

	score, err := model.Predict([]float64{1, 1, 1})
	s.Require().NoError(err)
	s.InDelta(16.0, score, 1e-12)

	_, err = model.Predict([]float64{1, 1})
	s.ErrorIs(err, common.ErrSchemaMismatch)
}

func (s *ScoringTestSuite) TestXGBoostModel() {
	model, err := NewXGBoostModel(sampleXGBoost())
	s.Require().NoError(err)
	s.Equal(2, model.NumFeatures())

	cases := []struct {
		row  []float64
		want float64
	}{
		{[]float64{-1, 0}, 0.5 + 1 + 5},
		{[]float64{1, -1}, 0.5 + 2 + 4},
		{[]float64{1, 2}, 0.5 + 3 + 4},
		{[]float64{nan(), 0}, 0.5 + 1 + 4},
	}
	for _, tc := range cases {
		got, err := model.Predict(tc.row)
		s.Require().NoError(err)
		s.InDelta(tc.want, got, 1e-12, "row %v", tc.row)
	}
}

func (s *ScoringTestSuite) TestXGBoostRejectsUnknownSplit() {
	params := sampleXGBoost()
	params.Trees[0].Split = "pitch"
	_, err := NewXGBoostModel(params)
	s.Error(err)
}

func (s *ScoringTestSuite) TestLoadYAMLAndJSONParameters() {
	dir := s.T().TempDir()

	scalerPath := filepath.Join(dir, "scaler.json")
	s.Require().NoError(os.WriteFile(scalerPath, []byte(`{"features":["a","b"],"mean":[1,2],"scale":[2,4]}`), 0o644))
	scaler, err := LoadScalerFile(scalerPath)
	s.Require().NoError(err)
	s.Equal(extractors.Schema{"a", "b"}, scaler.Features())

	modelPath := filepath.Join(dir, "model.yaml")
	s.Require().NoError(os.WriteFile(modelPath, []byte("type: linear\nlinear:\n  intercept: 1\n  coefficients: [2, 3]\n"), 0o644))
	model, err := LoadModelFile(modelPath)
	s.Require().NoError(err)
	s.Equal(ModelTypeLinear, model.Type())

	row, err := scaler.Scale(extractors.FeatureVector{"a": 3, "b": 6})
	s.Require().NoError(err)
	score, err := model.Predict(row)
	s.Require().NoError(err)
	s.InDelta(1+2*1+3*1, score, 1e-12)

	treePath := filepath.Join(dir, "trees.json")
	s.Require().NoError(os.WriteFile(treePath, []byte(`{
		"type": "xgboost",
		"xgboost": {
			"base_score": 0.5,
			"num_features": 2,
			"trees": [{"nodeid": 0, "split": "f1", "split_condition": 0.5, "yes": 1, "no": 2, "missing": 1,
				"children": [{"nodeid": 1, "leaf": -1}, {"nodeid": 2, "leaf": 1}]}]
		}
	}`), 0o644))
	trees, err := LoadModelFile(treePath)
	s.Require().NoError(err)
	score, err = trees.Predict([]float64{0, 1})
	s.Require().NoError(err)
	s.InDelta(1.5, score, 1e-12)
}

func (s *ScoringTestSuite) TestLoadErrors() {
	_, err := LoadScalerFile(filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.Error(err)

	path := filepath.Join(s.T().TempDir(), "model.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("type: forest\n"), 0o644))
	_, err = LoadModelFile(path)
	s.ErrorContains(err, "unsupported model type")

	_, err = NewScaler(ScalerParameters{Features: []string{"a"}, Mean: []float64{0}, Scale: []float64{0}})
	s.Equal(common.ErrCodeNumericDegeneracy, common.CodeOf(err))

	_, err = NewScaler(ScalerParameters{Features: []string{"a", "b"}, Mean: []float64{0}, Scale: []float64{1}})
	s.ErrorIs(err, common.ErrSchemaMismatch)
}

func (s *ScoringTestSuite) TestBundledDefaultsAgree() {
	scaler, err := DefaultScaler()
	s.Require().NoError(err)
	model, err := DefaultModel()
	s.Require().NoError(err)

	s.Equal(extractors.ScoringSchema(), scaler.Features())
	s.Equal(len(scaler.Features()), model.NumFeatures())

	row, err := scaler.Scale(s.vector)
	s.Require().NoError(err)
	_, err = model.Predict(row)
	s.NoError(err)
}

func TestScoringSuite(t *testing.T) {
	suite.Run(t, new(ScoringTestSuite))
}

func TestSmootherPassesThroughWithoutHistory(t *testing.T) {
	smoother := NewSmoother(DefaultAlpha)
	for _, raw := range []float64{-100, 0, 3.5, 70, 1e6} {
		assert.Equal(t, raw, smoother.Adjust(raw, NewBaseline(40)))
	}
}

func TestSmootherReanchorsOutliers(t *testing.T) {
	smoother := NewSmoother(DefaultAlpha)
	b := Baseline{Previous: 40, Mean: 50, StdDev: 5}

	assert.Equal(t, 60.0, smoother.Adjust(70, b))
	assert.Equal(t, 20.0, smoother.Adjust(30, b))
	assert.Equal(t, 52.0, smoother.Adjust(52, b))
	assert.Equal(t, 55.0, smoother.Adjust(55, b))
}

func TestSmootherUpdateUsesWelford(t *testing.T) {
	smoother := NewSmoother(0)
	b := NewBaseline(0)

	scores := []float64{60, 64, 58, 70}
	var adjusted []float64
	for _, raw := range scores {
		var a float64
		a, b = smoother.Step(b, raw)
		adjusted = append(adjusted, a)
	}

	require.Equal(t, 4, b.Count)
	assert.InDelta(t, 63.0, b.Mean, 1e-12)
	assert.InDelta(t, 4.582575694955840, b.StdDev, 1e-9)
	assert.Equal(t, adjusted[len(adjusted)-1], b.Previous)
	assert.Equal(t, 60.0, adjusted[0], "first attempt passes through")

	next := smoother.Update(b, 63)
	assert.Equal(t, 63.0, next.Previous)
	assert.Equal(t, 5, next.Count)
}
