package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/speech-trainer/pkg/advice"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
	"github.com/RyanBlaney/speech-trainer/pkg/scoring"
)

// Trainer runs the extract, score, smooth and advise pipeline
type Trainer struct {
	extractor *extractors.SpeechQualityExtractor
	scaler    *scoring.Scaler
	model     scoring.Model
	smoother  *scoring.Smoother
	advisor   *advice.Engine
	logger    logging.Logger
}

// TrainerConfig contains the collaborators of a trainer. Nil fields fall
// back to defaults; Scaler and Model fall back to the bundled reference
// parameters.
type TrainerConfig struct {
	Features *config.FeatureConfig
	Scaler   *scoring.Scaler
	Model    scoring.Model
	Smoother *scoring.Smoother
	Advice   *advice.Engine
	Logger   logging.Logger
}

// NewTrainer creates a new trainer
func NewTrainer(cfg *TrainerConfig) (*Trainer, error) {
	if cfg == nil {
		cfg = &TrainerConfig{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	scaler := cfg.Scaler
	if scaler == nil {
		s, err := scoring.DefaultScaler()
		if err != nil {
			return nil, err
		}
		scaler = s
	}

	model := cfg.Model
	if model == nil {
		m, err := scoring.DefaultModel()
		if err != nil {
			return nil, err
		}
		model = m
	}

	if n := len(scaler.Features()); n != model.NumFeatures() {
		return nil, common.NewAnalysisErrorWithFields("scoring", common.ErrCodeSchemaMismatch,
			fmt.Sprintf("scaler produces %d features but model expects %d", n, model.NumFeatures()), nil,
			map[string]any{"scaler_features": n, "model_features": model.NumFeatures()})
	}

	smoother := cfg.Smoother
	if smoother == nil {
		smoother = scoring.NewSmoother(scoring.DefaultAlpha)
	}
	advisor := cfg.Advice
	if advisor == nil {
		advisor = advice.NewEngine()
	}

	return &Trainer{
		extractor: extractors.NewSpeechQualityExtractor(cfg.Features),
		scaler:    scaler,
		model:     model,
		smoother:  smoother,
		advisor:   advisor,
		logger:    logger.WithFields(logging.Fields{"component": "trainer"}),
	}, nil
}

// Extract returns the feature vector of a sample
func (t *Trainer) Extract(ctx context.Context, sample *common.Sample) (extractors.FeatureVector, error) {
	return t.extractor.Extract(ctx, sample)
}

// Score scores a sample without session state. Score equals RawScore.
func (t *Trainer) Score(ctx context.Context, sample *common.Sample) (*Result, error) {
	raw, result, err := t.analyze(ctx, sample)
	if err != nil {
		return nil, err
	}
	result.RawScore = raw
	result.Score = raw
	return result, nil
}

// Evaluate scores a sample as the next attempt of a session. The session's
// baseline is only updated when extraction and scoring succeed.
func (t *Trainer) Evaluate(ctx context.Context, sample *common.Sample, session *Session) (*Result, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if session.Expired() {
		return nil, ErrSessionExpired
	}

	raw, result, err := t.analyze(ctx, sample)
	if err != nil {
		t.logger.Error(err, "Attempt rejected", logging.Fields{
			"session_id": session.ID,
			"code":       common.CodeOf(err),
		})
		return nil, err
	}

	recorded := session.record(t.smoother, raw, *result)

	t.logger.Info("Attempt scored", logging.Fields{
		"session_id": session.ID,
		"attempt":    recorded.Attempt,
		"raw_score":  recorded.RawScore,
		"score":      recorded.Score,
		"advice":     string(recorded.Advice.Kind),
	})
	return &recorded, nil
}

func (t *Trainer) analyze(ctx context.Context, sample *common.Sample) (float64, *Result, error) {
	started := time.Now()

	features, err := t.extractor.Extract(ctx, sample)
	if err != nil {
		return 0, nil, fmt.Errorf("feature extraction failed: %w", err)
	}

	row, err := t.scaler.Scale(features)
	if err != nil {
		return 0, nil, fmt.Errorf("feature scaling failed: %w", err)
	}

	raw, err := t.model.Predict(row)
	if err != nil {
		return 0, nil, fmt.Errorf("score prediction failed: %w", err)
	}

	outcome := t.advisor.Advise(features)

	t.logger.Debug("Sample analyzed", logging.Fields{
		"raw_score":     raw,
		"model":         t.model.Type(),
		"advice_kind":   string(outcome.Kind),
		"processing_ms": time.Since(started).Milliseconds(),
	})

	return raw, &Result{
		Advice:         outcome,
		Features:       features,
		AudioDuration:  sample.Duration(),
		ProcessingTime: time.Since(started),
		Timestamp:      time.Now(),
	}, nil
}
