package extractors

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/analyzers"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
)

// SpeechQualityExtractor turns a recording into the voice-quality feature vector
type SpeechQualityExtractor struct {
	config      *config.FeatureConfig
	pitch       *analyzers.PitchAnalyzer
	intensity   *analyzers.IntensityAnalyzer
	harmonicity *analyzers.HarmonicityAnalyzer
	points      *analyzers.PointProcessor
	formants    *analyzers.FormantAnalyzer
	logger      logging.Logger
}

// NewSpeechQualityExtractor creates a new extractor; a nil config selects defaults
func NewSpeechQualityExtractor(cfg *config.FeatureConfig) *SpeechQualityExtractor {
	if cfg == nil {
		cfg = config.DefaultFeatureConfig()
	}

	return &SpeechQualityExtractor{
		config:      cfg,
		pitch:       analyzers.NewPitchAnalyzer(cfg.Pitch),
		intensity:   analyzers.NewIntensityAnalyzer(cfg.Intensity),
		harmonicity: analyzers.NewHarmonicityAnalyzer(cfg.Harmonicity),
		points:      analyzers.NewPointProcessor(),
		formants:    analyzers.NewFormantAnalyzer(cfg.Formant),
		logger: logging.WithFields(logging.Fields{
			"component": "speech_quality_extractor",
		}),
	}
}

// GetName returns the extractor name
func (e *SpeechQualityExtractor) GetName() string {
	return "SpeechQualityExtractor"
}

// Extract computes the feature vector of a sample. It fails with an
// INSUFFICIENT_SIGNAL error when no voiced frames or glottal points exist.
func (e *SpeechQualityExtractor) Extract(ctx context.Context, sample *common.Sample) (FeatureVector, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	if e.config.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.TimeBudget)
		defer cancel()
	}

	started := time.Now()
	x, sr := sample.Data, sample.SampleRate
	logger := e.logger.WithFields(logging.Fields{
		"function":    "Extract",
		"sample_rate": sr,
		"samples":     len(x),
	})
	logger.Debug("Starting feature extraction")

	// Default-range pitch contour for the reported pitch statistics
	contour, err := e.pitch.Analyze(ctx, x, sr, e.config.Pitch.Floor, e.config.Pitch.Ceiling)
	if err != nil {
		return nil, err
	}
	pitchStats, ok := contour.Stats()
	if !ok {
		return nil, insufficientSignal("pitch", "no voiced frames detected", sample)
	}

	intensityContour, err := e.intensity.Analyze(ctx, x, sr)
	if err != nil {
		return nil, err
	}
	intensityStats, ok := intensityContour.Stats()
	if !ok {
		return nil, insufficientSignal("intensity", "signal too short for intensity analysis", sample)
	}

	// Broad pass bounds the refined search to avoid octave errors
	broad, err := e.pitch.Analyze(ctx, x, sr, e.config.BroadPitchFloor, e.config.BroadPitchCeiling)
	if err != nil {
		return nil, err
	}
	broadStats, ok := broad.Stats()
	if !ok {
		return nil, insufficientSignal("pitch", "no voiced frames in broad pitch pass", sample)
	}
	minF0, maxF0 := broadStats.Min, broadStats.Max

	refined, err := e.pitch.Analyze(ctx, x, sr, e.config.BandFloorFactor*minF0, e.config.BandCeilingFactor*maxF0)
	if err != nil {
		return nil, err
	}
	refinedStats, ok := refined.Stats()
	if !ok {
		return nil, insufficientSignal("pitch", "no voiced frames in refined pitch pass", sample)
	}

	hnrContour, err := e.harmonicity.Analyze(ctx, x, sr, minF0)
	if err != nil {
		return nil, err
	}
	hnr, ok := hnrContour.Mean()
	if !ok {
		hnr = math.NaN()
	}

	points, err := e.points.Build(ctx, x, sr, refined)
	if err != nil {
		return nil, err
	}
	if points.Len() == 0 {
		return nil, insufficientSignal("point_process", "no glottal points detected", sample)
	}
	jitter, ok := points.JitterLocal(e.config.Jitter)
	if !ok {
		jitter = math.NaN()
	}

	maxFormant := e.config.Formant.MaxFormantFor(refinedStats.Mean)
	track, err := e.formants.Analyze(ctx, x, sr, maxFormant)
	if err != nil {
		return nil, err
	}

	tracks := e.sampleFormants(track, points)
	f1 := populationStd(tracks[0])
	f2 := populationStd(tracks[1])
	f3 := populationStd(tracks[2])
	f4 := populationStd(tracks[3])

	ratio := 0.0
	if f1 > 0 && !math.IsNaN(f1) && !math.IsNaN(f2) {
		ratio = f2 / f1
	} else {
		logger.Debug("Formant dispersion ratio degenerate, using zero", logging.Fields{
			"f1_std": f1,
			"f2_std": f2,
		})
	}

	spectral := math.NaN()
	if e.config.EnableSpectralHNR {
		if v, ok, err := analyzers.SpectralHarmonicRatio(x, sr); err != nil {
			logger.Warn("Spectral harmonic ratio unavailable", logging.Fields{"error": err.Error()})
		} else if ok {
			spectral = v
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, common.NewAnalysisError("extract", common.ErrCodeTimeout, "feature extraction interrupted", err)
	}

	vector := FeatureVector{
		IntensityMax:     intensityStats.Max,
		IntensityMin:     intensityStats.Min,
		IntensityMean:    intensityStats.Mean,
		PitchMax:         pitchStats.Max,
		PitchMin:         pitchStats.Min,
		PitchMean:        pitchStats.Mean,
		DiffPitchMaxMean: pitchStats.Max - pitchStats.Mean,
		F1Std:            f1,
		F3Std:            f3,
		F2StdF1:          ratio,

		MeanF0:       refinedStats.Mean,
		StdevF0:      refinedStats.StdDev,
		HNR:          hnr,
		SpectralHNR:  spectral,
		LocalJitter:  jitter,
		MaxFormant:   maxFormant,
		F2Std:        f2,
		F4Std:        f4,
		PointCount:   float64(points.Len()),
		DurationSecs: sample.Seconds(),
	}
	vector.Sanitize()

	logger.Debug("Feature extraction completed", logging.Fields{
		"elapsed_ms":  time.Since(started).Milliseconds(),
		"points":      points.Len(),
		"max_formant": maxFormant,
		"mean_f0":     refinedStats.Mean,
	})

	return vector, nil
}

// sampleFormants reads F1..F4 at every glottal point
func (e *SpeechQualityExtractor) sampleFormants(track *analyzers.FormantTrack, points *analyzers.PointProcess) [4][]float64 {
	var tracks [4][]float64
	repeat := 1
	if e.config.DuplicateFormantSamples {
		repeat = 2
	}

	for _, t := range points.Times {
		for i := range tracks {
			v, ok := track.ValueAt(i+1, t)
			if !ok {
				continue
			}
			for range repeat {
				tracks[i] = append(tracks[i], v)
			}
		}
	}
	return tracks
}

// populationStd is NaN for an empty track
func populationStd(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	_, std := stat.PopMeanStdDev(x, nil)
	return std
}

func insufficientSignal(stage, message string, sample *common.Sample) error {
	return common.NewAnalysisErrorWithFields(stage, common.ErrCodeInsufficientSignal, message, nil,
		map[string]any{
			"samples":     len(sample.Data),
			"sample_rate": sample.SampleRate,
			"peak":        floats.Max(absolute(sample.Data)),
		})
}

func absolute(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}
