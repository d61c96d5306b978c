package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/speech-trainer/configs"
	"github.com/RyanBlaney/speech-trainer/internal/store"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
)

func writeParameterFiles(t *testing.T, dir string, intercept string) {
	t.Helper()
	features := strings.Join(extractors.ScoringSchema(), ", ")
	scaler := "features: [" + features + "]\n" +
		"mean: [0, 0, 0, 0, 0, 0, 0, 0, 0]\n" +
		"scale: [1, 1, 1, 1, 1, 1, 1, 1, 1]\n"
	model := "type: linear\nlinear:\n  intercept: " + intercept + "\n  coefficients: [0, 0, 0, 0, 0, 0, 0, 0, 0]\n"

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scaler.yaml"), []byte(scaler), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte(model), 0644))
}

func TestBuildTrainerLoadsParameterFiles(t *testing.T) {
	cfg := testConfig(t)
	writeParameterFiles(t, cfg.ConfigDir, "42")
	cfg.Model.ScalerPath = "scaler.yaml"
	cfg.Model.ModelPath = "model.yaml"

	tr, err := buildTrainer(cfg, logging.NewDefaultLogger())
	require.NoError(t, err)

	result, err := tr.Score(context.Background(), voicedSample(0.6))
	require.NoError(t, err)
	assert.InDelta(t, 42.0, result.RawScore, 1e-9)
	assert.Equal(t, result.RawScore, result.Score)
}

func TestBuildTrainerMissingParameters(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.ModelPath = "absent.yaml"

	_, err := buildTrainer(cfg, logging.NewDefaultLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model parameters")
}

func TestStoreConfigMapping(t *testing.T) {
	cfg := configs.GetDefaultConfig()
	cfg.Store.Backend = "mongo"
	cfg.Store.MongoURI = "mongodb://db:27017"

	sc := storeConfig(cfg)
	assert.Equal(t, store.BackendMongo, sc.Backend)
	assert.Equal(t, "mongodb://db:27017", sc.Mongo.URI)
	assert.Equal(t, "speech_trainer", sc.Mongo.Database)
}

func TestGenerateAndValidateExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "speech-trainer.yaml")
	require.NoError(t, GenerateExampleConfig(path))

	cfg, err := ValidateConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, configs.GetDefaultConfig().Analysis, cfg.Analysis)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestValidateConfigFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ValidateConfigFile(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("output_format: csv\n"), 0644))
	_, err = ValidateConfigFile(bad)
	assert.Error(t, err)

	mismatch := filepath.Join(dir, "mismatch.yaml")
	writeParameterFiles(t, dir, "1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.yaml"),
		[]byte("type: linear\nlinear:\n  intercept: 1\n  coefficients: [1, 2]\n"), 0644))
	require.NoError(t, os.WriteFile(mismatch, []byte(
		"model:\n  scaler_path: "+filepath.Join(dir, "scaler.yaml")+"\n  model_path: "+filepath.Join(dir, "short.yaml")+"\n"), 0644))
	_, err = ValidateConfigFile(mismatch)
	assert.Error(t, err)
}

func TestTableFormatterFallsBackToYAML(t *testing.T) {
	out, err := (&TableFormatter{Precision: 2}).Format(map[string]int{"attempts": 3}, true)
	require.NoError(t, err)
	assert.Equal(t, "attempts: 3\n", string(out))
}
