package scoring

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultParameters embed.FS

// ModelFile is the on-disk envelope of a score model. Exactly one of the
// typed sections matching Type must be present.
type ModelFile struct {
	Type    string             `json:"type" yaml:"type"`
	Linear  *LinearParameters  `json:"linear,omitempty" yaml:"linear,omitempty"`
	XGBoost *XGBoostParameters `json:"xgboost,omitempty" yaml:"xgboost,omitempty"`
	ONNX    *ONNXParameters    `json:"onnx,omitempty" yaml:"onnx,omitempty"`
}

// LoadScalerFile loads scaler parameters from a YAML or JSON file
func LoadScalerFile(filePath string) (*Scaler, error) {
	var params ScalerParameters
	if err := decodeFile(filePath, &params); err != nil {
		return nil, fmt.Errorf("failed to load scaler: %w", err)
	}
	return NewScaler(params)
}

// LoadModelFile loads a score model from a YAML or JSON file. Relative ONNX
// graph paths resolve against the model file's directory.
func LoadModelFile(filePath string) (Model, error) {
	var file ModelFile
	if err := decodeFile(filePath, &file); err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	if file.ONNX != nil && file.ONNX.Path != "" && !filepath.IsAbs(file.ONNX.Path) {
		file.ONNX.Path = filepath.Join(filepath.Dir(filePath), file.ONNX.Path)
	}
	return file.Build()
}

// Build constructs the model the envelope describes
func (f *ModelFile) Build() (Model, error) {
	switch strings.ToLower(f.Type) {
	case ModelTypeLinear:
		if f.Linear == nil {
			return nil, fmt.Errorf("model type %q requires a linear section", f.Type)
		}
		return NewLinearModel(*f.Linear)
	case ModelTypeXGBoost:
		if f.XGBoost == nil {
			return nil, fmt.Errorf("model type %q requires an xgboost section", f.Type)
		}
		return NewXGBoostModel(*f.XGBoost)
	case ModelTypeONNX:
		if f.ONNX == nil {
			return nil, fmt.Errorf("model type %q requires an onnx section", f.Type)
		}
		return NewONNXModel(*f.ONNX)
	default:
		return nil, fmt.Errorf("unsupported model type: %q", f.Type)
	}
}

// DefaultScaler returns the bundled reference scaler
func DefaultScaler() (*Scaler, error) {
	data, err := defaultParameters.ReadFile("defaults/scaler.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled scaler: %w", err)
	}
	var params ScalerParameters
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse bundled scaler: %w", err)
	}
	return NewScaler(params)
}

// DefaultModel returns the bundled reference model
func DefaultModel() (Model, error) {
	data, err := defaultParameters.ReadFile("defaults/model.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled model: %w", err)
	}
	var file ModelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse bundled model: %w", err)
	}
	return file.Build()
}

// decodeFile picks the decoder by extension, trying YAML then JSON for
// anything else
func decodeFile(filePath string, out any) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("parameter file does not exist: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open parameter file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read parameter file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse YAML parameters: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse JSON parameters: %w", err)
		}
	default:
		if yamlErr := yaml.Unmarshal(data, out); yamlErr == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse parameters as YAML or JSON: %w", err)
		}
	}
	return nil
}
