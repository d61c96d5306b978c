//go:build onnx

package scoring

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// ONNXAvailable reports that the ONNX backend is compiled in
func ONNXAvailable() bool { return true }

// ONNXModel runs a single-output regression graph through ONNX Runtime.
// Tensors are reused between calls, so Predict is serialized.
type ONNXModel struct {
	mu          sync.Mutex
	session     *ort.AdvancedSession
	input       *ort.Tensor[float32]
	output      *ort.Tensor[float32]
	numFeatures int
}

// NewONNXModel loads the graph at params.Path
func NewONNXModel(params ONNXParameters) (Model, error) {
	if params.NumFeatures <= 0 {
		return nil, fmt.Errorf("onnx model must declare num_features")
	}

	ortInitOnce.Do(func() {
		libPath := params.LibraryPath
		if libPath == "" {
			libPath = os.Getenv("SPEECH_TRAINER_ORT_LIB_PATH")
		}
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("onnx: %w", ortInitErr)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(params.NumFeatures)))
	if err != nil {
		return nil, fmt.Errorf("onnx: create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("onnx: create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		params.Path,
		[]string{params.inputName()},
		[]string{params.outputName()},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}

	return &ONNXModel{
		session:     session,
		input:       input,
		output:      output,
		numFeatures: params.NumFeatures,
	}, nil
}

func (m *ONNXModel) Predict(normalized []float64) (float64, error) {
	if err := checkArity(m, normalized); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.input.GetData()
	for i, v := range normalized {
		data[i] = float32(v)
	}
	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("onnx: run: %w", err)
	}

	score := float64(m.output.GetData()[0])
	if err := checkFinite(ModelTypeONNX, score); err != nil {
		return 0, err
	}
	return score, nil
}

func (m *ONNXModel) NumFeatures() int {
	return m.numFeatures
}

func (m *ONNXModel) Type() string {
	return ModelTypeONNX
}

// Close releases the session and its tensors
func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if m.session != nil {
		firstErr = m.session.Destroy()
		m.session = nil
	}
	if m.input != nil {
		m.input.Destroy()
		m.input = nil
	}
	if m.output != nil {
		m.output.Destroy()
		m.output = nil
	}
	return firstErr
}
