//go:build !onnx

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestONNXUnavailableWithoutTag(t *testing.T) {
	assert.False(t, ONNXAvailable())

	file := ModelFile{Type: ModelTypeONNX, ONNX: &ONNXParameters{Path: "model.onnx", NumFeatures: 9}}
	_, err := file.Build()
	assert.ErrorIs(t, err, ErrONNXUnavailable)
}
