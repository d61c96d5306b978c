//go:build !onnx

package scoring

import "errors"

// ErrONNXUnavailable indicates the ONNX backend is not compiled in
var ErrONNXUnavailable = errors.New("scoring: onnx backend not available (build without -tags onnx)")

// ONNXAvailable reports that no ONNX backend is compiled in
func ONNXAvailable() bool { return false }

// NewONNXModel returns an error when built without the onnx tag
func NewONNXModel(_ ONNXParameters) (Model, error) {
	return nil, ErrONNXUnavailable
}
