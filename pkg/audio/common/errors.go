package common

import "errors"

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// AnalysisError represents a failure somewhere in the analysis pipeline
type AnalysisError struct {
	Stage   string         `json:"stage"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
	Cause   error          `json:"-"`
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is matches another AnalysisError by code so sentinels work with errors.Is
func (e *AnalysisError) Is(target error) bool {
	var other *AnalysisError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code != "" && other.Code == e.Code
}

// Common error codes
const (
	ErrCodeInsufficientSignal = "INSUFFICIENT_SIGNAL"
	ErrCodeSchemaMismatch     = "SCHEMA_MISMATCH"
	ErrCodeNumericDegeneracy  = "NUMERIC_DEGENERACY"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeDecoding           = "DECODING_FAILED"
)

var (
	// ErrInsufficientSignal matches any error raised because no voiced frames were found
	ErrInsufficientSignal = &AnalysisError{Code: ErrCodeInsufficientSignal, Message: "insufficient signal"}

	// ErrSchemaMismatch matches any error raised because a feature vector does not fit the trained schema
	ErrSchemaMismatch = &AnalysisError{Code: ErrCodeSchemaMismatch, Message: "feature schema mismatch"}
)

// NewAnalysisError creates a new analysis error
func NewAnalysisError(stage, code, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Stage:   stage,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAnalysisErrorWithFields creates a new analysis error carrying diagnostic fields
func NewAnalysisErrorWithFields(stage, code, message string, cause error, fields map[string]any) *AnalysisError {
	err := NewAnalysisError(stage, code, message, cause)
	err.Fields = fields
	return err
}

// CodeOf returns the code of the first AnalysisError in the chain, or "" if none
func CodeOf(err error) string {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
