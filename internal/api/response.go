package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RyanBlaney/speech-trainer/internal/store"
	"github.com/RyanBlaney/speech-trainer/internal/trainer"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// ErrorResponse aborts the request with a coded error
func ErrorResponse(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": ErrorBody{Code: code, Message: message}})
}

// SuccessResponse writes data under key
func SuccessResponse(c *gin.Context, status int, key string, data any) {
	c.JSON(status, gin.H{key: data})
}

// analysisErrorResponse maps pipeline failures to HTTP statuses
func analysisErrorResponse(c *gin.Context, err error) {
	var ae *common.AnalysisError
	switch {
	case errors.Is(err, trainer.ErrSessionExpired):
		ErrorResponse(c, http.StatusGone, "SESSION_EXPIRED", err.Error())
	case errors.Is(err, store.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
	case errors.As(err, &ae):
		status := http.StatusInternalServerError
		switch ae.Code {
		case common.ErrCodeInsufficientSignal:
			status = http.StatusUnprocessableEntity
		case common.ErrCodeInvalidInput, common.ErrCodeDecoding:
			status = http.StatusBadRequest
		case common.ErrCodeTimeout:
			status = http.StatusGatewayTimeout
		}
		c.AbortWithStatusJSON(status, gin.H{"error": ErrorBody{Code: ae.Code, Message: err.Error(), Fields: ae.Fields}})
	default:
		ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
