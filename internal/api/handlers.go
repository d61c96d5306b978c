package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RyanBlaney/speech-trainer/internal/store"
	"github.com/RyanBlaney/speech-trainer/internal/trainer"
	"github.com/RyanBlaney/speech-trainer/pkg/audio"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
)

type createSessionRequest struct {
	Topic           string   `json:"topic" binding:"required"`
	DurationMinutes int      `json:"duration_minutes" binding:"required"`
	StartScore      *float64 `json:"start_score"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	start := s.startScore
	if req.StartScore != nil {
		start = *req.StartScore
	}

	session, err := trainer.NewSession(trainer.TrainingSettings{
		Topic:           trainer.Topic(req.Topic),
		DurationMinutes: req.DurationMinutes,
	}, start)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "INVALID_SETTINGS", err.Error())
		return
	}

	snapshot := session.Snapshot()
	if err := s.store.SaveSession(c.Request.Context(), snapshot); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("Session created", logging.Fields{
		"session_id": session.ID,
		"topic":      string(session.Settings.Topic),
		"minutes":    session.Settings.DurationMinutes,
	})
	SuccessResponse(c, http.StatusCreated, "session", snapshot)
}

func (s *Server) getSession(c *gin.Context) {
	id := c.Param("id")
	if session, ok := s.session(id); ok {
		SuccessResponse(c, http.StatusOK, "session", session.Snapshot())
		return
	}

	// Sessions from an earlier process are read-only
	snapshot, err := s.store.LoadSession(c.Request.Context(), id)
	if err != nil {
		analysisErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "session", snapshot)
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	_, live := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	err := s.store.DeleteSession(c.Request.Context(), id)
	if err != nil && !(live && errors.Is(err, store.ErrNotFound)) {
		analysisErrorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createAttempt(c *gin.Context) {
	id := c.Param("id")
	session, ok := s.session(id)
	if !ok {
		stored, err := s.store.LoadSession(c.Request.Context(), id)
		if err == nil && !time.Now().Before(stored.ExpiresAt) {
			analysisErrorResponse(c, trainer.ErrSessionExpired)
			return
		}
		ErrorResponse(c, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found or no longer active")
		return
	}

	sample, err := s.readSample(c)
	if err != nil {
		analysisErrorResponse(c, err)
		return
	}

	result, err := s.trainer.Evaluate(c.Request.Context(), sample, session)
	if err != nil {
		analysisErrorResponse(c, err)
		return
	}

	if err := s.store.SaveAttempt(c.Request.Context(), *result); err != nil {
		s.logger.Error(err, "Failed to persist attempt", logging.Fields{"session_id": session.ID})
	}
	if err := s.store.SaveSession(c.Request.Context(), session.Snapshot()); err != nil {
		s.logger.Error(err, "Failed to persist session baseline", logging.Fields{"session_id": session.ID})
	}
	if s.onAttempt != nil {
		s.onAttempt(*result)
	}

	SuccessResponse(c, http.StatusCreated, "result", result)
}

func (s *Server) getProgress(c *gin.Context) {
	id := c.Param("id")

	var snapshot trainer.SessionSnapshot
	if session, ok := s.session(id); ok {
		snapshot = session.Snapshot()
	} else {
		stored, err := s.store.LoadSession(c.Request.Context(), id)
		if err != nil {
			analysisErrorResponse(c, err)
			return
		}
		snapshot = *stored
	}

	SuccessResponse(c, http.StatusOK, "progress", s.progress.CalculateReport(snapshot))
}

func (s *Server) extractFeatures(c *gin.Context) {
	sample, err := s.readSample(c)
	if err != nil {
		analysisErrorResponse(c, err)
		return
	}

	features, err := s.trainer.Extract(c.Request.Context(), sample)
	if err != nil {
		analysisErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "features", features)
}

// readSample decodes a WAV body, or raw PCM when a format query parameter
// is given (format, sample_rate, channels)
func (s *Server) readSample(c *gin.Context) (*common.Sample, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload))
	if err != nil {
		return nil, common.NewAnalysisError("input", common.ErrCodeInvalidInput, "failed to read request body", err)
	}
	if len(body) == 0 {
		return nil, common.NewAnalysisError("input", common.ErrCodeInvalidInput, "empty request body", nil)
	}

	formatName := c.Query("format")
	if formatName == "" || formatName == "wav" {
		return audio.DecodeWAVBytes(body)
	}

	format, err := common.ParsePCMFormat(formatName)
	if err != nil {
		return nil, err
	}
	sampleRate, err := strconv.Atoi(c.DefaultQuery("sample_rate", "16000"))
	if err != nil {
		return nil, common.NewAnalysisError("input", common.ErrCodeInvalidInput,
			fmt.Sprintf("invalid sample_rate %q", c.Query("sample_rate")), err)
	}
	channels, err := strconv.Atoi(c.DefaultQuery("channels", "1"))
	if err != nil {
		return nil, common.NewAnalysisError("input", common.ErrCodeInvalidInput,
			fmt.Sprintf("invalid channels %q", c.Query("channels")), err)
	}
	return common.DecodePCM(body, format, sampleRate, channels)
}
