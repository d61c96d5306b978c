package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RyanBlaney/speech-trainer/internal/progress"
	"github.com/RyanBlaney/speech-trainer/internal/store"
	"github.com/RyanBlaney/speech-trainer/internal/trainer"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
)

const (
	// DefaultMaxUploadBytes bounds an uploaded recording
	DefaultMaxUploadBytes = 32 << 20

	sessionSweepInterval = time.Minute
)

// Server exposes the trainer over HTTP
type Server struct {
	trainer    *trainer.Trainer
	store      store.Store
	progress   *progress.ProgressCalculator
	logger     logging.Logger
	startScore float64
	maxUpload  int64
	onAttempt  func(trainer.Result)

	mu       sync.RWMutex
	sessions map[string]*trainer.Session

	engine *gin.Engine
}

// ServerConfig contains the collaborators of a server
type ServerConfig struct {
	Trainer        *trainer.Trainer
	Store          store.Store
	Logger         logging.Logger
	StartScore     float64
	MaxUploadBytes int64
	// OnAttempt runs after every scored attempt
	OnAttempt func(trainer.Result)
}

// NewServer builds the router
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil || cfg.Trainer == nil {
		return nil, errors.New("api server requires a trainer")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	st := cfg.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	s := &Server{
		trainer:    cfg.Trainer,
		store:      st,
		progress:   progress.NewProgressCalculator(logger),
		logger:     logger.WithFields(logging.Fields{"component": "api_server"}),
		startScore: cfg.StartScore,
		maxUpload:  maxUpload,
		onAttempt:  cfg.OnAttempt,
		sessions:   make(map[string]*trainer.Session),
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)

	v1 := r.Group("/v1")
	v1.POST("/features", s.extractFeatures)
	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions/:id", s.getSession)
	v1.DELETE("/sessions/:id", s.deleteSession)
	v1.POST("/sessions/:id/attempts", s.createAttempt)
	v1.GET("/sessions/:id/progress", s.getProgress)

	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sweepSessions(sweepCtx, sessionSweepInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", logging.Fields{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request handled", logging.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

// session returns a live session, evicting it once its training time is over
func (s *Server) session(id string) (*trainer.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if session.Expired() {
		s.mu.Lock()
		if s.sessions[id] == session {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
		return nil, false
	}
	return session, true
}

// evictExpired drops every expired session and returns how many went
func (s *Server) evictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, session := range s.sessions {
		if session.Expired() {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (s *Server) sweepSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictExpired(); n > 0 {
				s.logger.Debug("Evicted expired sessions", logging.Fields{"count": n})
			}
		}
	}
}
