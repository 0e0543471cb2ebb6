// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/common/logger"
	"travel-concierge/internal/jobworker"
	"travel-concierge/internal/models"
	"travel-concierge/internal/orchestrator"
)

const maxBodyBytes = 1 << 20

type Server struct {
	generator jobworker.Generator
	logger    logger.Logger
	mux       *http.ServeMux
	ready     func(context.Context) error
}

type Option func(*Server)

// WithMetrics mounts a scrape handler at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		if path != "" && h != nil {
			s.mux.Handle("GET "+path, h)
		}
	}
}

// WithReadiness makes /ready report the result of check.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) {
		s.ready = check
	}
}

func New(generator jobworker.Generator, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		generator: generator,
		logger:    log.With(map[string]interface{}{"component": "http"}),
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /v1/itineraries", s.handleGenerate)
	s.mux.HandleFunc("POST /v1/itineraries/stream", s.handleStream)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	input, err := s.decode(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	result := s.generator.GenerateItinerary(r.Context(), input.Requirements, runOptions(input)...)
	s.logger.Info("itinerary request served", map[string]interface{}{
		"requestId": input.RequestID,
		"runId":     result.RunID,
		"success":   result.Success,
		"duration":  time.Since(start).String(),
	})
	writeJSON(w, statusFor(result), result)
}

// handleStream sends run events as server-sent events followed by a final result event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	input, err := s.decode(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	send := func(event string, v interface{}) {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		_ = rc.Flush()
	}

	opts := append(runOptions(input), orchestrator.WithEventSink(func(e orchestrator.Event) {
		send(string(e.Type), e)
	}))
	result := s.generator.GenerateItinerary(r.Context(), input.Requirements, opts...)
	send("result", result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) decode(r *http.Request) (*jobworker.Input, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewInvalidRequirementsError([]string{"request body unreadable"})
	}
	input, err := jobworker.ParseInput(body)
	if err != nil {
		return nil, err
	}
	if err := input.Requirements.Validate(); err != nil {
		return nil, err
	}
	return input, nil
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	stdErr := apperrors.Normalize(err)
	s.logger.Warn("request rejected", map[string]interface{}{
		"status":    status,
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
	writeJSON(w, status, map[string]interface{}{"error": stdErr})
}

func runOptions(input *jobworker.Input) []orchestrator.RunOption {
	if input.PersonaHint == nil {
		return nil
	}
	return []orchestrator.RunOption{orchestrator.WithPersonaHint(*input.PersonaHint)}
}

// statusFor maps a finished run onto an HTTP status. Degraded but successful runs are 200.
func statusFor(result *models.OrchestrationResult) int {
	if result.Success {
		return http.StatusOK
	}
	if result.Error == nil {
		return http.StatusInternalServerError
	}
	switch apperrors.ErrorCode(result.Error.Code) {
	case apperrors.ErrCodeInvalidRequirements:
		return http.StatusBadRequest
	case apperrors.ErrCodeRunCancelled, apperrors.ErrCodeWorkerTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeRunFatal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
