// Package httpapi exposes the control surface: POST /reset and /step drive
// episodes, GET /info and /health describe the service. Requests and
// responses are JSON; failures carry a stable machine-readable code.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"gravitybench.ai/internal/protocol"
	"gravitybench.ai/internal/session"
)

type Server struct {
	log      *log.Logger
	registry *session.Registry
	started  time.Time
}

func NewServer(logger *log.Logger, registry *session.Registry) *Server {
	return &Server{log: logger, registry: registry, started: time.Now()}
}

// Register mounts the API routes onto the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/step", s.handleStep)
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/health", s.handleHealth)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, protocol.ResetResponse{
			Success: false, Error: "POST required", Code: protocol.ErrBadRequest,
		})
		return
	}
	var req protocol.ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.ResetResponse{
			Success: false, Error: "malformed request body", Code: protocol.ErrBadRequest,
		})
		return
	}

	id, obs, err := s.registry.Reset(req.SessionID, req.Config)
	if err != nil {
		status, code := classify(err)
		writeJSON(w, status, protocol.ResetResponse{
			Success: false, Error: err.Error(), Code: code,
		})
		return
	}
	writeJSON(w, http.StatusOK, protocol.ResetResponse{
		Success:     true,
		SessionID:   id,
		Observation: protocol.Observation(obs),
	})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, protocol.StepResponse{
			Success: false, Error: "POST required", Code: protocol.ErrBadRequest,
		})
		return
	}
	var req protocol.StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.StepResponse{
			Success: false, Error: "malformed request body", Code: protocol.ErrBadRequest,
		})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, protocol.StepResponse{
			Success: false, Error: "sessionId required", Code: protocol.ErrBadRequest,
		})
		return
	}

	scale := 1.0
	if req.DurationScale != nil {
		scale = *req.DurationScale
	}
	res, err := s.registry.Step(req.SessionID, req.Action, scale)
	if err != nil {
		status, code := classify(err)
		writeJSON(w, status, protocol.StepResponse{
			Success: false, Error: err.Error(), Code: code,
		})
		return
	}
	writeJSON(w, http.StatusOK, protocol.StepResponse{
		Success:     true,
		Observation: protocol.Observation(res.Observation),
		Reward:      res.Reward,
		Done:        res.Done,
		Info: &protocol.StepInfo{
			Step:            res.Info.Step,
			TaskSuccess:     res.Info.Success,
			Reason:          res.Info.Reason,
			TotalReward:     res.Info.TotalReward,
			StepsBeyondDone: res.Info.StepsBeyondDone,
		},
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	d := s.registry.Defaults()
	resp := protocol.InfoResponse{
		ProtocolVersion: protocol.Version,
		Defaults: protocol.InfoDefaults{
			Gravity:      d.Gravity,
			MaxSteps:     d.MaxSteps,
			TicksPerStep: d.TicksPerStep,
			TimeStep:     d.TimeStep,
		},
	}
	for _, desc := range s.registry.Tasks().Describe() {
		resp.Tasks = append(resp.Tasks, protocol.TaskInfo{
			Task:     desc.Kind,
			Versions: desc.Versions,
			Actions:  desc.Actions,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.HealthResponse{
		Status:       "ok",
		LiveSessions: s.registry.Count(),
		UptimeSec:    int64(time.Since(s.started).Seconds()),
	})
}

// classify maps registry errors to an HTTP status and protocol code.
func classify(err error) (int, string) {
	var cfgErr *session.ConfigError
	var actErr *session.BadActionError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, protocol.ErrConfig
	case errors.As(err, &actErr):
		return http.StatusBadRequest, protocol.ErrBadAction
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, protocol.ErrSessionNotFound
	default:
		return http.StatusInternalServerError, protocol.ErrInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
