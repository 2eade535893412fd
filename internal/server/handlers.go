package server

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/me/agentpool/pkg/model"
)

const defaultListLimit = 20

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "agentpool API",
		Version:     "v1",
		Description: "agentpool — backlog-driven machine autoscaler for CI agents",
		Endpoints: []endpointInfo{
			{"/api/v1/status", []string{"GET"}, "Current world view and pause state"},
			{"/api/v1/ticks", []string{"GET"}, "Recent reconciliation ticks (?limit=)"},
			{"/api/v1/commands", []string{"GET"}, "Recently issued start/stop commands (?limit=)"},
			{"/api/v1/pause", []string{"POST"}, "Suspend decision-making (observation continues)"},
			{"/api/v1/resume", []string{"POST"}, "Resume decision-making"},
			{"/api/v1/health", []string{"GET"}, "Daemon health and version"},
		},
	})
}

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Loop      string `json:"loop"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	loopState := "running"
	if s.loop.Paused() {
		loopState = "paused"
	}

	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		Version:   "0.1.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Loop:      loopState,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, model.StatusReport{
		View:   s.loop.View(),
		Paused: s.loop.Paused(),
	})
}

func (s *Server) handleListTicks(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	ticks, err := s.store.ListTicks(r.Context(), listLimit(r))
	if err != nil {
		s.logger.Error("list ticks", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError("list ticks failed"))
		return
	}
	if ticks == nil {
		ticks = []*model.TickRecord{}
	}
	respondOK(w, reqID, ticks)
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	cmds, err := s.store.ListCommands(r.Context(), listLimit(r))
	if err != nil {
		s.logger.Error("list commands", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError("list commands failed"))
		return
	}
	if cmds == nil {
		cmds = []*model.Command{}
	}
	respondOK(w, reqID, cmds)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	s.loop.Pause()
	s.logger.Info("decisions paused", "request_id", reqID)
	respondOK(w, reqID, map[string]bool{"paused": true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	s.loop.Resume()
	s.logger.Info("decisions resumed", "request_id", reqID)
	respondOK(w, reqID, map[string]bool{"paused": false})
}

// listLimit parses ?limit=, clamped to [1, 100].
func listLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}
