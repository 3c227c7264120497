package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Moka-cat/AI-Email-Agent/internal/agent"
	"github.com/Moka-cat/AI-Email-Agent/internal/logging"
)

// Runner is the slice of the workflow engine the HTTP layer needs.
type Runner interface {
	Run(ctx context.Context, content, sender string) (*agent.State, error)
}

// ProcessRequest is the process-email request body.
type ProcessRequest struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Body    string `json:"body"`
}

// ProcessResponse is the process-email response body. Draft is omitted for
// messages that did not take the drafting route.
type ProcessResponse struct {
	EmailID        string  `json:"email_id"`
	Classification string  `json:"classification"`
	Reason         string  `json:"reason"`
	Draft          *string `json:"draft,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the workflow engine as the process-email HTTP entry point.
type Server struct {
	engine Runner
}

// New creates a Server around the given workflow engine.
func New(engine Runner) *Server {
	return &Server{engine: engine}
}

// Handler returns the HTTP routes: the process-email endpoint and a health
// check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/process_email", s.handleProcessEmail)
	mux.HandleFunc("GET /health", handleHealth)
	return mux
}

func (s *Server) handleProcessEmail(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	locallog := logging.Log.WithField("email_id", req.ID)
	locallog.Infof("Received email: %q from %s", req.Subject, req.Sender)

	state, err := s.engine.Run(r.Context(), req.Body, req.Sender)
	if err != nil {
		locallog.WithError(err).Error("Workflow failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		EmailID:        req.ID,
		Classification: string(state.Classification),
		Reason:         state.Reason,
		Draft:          state.DraftReply,
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Log.WithError(err).Error("Error writing response")
	}
}
