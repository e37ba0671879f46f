package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/vireopay/agentdesk/api/models"
	"github.com/vireopay/agentdesk/internal/router"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "message must not be empty", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(req.Message) > models.MaxMessageLength {
		http.Error(w, fmt.Sprintf("message exceeds %d characters", models.MaxMessageLength), http.StatusBadRequest)
		return
	}

	slog.Debug("Received query request", "user_id", req.UserID, "debug", req.Debug)

	result := s.router.Route(r.Context(), router.Query{
		Message: req.Message,
		UserID:  strings.TrimSpace(req.UserID),
		Debug:   req.Debug,
	})

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.router.Capabilities())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}
