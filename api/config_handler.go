// Package api: configuration endpoints.
package api

import (
	"net/http"

	"github.com/seenimoa/pynvestor/internal/config"
	"github.com/seenimoa/pynvestor/internal/view"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config   config.Config `json:"config"`
	Bindings view.Bindings `json:"bindings"`
}

// handleGetConfig returns the running configuration with secrets masked.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:   s.cfg.Redacted(),
			Bindings: s.bind,
		},
	})
}

// handleGetConfigKeys returns the status of every secret.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckKeys(s.cfg),
	})
}
