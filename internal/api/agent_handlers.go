// Handlers that pass UI requests through to the agent backend.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/aliveriver/ConvertAgent/internal/store"
)

// InitPayload is the expected body for initializing the backend agent.
type InitPayload struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

func (s *Server) handleAgentInit(w http.ResponseWriter, r *http.Request) {
	var payload InitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.APIKey == "" {
		RespondWithError(w, http.StatusBadRequest, "An API key is required")
		return
	}

	if err := s.app.Agent().Init(r.Context(), payload.Provider, payload.APIKey); err != nil {
		RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	// The provider choice survives restarts; the key does not.
	if payload.Provider != "" {
		if err := s.store.SetSetting(store.SettingProvider, payload.Provider); err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to persist provider setting")
			return
		}
	}

	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Agent initialized"})
}

func (s *Server) handleAgentProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.app.Agent().Providers(r.Context())
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, providers)
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.app.Agent().Status(r.Context())
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, status)
}
