// Handlers exposing the progress consumer's state to the UI. Live
// updates flow over the websocket; these endpoints cover initial page
// load and the explicit reset button.

package api

import "net/http"

func (s *Server) handleGetProgressState(w http.ResponseWriter, r *http.Request) {
	snap := s.app.Progress().Snapshot()
	RespondWithJSON(w, http.StatusOK, snap.View(s.app.Config().Backend.Origin))
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	s.app.Progress().Reset()
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Progress cleared"})
}
