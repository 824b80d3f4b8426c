package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"webshell/internal/relay"
	"webshell/internal/session"
	"webshell/internal/transcript"
)

// Reg, Rel, and Rec are set from main.go during init.
var (
	Reg *session.Registry
	Rel *relay.Relay
	Rec *transcript.Recorder
)

// CreateSession registers a new session from connection parameters. The
// transport is not connected until the first WebSocket join.
// POST /api/v1/sessions
func CreateSession(w http.ResponseWriter, r *http.Request) {
	var p session.Params
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := Reg.Create(p)
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": s.ID})
}

// ListSessions returns summaries for all registered sessions.
// GET /api/v1/sessions
func ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": Reg.List(),
	})
}

// GetSession returns one session's summary.
// GET /api/v1/sessions/{id}
func GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s := Reg.Get(id)
	if s == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, s.Summarize())
}

// DeleteSession terminates and removes a session. Idempotent: deleting an
// unknown id still reports success.
// DELETE /api/v1/sessions/{id}
func DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	Rel.Terminate(id, "session terminated")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
