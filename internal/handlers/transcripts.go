package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"webshell/internal/transcript"
)

// ListTranscripts returns transcript metadata, most recently updated first.
// GET /api/v1/transcripts
func ListTranscripts(w http.ResponseWriter, r *http.Request) {
	records, err := Rec.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transcripts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transcripts": records,
	})
}

// GetTranscriptRaw returns the raw event log.
// GET /api/v1/transcripts/{id}/raw
func GetTranscriptRaw(w http.ResponseWriter, r *http.Request) {
	serveTranscript(w, r, Rec.Raw)
}

// GetTranscriptClean returns the human-readable command/response view.
// GET /api/v1/transcripts/{id}/clean
func GetTranscriptClean(w http.ResponseWriter, r *http.Request) {
	serveTranscript(w, r, Rec.Clean)
}

// GetTranscriptReplay returns the terminal-replay view.
// GET /api/v1/transcripts/{id}/replay
func GetTranscriptReplay(w http.ResponseWriter, r *http.Request) {
	serveTranscript(w, r, Rec.Replay)
}

func serveTranscript(w http.ResponseWriter, r *http.Request, read func(string) (string, error)) {
	id := chi.URLParam(r, "id")
	content, err := read(id)
	if err != nil {
		if errors.Is(err, transcript.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transcript not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to read transcript")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(content))
}

// DeleteTranscript removes the transcript log and its index record.
// DELETE /api/v1/transcripts/{id}
func DeleteTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := Rec.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete transcript")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
