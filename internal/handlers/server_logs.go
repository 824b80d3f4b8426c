package handlers

import (
	"net/http"
	"strconv"

	"webshell/internal/logging"
)

// ServerLogs returns the last n lines of the server log file.
// GET /api/v1/server/logs?lines=200
func ServerLogs(w http.ResponseWriter, r *http.Request) {
	n := 200
	if v := r.URL.Query().Get("lines"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid lines parameter")
			return
		}
		if parsed > 10000 {
			parsed = 10000
		}
		n = parsed
	}

	content, err := logging.ReadTail(n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read logs")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(content))
}

// ClearServerLogs truncates the server log file.
// DELETE /api/v1/server/logs
func ClearServerLogs(w http.ResponseWriter, r *http.Request) {
	if err := logging.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
