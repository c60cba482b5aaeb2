package handler

import "net/http"

// HandleHealth is a liveness probe.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
