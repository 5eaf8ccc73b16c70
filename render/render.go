// Package render writes the JSON envelopes every endpoint answers with:
// {"success": true, ...payload} or {"success": false, "message": "..."}.
package render

import (
	"encoding/json"
	"net/http"

	"github.com/kevinaaaquil/poems/backend/apperr"
	"github.com/kevinaaaquil/poems/backend/logging"
)

// M is a response payload merged next to "success".
type M map[string]any

// JSON writes payload with success=true.
func JSON(w http.ResponseWriter, status int, payload M) {
	body := M{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	write(w, status, body)
}

// OK is JSON with 200.
func OK(w http.ResponseWriter, payload M) {
	JSON(w, http.StatusOK, payload)
}

// Fail writes {"success": false, "message": msg}.
func Fail(w http.ResponseWriter, status int, msg string) {
	write(w, status, M{"success": false, "message": msg})
}

// Error maps err to its status and client message. Storage failures are
// logged with their cause and answered with the generic server message.
func Error(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindStore && log != nil {
		log.Error(r.Context(), "request failed", "error", e.Err, "method", r.Method, "path", r.URL.Path)
	}
	Fail(w, e.Status(), e.Message)
}

func write(w http.ResponseWriter, status int, body M) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
