// Package httputil holds the response helpers shared by the debug handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/beholders/benchsweep/internal/monitoring"
)

// WriteJSON writes data as an indented JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		monitoring.Warnf("encode json response: %v", err)
	}
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
