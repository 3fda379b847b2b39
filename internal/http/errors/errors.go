package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError escribe err en formato OAuth: {"error", "error_description"}.
// Las respuestas de error nunca se cachean.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	w.WriteHeader(appErr.HTTPStatus)

	_ = json.NewEncoder(w).Encode(appErr)
}
