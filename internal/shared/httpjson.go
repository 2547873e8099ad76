package shared

import (
	"encoding/json"
	"net/http"
)

// WriteJSON serializes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteValidationErrors reports rejected rules as data, one message per
// violated rule.
func WriteValidationErrors(w http.ResponseWriter, errs ValidationErrors) {
	WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
}

// WriteError reports a single user-safe message.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]any{"errors": ValidationErrors{{Code: "RequestError", Message: message}}})
}
