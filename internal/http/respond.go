package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/HelloDanni/billflow/internal/ledger"
)

type errorBody struct {
	Error string `json:"error"`
}

type fieldErrorBody struct {
	Errors []ledger.FieldError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeFieldErrors reports rejected input fields with 422 so clients can
// surface them next to the offending form fields.
func writeFieldErrors(w http.ResponseWriter, errs []ledger.FieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, fieldErrorBody{Errors: errs})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
