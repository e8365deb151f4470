// Package shared holds the JSON helpers used by all HTTP handlers so error
// envelopes stay consistent across modules.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"wrldrelief/pkg/relieferrors"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a coded domain error into its HTTP response.
// Non-domain errors map to 500 without leaking detail.
func WriteError(w http.ResponseWriter, err error) {
	var de *relieferrors.Error
	if errors.As(err, &de) {
		WriteJSON(w, relieferrors.ToHTTPStatus(de.Code), ErrorResponse{
			Error:   string(de.Code),
			Message: de.Message,
		})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: string(relieferrors.CodeInternal),
	})
}

// DecodeJSON decodes a request body, rejecting malformed payloads uniformly.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return relieferrors.New(relieferrors.CodeInvalidInput, "invalid request body")
	}
	return nil
}
