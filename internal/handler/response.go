package handler

// RESPONSE HELPERS:
// Every JSON response from the API has the same envelope:
//
//	{"success": true,  "data": ...}
//	{"success": false, "message": "MIT is already saved"}
//
// Some endpoints add fields next to data ("total", "isNewUser", "saved"),
// so the envelope is built from a map rather than a fixed struct.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/college-tracker/internal/apperror"
)

// maxBodyBytes caps request bodies; saved records are small.
const maxBodyBytes = 1 << 20

// envelope is the response body shape shared by all endpoints.
type envelope map[string]any

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set before the body is written: once Encode
// calls w.Write the headers are on the wire.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeSuccess wraps data in a success envelope. extra adds sibling fields.
func writeSuccess(w http.ResponseWriter, status int, data any, extra ...envelope) {
	body := envelope{"success": true}
	if data != nil {
		body["data"] = data
	}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	writeJSON(w, status, body)
}

// writeMessage sends a success envelope with only a message (deletes).
func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": message})
}

// writeError maps a domain error to its status code.
//
// errors.Is walks the whole chain, so a service that wraps an AppError
// with fmt.Errorf("...: %w", err) still maps correctly. Anything without a
// sentinel is a 500 with a generic message: the raw error may contain SQL
// or connection details and is logged by the service instead.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, envelope{
			"success": false,
			"message": "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	}

	message := appErr.Message
	if status == http.StatusInternalServerError {
		message = "An internal error occurred"
	}
	writeJSON(w, status, envelope{"success": false, "message": message})
}

// decodeJSON reads one JSON value from the body into dst. An empty body,
// malformed JSON or an oversized body is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "request body is too large")
		default:
			return apperror.ValidationFailed("body", "invalid JSON body")
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "request body must be a single JSON object")
	}
	return nil
}

// queryInt parses an optional integer query parameter. Missing or
// malformed values are 0, which the catalog treats as "use the default".
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return n
}
