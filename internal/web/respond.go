package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

const maxJSONBody = 1 << 20

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// internalError logs err and writes a generic 500.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	apiError(w, "internal error", http.StatusInternalServerError)
}

// decodeJSON reads a JSON request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// readBody returns the raw request body, bounded by maxJSONBody.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

// requiredParam returns the trimmed query parameter name, writing a 400
// when it is missing.
func requiredParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		apiError(w, name+" is required", http.StatusBadRequest)
		return "", false
	}
	return v, true
}

// intParam parses a required integer query parameter.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, ok := requiredParam(w, r, name)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		apiError(w, name+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// logWarn records a non-fatal failure that happened after the response
// outcome was decided.
func logWarn(r *http.Request, msg string, err error, args ...any) {
	slog.WarnContext(r.Context(), msg, append([]any{"error", err}, args...)...)
}
