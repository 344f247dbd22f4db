package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxJSONBody caps request bodies read by DecodeJSON.
const MaxJSONBody = 1 << 20

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// MessageBody is the JSON shape of acknowledgement responses.
type MessageBody struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteRawJSON writes an already encoded JSON document, typically one
// served from the cache.
func WriteRawJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, ErrorBody{Error: msg})
}

// WriteErrorDetails writes {"error": msg, "details": details}.
func WriteErrorDetails(w http.ResponseWriter, code int, msg string, details any) {
	WriteJSON(w, code, ErrorBody{Error: msg, Details: details})
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, MessageBody{Message: msg})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ErrBadJSON wraps every DecodeJSON failure.
var ErrBadJSON = errors.New("httpx: malformed json body")

// DecodeJSON reads a single JSON object from r into dst. Unknown fields are
// ignored, trailing data is not.
func DecodeJSON(r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("%w: content type %q", ErrBadJSON, ct)
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrBadJSON)
	}
	return nil
}
