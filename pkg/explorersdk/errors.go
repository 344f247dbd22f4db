package explorersdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("explorer api: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	var envelope struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
		apiErr.Details = envelope.Details
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
