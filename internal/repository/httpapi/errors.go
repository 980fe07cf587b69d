package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docvault/internal/apperror"
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// operation names a repository call and the message shown when the server
// gives none.
type operation struct {
	name      string
	fallback  string
	forbidden string
}

var (
	opList           = operation{name: "documents.list", fallback: "Failed to fetch documents"}
	opListByCategory = operation{name: "documents.list_by_category", fallback: "Failed to fetch documents"}
	opUpload         = operation{name: "documents.upload", fallback: "Failed to upload document"}
	opUpdate         = operation{name: "documents.update", fallback: "Failed to update document"}
	opDelete         = operation{name: "documents.delete", fallback: "Failed to delete document"}
	opDownload       = operation{
		name:      "documents.download",
		fallback:  "Download failed",
		forbidden: "You don't have permission to download this file",
	}
	opLogin    = operation{name: "auth.login", fallback: "Login failed"}
	opRegister = operation{name: "auth.register", fallback: "Registration failed"}
)

// errorBody covers the shapes the backend uses for failures:
//
//	{"message": "..."}
//	{"error": "..."}
//	{"request_id": "...", "error": {"code": "...", "message": "..."}}
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func (b errorBody) text() string {
	if msg := strings.TrimSpace(b.Message); msg != "" {
		return msg
	}
	if len(b.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Error, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b.Error, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

func kindForStatus(status int) apperror.Kind {
	switch status {
	case http.StatusUnauthorized:
		return apperror.KindAuthenticationRequired
	case http.StatusForbidden:
		return apperror.KindPermissionDenied
	case http.StatusNotFound:
		return apperror.KindNotFound
	default:
		return apperror.KindServerError
	}
}

// errorFor builds the normalized error for a non-2xx response.
func (op operation) errorFor(resp *http.Response) *apperror.Error {
	kind := kindForStatus(resp.StatusCode)
	cause := fmt.Errorf("%s: unexpected status %d", op.name, resp.StatusCode)

	message := op.fallback
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(raw) > 0 {
		var body errorBody
		if jsonErr := json.Unmarshal(raw, &body); jsonErr == nil {
			if text := body.text(); text != "" {
				message = text
			}
		}
	}
	if kind == apperror.KindPermissionDenied && op.forbidden != "" {
		message = op.forbidden
	}

	return &apperror.Error{
		Kind:    kind,
		Op:      op.name,
		Message: message,
		Status:  resp.StatusCode,
		Err:     cause,
	}
}

// decodeError reports a 2xx response whose body could not be understood.
func (op operation) decodeError(err error) *apperror.Error {
	return apperror.Wrap(apperror.KindTransportFailure, op.name, op.fallback, fmt.Errorf("decode response: %w", err))
}
