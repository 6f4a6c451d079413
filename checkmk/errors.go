package checkmk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a CheckMK REST problem document. Fields carries per-field
// validation messages for 400-class responses.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	Fields     map[string]any
}

func (e *APIError) Error() string {
	title := e.Title
	if title == "" {
		title = http.StatusText(e.StatusCode)
	}
	if e.Detail != "" {
		return fmt.Sprintf("checkmk: %d %s: %s", e.StatusCode, title, e.Detail)
	}
	return fmt.Sprintf("checkmk: %d %s", e.StatusCode, title)
}

// IsNotFound reports whether the error is a 404 response.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// FormatDetail renders the problem document as markdown, including any
// per-field validation errors.
func (e *APIError) FormatDetail() string {
	parts := []string{fmt.Sprintf("**%s**", e.titleOrStatus())}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	for field, errs := range e.Fields {
		switch errs := errs.(type) {
		case []any:
			msgs := make([]string, len(errs))
			for i, m := range errs {
				msgs[i] = fmt.Sprint(m)
			}
			parts = append(parts, fmt.Sprintf("- `%s`: %s", field, strings.Join(msgs, ", ")))
		default:
			parts = append(parts, fmt.Sprintf("- `%s`: %v", field, errs))
		}
	}
	return strings.Join(parts, "\n")
}

func (e *APIError) titleOrStatus() string {
	if e.Title != "" {
		return e.Title
	}
	return http.StatusText(e.StatusCode)
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var doc struct {
		Title  string         `json:"title"`
		Detail string         `json:"detail"`
		Fields map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(body, &doc); err == nil {
		apiErr.Title = doc.Title
		apiErr.Detail = doc.Detail
		apiErr.Fields = doc.Fields
	} else if len(body) > 0 {
		// Non-JSON error bodies (proxies, auth walls) still carry signal.
		detail := string(body)
		if len(detail) > 500 {
			detail = detail[:500]
		}
		apiErr.Detail = detail
	}
	return apiErr
}
