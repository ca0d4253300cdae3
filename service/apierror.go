package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// genericFailureMessage is shown when the server gave no usable detail.
const genericFailureMessage = "Something went wrong, please try again."

// APIError is returned when the booking API responds with a non-2xx status.
// Detail holds the flattened server-provided message when one was present.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Detail     string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "playtime api error"
	}
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("playtime api error: %s", e.Status)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// UserMessage extracts the display string for any failure: the server detail
// verbatim when present, a generic fallback otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return genericFailureMessage
}

// flattenDetail folds the FastAPI-style detail payload into a single display
// string. The field may be a string, an object, or an array of validation
// error objects.
func flattenDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(envelope.Detail, &asString); err == nil {
		return strings.TrimSpace(asString)
	}

	var asObject map[string]any
	if err := json.Unmarshal(envelope.Detail, &asObject); err == nil {
		return detailEntryMessage(asObject)
	}

	var asList []map[string]any
	if err := json.Unmarshal(envelope.Detail, &asList); err == nil {
		var parts []string
		for _, entry := range asList {
			if msg := detailEntryMessage(entry); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	return ""
}

func detailEntryMessage(entry map[string]any) string {
	msg, _ := entry["msg"].(string)
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	if field := detailEntryField(entry); field != "" {
		return fmt.Sprintf("%s: %s", field, msg)
	}
	return msg
}

func detailEntryField(entry map[string]any) string {
	loc, ok := entry["loc"].([]any)
	if !ok || len(loc) == 0 {
		return ""
	}
	last := loc[len(loc)-1]
	switch v := last.(type) {
	case string:
		if v == "body" {
			return ""
		}
		return v
	case float64:
		return ""
	default:
		return ""
	}
}
