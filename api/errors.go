package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNetwork means the request never completed.
	ErrNetwork = errors.New("network error")
	// ErrInvalidCredentials is returned by Login for any non-2xx answer.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	// ErrMalformed means the response body did not have the expected shape.
	ErrMalformed = errors.New("malformed response")
)

// StatusError is a completed request answered with a non-2xx status.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	}
	return false
}

// ValidationError carries the field errors the API returned for a rejected
// registration.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if msg := e.First(); msg != "" {
		return "validation failed: " + msg
	}
	return "validation failed"
}

// First returns the message to show inline: username first, then email,
// then any other field in name order, then general errors.
func (e *ValidationError) First() string {
	if e == nil {
		return ""
	}
	for _, k := range []string{"username", "email"} {
		if msgs := e.Fields[k]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	general := map[string]bool{"non_field_errors": true, "detail": true}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		if !general[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	keys = append(keys, "non_field_errors", "detail")
	for _, k := range keys {
		if msgs := e.Fields[k]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// parseFieldErrors decodes a DRF style error object. Values may be a list of
// strings or a single string.
func parseFieldErrors(body []byte) (map[string][]string, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		return nil, false
	}
	fields := make(map[string][]string, len(raw))
	for k, v := range raw {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			fields[k] = list
			continue
		}
		var one string
		if err := json.Unmarshal(v, &one); err == nil && strings.TrimSpace(one) != "" {
			fields[k] = []string{one}
		}
	}
	return fields, true
}
