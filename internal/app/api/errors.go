package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const genericErrorMessage = "An error occurred"

// nonFieldKey holds form-wide validation errors in the backend's error bodies.
const nonFieldKey = "non_field_errors"

// DeriveMessage turns a failed response into one human-readable line.
//
// Precedence: a string "detail" field, a string "message" field, the
// per-field error lists ("field: a, b" joined by "; ", fields sorted), a
// bare list of strings, and finally the HTTP status text.
func DeriveMessage(status int, statusText string, body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		if msg := stringField(obj, "detail"); msg != "" {
			return msg
		}
		if msg := stringField(obj, "message"); msg != "" {
			return msg
		}
		if msg := fieldErrors(obj); msg != "" {
			return msg
		}
	} else {
		var list []string
		if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
			return strings.Join(list, ", ")
		}
	}

	if text := strings.TrimSpace(statusText); text != "" {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return genericErrorMessage
}

func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func fieldErrors(obj map[string]json.RawMessage) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var list []string
		if err := json.Unmarshal(obj[k], &list); err != nil || len(list) == 0 {
			continue
		}
		if k == nonFieldKey {
			parts = append(parts, strings.Join(list, ", "))
			continue
		}
		parts = append(parts, k+": "+strings.Join(list, ", "))
	}

	return strings.Join(parts, "; ")
}

// statusText strips the numeric code from a status line ("401 Unauthorized" → "Unauthorized").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
