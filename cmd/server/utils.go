package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lychee-technology/eav"
)

// APIResponse is the standard response format
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeStoreError stringifies a store error and picks the status from its kind.
func writeStoreError(w http.ResponseWriter, err error) error {
	kind := eav.KindOf(err)
	return writeJSON(w, statusForKind(kind), APIResponse{
		Success: false,
		Error:   err.Error(),
		Kind:    string(kind),
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

func statusForKind(kind eav.ErrorType) int {
	switch kind {
	case eav.ErrorTypeNotFound:
		return http.StatusNotFound
	case eav.ErrorTypeTypeMismatch, eav.ErrorTypeInvalidOperator, eav.ErrorTypeValidation:
		return http.StatusBadRequest
	case eav.ErrorTypeNotConnected, eav.ErrorTypeConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseID reads a positive int64 path parameter.
func parseID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// parsePage returns the page query parameter, defaulting to 1. Values below 1
// are passed through so the store reports them.
func parsePage(q url.Values) (int, error) {
	raw := q.Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid page: %q", raw)
	}
	return page, nil
}

func parseBool(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return b, nil
}

// parseIDList reads repeated or comma separated ids, e.g. ?ids=1,2&ids=5.
func parseIDList(q url.Values, name string) ([]int64, error) {
	var ids []int64
	for _, raw := range q[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s entry: %q", name, part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
