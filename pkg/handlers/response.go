package handlers

import (
	"encoding/json"
	"net/http"
)

// Envelope is the success wrapper for query responses.
type Envelope struct {
	Success      bool   `json:"success"`
	Result       any    `json:"result"`
	ResponseTime int    `json:"responseTime"`
	CacheHit     bool   `json:"cacheHit"`
	QueryType    string `json:"queryType,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
