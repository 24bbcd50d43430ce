// Package webapi holds the HTTP plumbing shared by all endpoint handlers:
// the {success, message, data?} response envelope, bounded JSON decoding,
// bearer-token extraction and client address resolution.
package webapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// WriteSuccess writes a 200 success envelope.
func WriteSuccess(w http.ResponseWriter, message string, data any) {
	writeEnvelope(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// WriteFailure writes a failure envelope with the given status.
func WriteFailure(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, Envelope{Success: false, Message: message})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// DecodeJSON decodes a single JSON value from the request body into dst,
// bounded by maxBytes. Unknown fields are tolerated (the admin UI sends
// evolving payloads); trailing garbage is not.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
