package handler

import (
	"encoding/json"
	"net/http"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CallableRequest wraps callable arguments.
type CallableRequest[T any] struct {
	Data T `json:"data"`
}

// CallableResponse wraps a callable result.
type CallableResponse[T any] struct {
	Result T `json:"result"`
}

// CallableErrorEnvelope wraps a callable failure.
type CallableErrorEnvelope struct {
	Error CallableError `json:"error"`
}

type CallableError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TransactionsEnvelope wraps transaction list responses.
type TransactionsEnvelope[T any] struct {
	Data []T `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
