// Package http provides HTTP utilities including chi-compatible error handling
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/goalstake/goalstake/pkg/app/errors"
)

// HandlerFunc is an http.HandlerFunc that reports failures through its
// return value instead of writing them inline.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// errorResponse is the JSON body every failed request gets.
type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// HandleError adapts a HandlerFunc for chi, translating a returned error
// into the standard error body via DefaultErrorHandler.
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			DefaultErrorHandler(w, err)
		}
	}
}

// DefaultErrorHandler writes err as an errorResponse. ServiceError values
// carry their own status code; anything else is a 500 with a generic
// message so internals never leak to clients.
func DefaultErrorHandler(w http.ResponseWriter, err error) {
	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		WriteJSON(w, svcErr.StatusCode(), &errorResponse{
			Error: svcErr.Message,
			Code:  svcErr.StatusCode(),
		})
		return
	}

	WriteJSON(w, http.StatusInternalServerError, &errorResponse{
		Error: "Unexpected Service Error",
		Code:  http.StatusInternalServerError,
	})
}

// WriteJSON writes data as a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
