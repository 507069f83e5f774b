package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aar-healthcare/medbot/application/service"
	"github.com/aar-healthcare/medbot/domain/clinic"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError(404, "resource not found", nil)

	if err.Code() != 404 {
		t.Errorf("Code() = %v, want 404", err.Code())
	}
	if err.Message() != "resource not found" {
		t.Errorf("Message() = %v, want 'resource not found'", err.Message())
	}

	expected := "api error 404: resource not found"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAPIError_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewAPIError(500, "internal error", cause)

	expected := "api error 500: internal error: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestAPIError_CanBeWrapped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewAPIError(409, "conflict", nil))

	var target *APIError
	if !errors.As(wrapped, &target) {
		t.Fatal("should be able to extract APIError with errors.As")
	}
	if target.Code() != 409 {
		t.Errorf("Code() = %v, want 409", target.Code())
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"api error", NewAPIError(http.StatusTeapot, "short and stout", nil), http.StatusTeapot, "short and stout"},
		{"invalid location", fmt.Errorf("parse: %w", clinic.ErrInvalidLocation), http.StatusBadRequest, InvalidLocationMessage},
		{"closed", service.ErrClientClosed, http.StatusServiceUnavailable, "Service is shutting down."},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "Request body too large."},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/find-clinics", nil)
			w := httptest.NewRecorder()

			WriteError(w, req, tt.err, nil)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			var body ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.message {
				t.Errorf("error = %q, want %q", body.Error, tt.message)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Body.String(); got != "{\"status\":\"ok\"}\n" {
		t.Errorf("body = %q", got)
	}
}
