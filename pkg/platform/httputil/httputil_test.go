package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "kycdesk/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("validation error includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "facial image is required"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "validation_error" {
			t.Fatalf("expected error code validation_error, got %q", body["error"])
		}
		if body["error_description"] != "facial image is required" {
			t.Fatalf("expected error_description to be returned for validation errors")
		}
	})

	t.Run("verification failure maps to bad gateway", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeVerificationFailed, "face comparison unavailable"))
		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected status %d, got %d", http.StatusBadGateway, w.Code)
		}
	})
}

type prepReq struct {
	Name string `json:"name"`
}

func (r *prepReq) Normalize() { r.Name = strings.TrimSpace(r.Name) }

func (r *prepReq) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("normalizes valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"  Ada  "}`))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[prepReq](w, r, logger, context.Background(), "req-1")
		if !ok {
			t.Fatalf("expected decode to succeed, got status %d", w.Code)
		}
		if req.Name != "Ada" {
			t.Fatalf("expected trimmed name, got %q", req.Name)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"Ada","extra":1}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[prepReq](w, r, logger, context.Background(), "req-2")
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown field, got %d", w.Code)
		}
	})

	t.Run("writes validation error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"   "}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[prepReq](w, r, logger, context.Background(), "req-3")
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for blank name, got %d", w.Code)
		}
	})
}
