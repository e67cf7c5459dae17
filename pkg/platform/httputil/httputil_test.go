package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "tombola/pkg/domain-errors"
)

func TestToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeNotFound:               http.StatusNotFound,
		dErrors.CodeInvalidState:           http.StatusBadRequest,
		dErrors.CodeValidation:             http.StatusBadRequest,
		dErrors.CodeConflict:               http.StatusBadRequest,
		dErrors.CodeNoEligibleParticipants: http.StatusBadRequest,
		dErrors.CodeBadRequest:             http.StatusBadRequest,
		dErrors.CodeInvalidCredential:      http.StatusUnauthorized,
		dErrors.CodeInternal:               http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Errorf("ToHTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeConflict, "email is already registered"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Error != "conflict" || resp.ErrorDescription != "email is already registered" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to scan row"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "scan row") || strings.Contains(body, "EOF") {
		t.Fatalf("internal details leaked: %s", body)
	}
}

type testRequest struct {
	Name string `json:"name"`
}

func (r *testRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
		rec := httptest.NewRecorder()
		parsed, ok := DecodeAndPrepare[testRequest](rec, req, logger, req.Context(), "rid")
		if !ok || parsed.Name != "ok" {
			t.Fatalf("expected decoded request, got ok=%v parsed=%+v", ok, parsed)
		}
	})

	t.Run("malformed json is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		rec := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[testRequest](rec, req, logger, req.Context(), "rid"); ok {
			t.Fatalf("expected failure")
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("validation failure writes the domain error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[testRequest](rec, req, logger, req.Context(), "rid"); ok {
			t.Fatalf("expected failure")
		}
		if !strings.Contains(rec.Body.String(), "validation_error") {
			t.Fatalf("expected validation_error, got %s", rec.Body.String())
		}
	})
}
