package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tombola/internal/audit"
	"tombola/internal/raffle/service"
	"tombola/internal/raffle/store"
	drawStore "tombola/internal/raffle/store/draw"
	participantStore "tombola/internal/raffle/store/participant"
	raffleStore "tombola/internal/raffle/store/raffle"
)

func newRaffleRouter(t *testing.T) chi.Router {
	t.Helper()
	svc := service.New(
		raffleStore.NewInMemory(),
		participantStore.NewInMemory(),
		drawStore.NewInMemory(),
		store.NewMemoryTx(),
		service.WithAuditPublisher(audit.NewPublisher(audit.NewInMemoryStore())),
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, logger, nil)
	router := chi.NewRouter()
	h.Register(router)
	return router
}

func doJSON(t *testing.T, router chi.Router, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func createRaffle(t *testing.T, router chi.Router, payload map[string]any) string {
	t.Helper()
	if payload == nil {
		payload = map[string]any{"name": "office raffle"}
	}
	rec := doJSON(t, router, http.MethodPost, "/raffles", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating raffle, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	decode(t, rec, &resp)
	if resp.ID == "" {
		t.Fatalf("expected raffle id in response")
	}
	return resp.ID
}

func registerParticipant(t *testing.T, router chi.Router, raffleID, email, code string) {
	t.Helper()
	payload := map[string]string{"name": "someone", "email": email}
	if code != "" {
		payload["secret_code"] = code
	}
	rec := doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/participants", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRaffleValidation(t *testing.T) {
	router := newRaffleRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/raffles", map[string]any{"name": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", rec.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	decode(t, rec, &errResp)
	if errResp.Error != "validation_error" {
		t.Fatalf("expected validation_error, got %q", errResp.Error)
	}
}

func TestRegistrationFlow(t *testing.T) {
	router := newRaffleRouter(t)
	raffleID := createRaffle(t, router, nil)

	registerParticipant(t, router, raffleID, "ada@example.com", "")

	// Duplicate email conflicts.
	rec := doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/participants",
		map[string]string{"name": "again", "email": "Ada@Example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", rec.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	decode(t, rec, &errResp)
	if errResp.Error != "conflict" {
		t.Fatalf("expected conflict, got %q", errResp.Error)
	}

	// Count shows up on the detail endpoint.
	rec = doJSON(t, router, http.MethodGet, "/raffles/"+raffleID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching raffle, got %d", rec.Code)
	}
	var details struct {
		EffectiveStatus  string `json:"effective_status"`
		ParticipantCount int    `json:"participant_count"`
	}
	decode(t, rec, &details)
	if details.EffectiveStatus != "open" {
		t.Fatalf("expected open raffle, got %q", details.EffectiveStatus)
	}
	if details.ParticipantCount != 1 {
		t.Fatalf("expected 1 participant, got %d", details.ParticipantCount)
	}
}

func TestRegisterUnknownRaffle(t *testing.T) {
	router := newRaffleRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/raffles/"+uuid.NewString()+"/participants",
		map[string]string{"name": "x", "email": "x@example.com"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown raffle, got %d", rec.Code)
	}
}

func TestRegisterBadRaffleID(t *testing.T) {
	router := newRaffleRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/raffles/not-a-uuid/participants",
		map[string]string{"name": "x", "email": "x@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed raffle id, got %d", rec.Code)
	}
}

func TestDrawAndOperatorConfirm(t *testing.T) {
	router := newRaffleRouter(t)
	raffleID := createRaffle(t, router, nil)
	registerParticipant(t, router, raffleID, "a@example.com", "")
	registerParticipant(t, router, raffleID, "b@example.com", "")

	rec := doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/draw", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 drawing, got %d: %s", rec.Code, rec.Body.String())
	}
	var drawResp struct {
		Winner struct {
			ID string `json:"id"`
		} `json:"winner"`
		RemainingEligible int `json:"remaining_eligible"`
		History           []struct {
			DrawNumber int  `json:"draw_number"`
			WasPresent bool `json:"was_present"`
		} `json:"history"`
	}
	decode(t, rec, &drawResp)
	if drawResp.Winner.ID == "" {
		t.Fatalf("expected a winner")
	}
	if drawResp.RemainingEligible != 1 {
		t.Fatalf("expected 1 remaining eligible, got %d", drawResp.RemainingEligible)
	}
	if len(drawResp.History) != 1 || drawResp.History[0].DrawNumber != 1 {
		t.Fatalf("expected history with draw number 1, got %+v", drawResp.History)
	}

	// Registration is blocked while the winner is pending.
	blocked := doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/participants",
		map[string]string{"name": "late", "email": "late@example.com"})
	if blocked.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 registering while winner pending, got %d", blocked.Code)
	}

	// Operator confirm with no body.
	rec = doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/confirm", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 confirming, got %d: %s", rec.Code, rec.Body.String())
	}
	var confirmResp struct {
		Raffle struct {
			Status          string `json:"status"`
			EffectiveStatus string `json:"effective_status"`
		} `json:"raffle"`
		Winner struct {
			ID string `json:"id"`
		} `json:"winner"`
	}
	decode(t, rec, &confirmResp)
	if confirmResp.Raffle.Status != "drawn" || confirmResp.Raffle.EffectiveStatus != "confirmed" {
		t.Fatalf("expected drawn/confirmed, got %+v", confirmResp.Raffle)
	}
	if confirmResp.Winner.ID != drawResp.Winner.ID {
		t.Fatalf("confirmed winner does not match drawn winner")
	}
}

func TestConfirmByCodeFlow(t *testing.T) {
	router := newRaffleRouter(t)
	raffleID := createRaffle(t, router, map[string]any{
		"name":                 "code raffle",
		"require_confirmation": true,
	})
	registerParticipant(t, router, raffleID, "a@example.com", "12345")

	rec := doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/draw", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 drawing, got %d", rec.Code)
	}

	// Wrong code is unauthorized.
	rec = doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/confirm",
		map[string]string{"code": "54321"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong code, got %d", rec.Code)
	}

	// Operator path is rejected while a code is required.
	rec = doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/confirm", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for codeless confirm, got %d", rec.Code)
	}

	// Correct code finalizes.
	rec = doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/confirm",
		map[string]string{"code": "12345"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 confirming with code, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDrawNoParticipants(t *testing.T) {
	router := newRaffleRouter(t)
	raffleID := createRaffle(t, router, nil)

	rec := doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/draw", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 drawing with no participants, got %d", rec.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	decode(t, rec, &errResp)
	if errResp.Error != "no_eligible_participants" {
		t.Fatalf("expected no_eligible_participants, got %q", errResp.Error)
	}
}

func TestReopenAndHistory(t *testing.T) {
	router := newRaffleRouter(t)
	raffleID := createRaffle(t, router, nil)
	registerParticipant(t, router, raffleID, "a@example.com", "")

	if rec := doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/draw", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 drawing, got %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/confirm", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 confirming, got %d", rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/raffles/"+raffleID+"/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching history, got %d", rec.Code)
	}
	var history []struct {
		WasPresent bool `json:"was_present"`
	}
	decode(t, rec, &history)
	if len(history) != 1 || !history[0].WasPresent {
		t.Fatalf("expected one confirmed history entry, got %+v", history)
	}

	rec = doJSON(t, router, http.MethodPost, "/raffles/"+raffleID+"/reopen",
		map[string]bool{"clear_window": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reopening, got %d: %s", rec.Code, rec.Body.String())
	}
	var reopened struct {
		EffectiveStatus string `json:"effective_status"`
		WinnerID        string `json:"winner_id"`
	}
	decode(t, rec, &reopened)
	if reopened.EffectiveStatus != "open" || reopened.WinnerID != "" {
		t.Fatalf("expected reopened raffle with no winner, got %+v", reopened)
	}

	rec = doJSON(t, router, http.MethodGet, "/raffles/"+raffleID+"/history", nil)
	decode(t, rec, &history)
	if len(history) != 0 {
		t.Fatalf("expected cleared history, got %+v", history)
	}
}

func TestPatchStatus(t *testing.T) {
	router := newRaffleRouter(t)
	raffleID := createRaffle(t, router, nil)

	rec := doJSON(t, router, http.MethodPatch, "/raffles/"+raffleID+"/status",
		map[string]string{"status": "closed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 closing, got %d", rec.Code)
	}
	var resp struct {
		Status   string     `json:"status"`
		ClosedAt *time.Time `json:"closed_at"`
	}
	decode(t, rec, &resp)
	if resp.Status != "closed" || resp.ClosedAt == nil {
		t.Fatalf("expected closed raffle with closed_at, got %+v", resp)
	}

	// drawn is not an operator-settable status
	rec = doJSON(t, router, http.MethodPatch, "/raffles/"+raffleID+"/status",
		map[string]string{"status": "drawn"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 patching to drawn, got %d", rec.Code)
	}
}

func TestListRaffles(t *testing.T) {
	router := newRaffleRouter(t)
	createRaffle(t, router, map[string]any{"name": "first"})
	createRaffle(t, router, map[string]any{"name": "second"})

	rec := doJSON(t, router, http.MethodGet, "/raffles", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing, got %d", rec.Code)
	}
	var raffles []struct {
		Name string `json:"name"`
	}
	decode(t, rec, &raffles)
	if len(raffles) != 2 {
		t.Fatalf("expected 2 raffles, got %d", len(raffles))
	}
}
