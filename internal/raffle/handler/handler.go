// Package handler exposes the raffle lifecycle over HTTP.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tombola/internal/raffle/metrics"
	"tombola/internal/raffle/models"
	"tombola/internal/raffle/service"
	id "tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/httputil"
	"tombola/pkg/requestcontext"
)

// Service defines the interface for raffle operations.
type Service interface {
	Create(ctx context.Context, params service.CreateRaffleParams) (*models.Raffle, error)
	Get(ctx context.Context, raffleID id.RaffleID) (*service.RaffleDetails, error)
	List(ctx context.Context) ([]*models.Raffle, error)
	Register(ctx context.Context, raffleID id.RaffleID, name, email, code string) (*models.Participant, error)
	Draw(ctx context.Context, raffleID id.RaffleID, trigger string) (*service.DrawResult, error)
	Confirm(ctx context.Context, raffleID id.RaffleID) (*service.ConfirmResult, error)
	ConfirmByCode(ctx context.Context, raffleID id.RaffleID, code string) (*service.ConfirmResult, error)
	Reopen(ctx context.Context, raffleID id.RaffleID, clearWindow bool) (*models.Raffle, error)
	PatchStatus(ctx context.Context, raffleID id.RaffleID, status models.Status) (*models.Raffle, error)
	Participants(ctx context.Context, raffleID id.RaffleID) ([]*models.Participant, error)
	History(ctx context.Context, raffleID id.RaffleID) ([]*models.DrawEntry, error)
}

// Handler wires raffle endpoints to the raffle service.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a raffle handler with its dependencies.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts raffle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/raffles", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{raffleID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Post("/participants", h.HandleRegister)
			r.Get("/participants", h.HandleParticipants)
			r.Post("/draw", h.HandleDraw)
			r.Post("/confirm", h.HandleConfirm)
			r.Post("/reopen", h.HandleReopen)
			r.Patch("/status", h.HandlePatchStatus)
			r.Get("/history", h.HandleHistory)
		})
	})
}

func (h *Handler) raffleID(w http.ResponseWriter, r *http.Request) (id.RaffleID, bool) {
	raffleID, err := id.ParseRaffleID(chi.URLParam(r, "raffleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RaffleID{}, false
	}
	return raffleID, true
}

// HandleCreate handles POST /raffles requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRaffleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	raffle, err := h.service.Create(ctx, service.CreateRaffleParams{
		Name:                       req.Name,
		Prize:                      req.Prize,
		Description:                req.Description,
		AllowedDomain:              req.AllowedDomain,
		StartsAt:                   req.StartsAt,
		EndsAt:                     req.EndsAt,
		RequireConfirmation:        req.RequireConfirmation,
		ConfirmationTimeoutMinutes: req.ConfirmationTimeoutMinutes,
		AutoDrawOnEnd:              req.AutoDrawOnEnd,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "raffle created",
		"request_id", requestID,
		"raffle_id", raffle.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRaffle(raffle, requestcontext.Now(ctx)))
}

// HandleList handles GET /raffles requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raffles, err := h.service.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	now := requestcontext.Now(ctx)
	out := make([]*RaffleResponse, 0, len(raffles))
	for _, raffle := range raffles {
		out = append(out, FromRaffle(raffle, now))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /raffles/{raffleID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raffleID, ok := h.raffleID(w, r)
	if !ok {
		return
	}

	details, err := h.service.Get(ctx, raffleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDetails(details, requestcontext.Now(ctx)))
}

// HandleRegister handles POST /raffles/{raffleID}/participants requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	raffleID, ok := h.raffleID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	participant, err := h.service.Register(ctx, raffleID, req.Name, req.Email, req.SecretCode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "participant registered",
		"request_id", requestID,
		"raffle_id", raffleID,
		"participant_id", participant.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromParticipant(participant))
}

// HandleParticipants handles GET /raffles/{raffleID}/participants requests.
func (h *Handler) HandleParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raffleID, ok := h.raffleID(w, r)
	if !ok {
		return
	}

	participants, err := h.service.Participants(ctx, raffleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]*ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, FromParticipant(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleDraw handles POST /raffles/{raffleID}/draw requests.
func (h *Handler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	raffleID, ok := h.raffleID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Draw(ctx, raffleID, service.TriggerOperator)
	if err != nil {
		h.logger.WarnContext(ctx, "draw failed",
			"request_id", requestID,
			"raffle_id", raffleID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "draw performed",
		"request_id", requestID,
		"raffle_id", raffleID,
		"winner_id", result.Winner.ID,
		"draw_number", len(result.History),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromDrawResult(result))
}

// HandleConfirm handles POST /raffles/{raffleID}/confirm requests. A body
// with a code takes the winner's self-confirmation path; an empty body is the
// operator finalizing a raffle that needs no code.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	raffleID, ok := h.raffleID(w, r)
	if !ok {
		return
	}
	code, ok := h.decodeConfirmCode(w, r, ctx, requestID)
	if !ok {
		return
	}

	var result *service.ConfirmResult
	var err error
	if code != "" {
		result, err = h.service.ConfirmByCode(ctx, raffleID, code)
	} else {
		result, err = h.service.Confirm(ctx, raffleID)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "confirmation failed",
			"request_id", requestID,
			"raffle_id", raffleID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "winner confirmed",
		"request_id", requestID,
		"raffle_id", raffleID,
		"winner_id", result.Participant.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromConfirmResult(result, requestcontext.Now(ctx)))
}

// decodeConfirmCode reads the optional confirm body. A missing body means the
// operator path; the code itself is never logged.
func (h *Handler) decodeConfirmCode(w http.ResponseWriter, r *http.Request, ctx context.Context, requestID string) (string, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "request body read failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return "", false
	}
	if len(body) == 0 {
		return "", true
	}
	req, ok := httputil.DecodeAndPrepareBytes[ConfirmRequest](w, body, h.logger, ctx, requestID)
	if !ok {
		return "", false
	}
	return req.Code, true
}

// HandleReopen handles POST /raffles/{raffleID}/reopen requests.
func (h *Handler) HandleReopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	raffleID, ok := h.raffleID(w, r)
	if !ok {
		return
	}

	clearWindow := false
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[ReopenRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		clearWindow = req.ClearWindow
	}

	raffle, err := h.service.Reopen(ctx, raffleID, clearWindow)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "raffle reopened",
		"request_id", requestID,
		"raffle_id", raffleID,
		"clear_window", clearWindow,
	)
	httputil.WriteJSON(w, http.StatusOK, FromRaffle(raffle, requestcontext.Now(ctx)))
}

// HandlePatchStatus handles PATCH /raffles/{raffleID}/status requests.
func (h *Handler) HandlePatchStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	raffleID, ok := h.raffleID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PatchStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	raffle, err := h.service.PatchStatus(ctx, raffleID, req.ParsedStatus())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "raffle status patched",
		"request_id", requestID,
		"raffle_id", raffleID,
		"status", string(raffle.Status),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRaffle(raffle, requestcontext.Now(ctx)))
}

// HandleHistory handles GET /raffles/{raffleID}/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raffleID, ok := h.raffleID(w, r)
	if !ok {
		return
	}

	history, err := h.service.History(ctx, raffleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]*DrawEntryResponse, 0, len(history))
	for _, entry := range history {
		out = append(out, FromEntry(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
