package handler

import (
	"time"

	"tombola/internal/raffle/models"
	"tombola/internal/raffle/service"
)

// RaffleResponse is the HTTP representation of a raffle, always carrying the
// effective status a caller should act on rather than the raw persisted one.
type RaffleResponse struct {
	ID                         string     `json:"id"`
	Name                       string     `json:"name"`
	Prize                      string     `json:"prize,omitempty"`
	Description                string     `json:"description,omitempty"`
	AllowedDomain              string     `json:"allowed_domain,omitempty"`
	StartsAt                   *time.Time `json:"starts_at,omitempty"`
	EndsAt                     *time.Time `json:"ends_at,omitempty"`
	RequireConfirmation        bool       `json:"require_confirmation"`
	ConfirmationTimeoutMinutes int        `json:"confirmation_timeout_minutes"`
	AutoDrawOnEnd              bool       `json:"auto_draw_on_end"`
	Status                     string     `json:"status"`
	EffectiveStatus            string     `json:"effective_status"`
	WinnerID                   string     `json:"winner_id,omitempty"`
	ClosedAt                   *time.Time `json:"closed_at,omitempty"`
	CreatedAt                  time.Time  `json:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at"`
}

// FromRaffle converts a domain raffle to an HTTP response, projecting the
// effective status at time now.
func FromRaffle(r *models.Raffle, now time.Time) *RaffleResponse {
	resp := &RaffleResponse{
		ID:                         r.ID.String(),
		Name:                       r.Name,
		Prize:                      r.Prize,
		Description:                r.Description,
		AllowedDomain:              r.AllowedDomain,
		StartsAt:                   r.StartsAt,
		EndsAt:                     r.EndsAt,
		RequireConfirmation:        r.RequireConfirmation,
		ConfirmationTimeoutMinutes: r.ConfirmationTimeoutMinutes,
		AutoDrawOnEnd:              r.AutoDrawOnEnd,
		Status:                     string(r.Status),
		EffectiveStatus:            string(r.EffectiveStatus(now)),
		ClosedAt:                   r.ClosedAt,
		CreatedAt:                  r.CreatedAt,
		UpdatedAt:                  r.UpdatedAt,
	}
	if r.WinnerID != nil {
		resp.WinnerID = r.WinnerID.String()
	}
	return resp
}

// RaffleDetailsResponse is the read model for GET /raffles/{id}.
type RaffleDetailsResponse struct {
	*RaffleResponse
	ParticipantCount        int    `json:"participant_count"`
	ConfirmationSecondsLeft *int64 `json:"confirmation_seconds_left,omitempty"`
}

// FromDetails converts service details to an HTTP response.
func FromDetails(d *service.RaffleDetails, now time.Time) *RaffleDetailsResponse {
	return &RaffleDetailsResponse{
		RaffleResponse:          FromRaffle(d.Raffle, now),
		ParticipantCount:        d.ParticipantCount,
		ConfirmationSecondsLeft: d.ConfirmationSecondsLeft,
	}
}

// ParticipantResponse is the HTTP representation of a participant. The
// secret code hash never leaves the service.
type ParticipantResponse struct {
	ID        string    `json:"id"`
	RaffleID  string    `json:"raffle_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// FromParticipant converts a domain participant to an HTTP response.
func FromParticipant(p *models.Participant) *ParticipantResponse {
	return &ParticipantResponse{
		ID:        p.ID.String(),
		RaffleID:  p.RaffleID.String(),
		Name:      p.Name,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
	}
}

// DrawEntryResponse is one row of the draw history.
type DrawEntryResponse struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	DrawNumber    int       `json:"draw_number"`
	WasPresent    bool      `json:"was_present"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromEntry converts a draw entry to an HTTP response.
func FromEntry(e *models.DrawEntry) *DrawEntryResponse {
	return &DrawEntryResponse{
		ID:            e.ID.String(),
		ParticipantID: e.ParticipantID.String(),
		DrawNumber:    e.DrawNumber,
		WasPresent:    e.WasPresent,
		CreatedAt:     e.CreatedAt,
	}
}

// DrawResponse is the HTTP response for POST /raffles/{id}/draw.
type DrawResponse struct {
	Winner            *ParticipantResponse `json:"winner"`
	RemainingEligible int                  `json:"remaining_eligible"`
	History           []*DrawEntryResponse `json:"history"`
}

// FromDrawResult converts a draw result to an HTTP response.
func FromDrawResult(result *service.DrawResult) *DrawResponse {
	history := make([]*DrawEntryResponse, 0, len(result.History))
	for _, e := range result.History {
		history = append(history, FromEntry(e))
	}
	return &DrawResponse{
		Winner:            FromParticipant(result.Winner),
		RemainingEligible: result.RemainingEligible,
		History:           history,
	}
}

// ConfirmResponse is the HTTP response for POST /raffles/{id}/confirm.
type ConfirmResponse struct {
	Raffle *RaffleResponse      `json:"raffle"`
	Winner *ParticipantResponse `json:"winner"`
}

// FromConfirmResult converts a confirmation result to an HTTP response.
func FromConfirmResult(result *service.ConfirmResult, now time.Time) *ConfirmResponse {
	return &ConfirmResponse{
		Raffle: FromRaffle(result.Raffle, now),
		Winner: FromParticipant(result.Participant),
	}
}
