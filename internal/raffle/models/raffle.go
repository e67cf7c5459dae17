package models

import (
	"strings"
	"time"

	id "tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
)

// Status is the persisted raffle status. It is a closed three-value enum;
// callers can never write other values.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
	StatusDrawn  Status = "drawn"
)

// ParsePatchableStatus parses an operator-supplied status. Only active and
// closed may be set directly; drawn is reachable only through confirmation.
func ParsePatchableStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive:
		return StatusActive, nil
	case StatusClosed:
		return StatusClosed, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be active or closed")
	}
}

// EffectiveStatus is derived at read time from the persisted status plus the
// registration window. It is never persisted.
type EffectiveStatus string

const (
	EffectiveUpcoming      EffectiveStatus = "upcoming"
	EffectiveOpen          EffectiveStatus = "open"
	EffectiveClosed        EffectiveStatus = "closed"
	EffectiveWinnerPending EffectiveStatus = "winner-pending"
	EffectiveConfirmed     EffectiveStatus = "confirmed"
)

// DefaultConfirmationTimeoutMinutes applies when a raffle requires
// confirmation but the operator did not pick a window.
const DefaultConfirmationTimeoutMinutes = 10

// Raffle is the aggregate root for one prize draw.
//
// Invariants:
//   - Name is non-empty
//   - Status is one of active, closed, drawn
//   - WinnerID is non-nil iff at least one draw entry exists and the raffle
//     has not been reopened since the last entry
//   - Status drawn implies the latest draw entry has WasPresent = true
//   - EndsAt, when both window bounds are set, is after StartsAt
type Raffle struct {
	ID                         id.RaffleID       `json:"id"`
	Name                       string            `json:"name"`
	Prize                      string            `json:"prize"`
	Description                string            `json:"description,omitempty"`
	AllowedDomain              string            `json:"allowed_domain,omitempty"`
	StartsAt                   *time.Time        `json:"starts_at,omitempty"`
	EndsAt                     *time.Time        `json:"ends_at,omitempty"`
	RequireConfirmation        bool              `json:"require_confirmation"`
	ConfirmationTimeoutMinutes int               `json:"confirmation_timeout_minutes"`
	AutoDrawOnEnd              bool              `json:"auto_draw_on_end"`
	Status                     Status            `json:"status"`
	WinnerID                   *id.ParticipantID `json:"winner_id,omitempty"`
	ClosedAt                   *time.Time        `json:"closed_at,omitempty"`
	CreatedAt                  time.Time         `json:"created_at"`
	UpdatedAt                  time.Time         `json:"updated_at"`
}

// NewRaffle constructs a raffle, enforcing construction invariants.
func NewRaffle(raffleID id.RaffleID, name, prize, description, allowedDomain string, startsAt, endsAt *time.Time, requireConfirmation bool, confirmationTimeoutMinutes int, autoDrawOnEnd bool, now time.Time) (*Raffle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "raffle name is required")
	}
	if startsAt != nil && endsAt != nil && !endsAt.After(*startsAt) {
		return nil, dErrors.New(dErrors.CodeValidation, "ends_at must be after starts_at")
	}
	if confirmationTimeoutMinutes < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "confirmation_timeout_minutes must not be negative")
	}
	if requireConfirmation && confirmationTimeoutMinutes == 0 {
		confirmationTimeoutMinutes = DefaultConfirmationTimeoutMinutes
	}
	return &Raffle{
		ID:                         raffleID,
		Name:                       name,
		Prize:                      strings.TrimSpace(prize),
		Description:                strings.TrimSpace(description),
		AllowedDomain:              strings.ToLower(strings.TrimSpace(allowedDomain)),
		StartsAt:                   startsAt,
		EndsAt:                     endsAt,
		RequireConfirmation:        requireConfirmation,
		ConfirmationTimeoutMinutes: confirmationTimeoutMinutes,
		AutoDrawOnEnd:              autoDrawOnEnd,
		Status:                     StatusActive,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}, nil
}

// EffectiveStatus projects the persisted status plus the registration window
// onto what a caller observes at time now. Pure; never mutates the raffle.
func (r *Raffle) EffectiveStatus(now time.Time) EffectiveStatus {
	if r.Status == StatusDrawn {
		return EffectiveConfirmed
	}
	if r.WinnerID != nil {
		return EffectiveWinnerPending
	}
	if r.Status == StatusClosed {
		return EffectiveClosed
	}
	if r.StartsAt != nil && now.Before(*r.StartsAt) {
		return EffectiveUpcoming
	}
	if r.EndsAt != nil && now.After(*r.EndsAt) {
		return EffectiveClosed
	}
	return EffectiveOpen
}

// WindowExpired reports whether registration should be durably closed: the
// raffle is still persisted active with no pending winner, but its window has
// elapsed.
func (r *Raffle) WindowExpired(now time.Time) bool {
	return r.Status == StatusActive && r.WinnerID == nil &&
		r.EndsAt != nil && now.After(*r.EndsAt)
}

// AllowsEmail checks the optional email-domain restriction, case-insensitively.
func (r *Raffle) AllowsEmail(email string) bool {
	if r.AllowedDomain == "" {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.EqualFold(email[at+1:], r.AllowedDomain)
}

// ConfirmationWindow is how long a pending winner has to confirm presence.
func (r *Raffle) ConfirmationWindow() time.Duration {
	minutes := r.ConfirmationTimeoutMinutes
	if minutes <= 0 {
		minutes = DefaultConfirmationTimeoutMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// CanDraw checks whether a draw (or redraw) is legal in the current status.
func (r *Raffle) CanDraw() error {
	if r.Status == StatusDrawn {
		return dErrors.New(dErrors.CodeInvalidState, "raffle is already finalized")
	}
	return nil
}

// ApplyWinner records a freshly drawn winner. The first draw also stamps
// ClosedAt, which durably ends registration.
func (r *Raffle) ApplyWinner(winnerID id.ParticipantID, now time.Time) {
	w := winnerID
	r.WinnerID = &w
	if r.ClosedAt == nil {
		closedAt := now
		r.ClosedAt = &closedAt
	}
	r.UpdatedAt = now
}

// CanFinalize checks whether the raffle has a pending winner to confirm.
func (r *Raffle) CanFinalize() error {
	if r.Status == StatusDrawn {
		return dErrors.New(dErrors.CodeInvalidState, "raffle is already finalized")
	}
	if r.WinnerID == nil {
		return dErrors.New(dErrors.CodeInvalidState, "no winner is pending")
	}
	return nil
}

// ApplyFinalize transitions the raffle to drawn after the pending winner
// confirmed presence. Call CanFinalize first.
func (r *Raffle) ApplyFinalize(now time.Time) {
	r.Status = StatusDrawn
	r.UpdatedAt = now
}

// CanReopen checks whether restarting from scratch is legal. A raffle that is
// still open (or not yet started) has nothing to reopen.
func (r *Raffle) CanReopen(now time.Time) error {
	switch r.EffectiveStatus(now) {
	case EffectiveClosed, EffectiveWinnerPending, EffectiveConfirmed:
		return nil
	default:
		return dErrors.New(dErrors.CodeInvalidState, "raffle is not closed or drawn")
	}
}

// ApplyReopen restarts the raffle from scratch. Draw history is cleared by
// the caller in the same transaction; all prior exclusions are forgotten.
func (r *Raffle) ApplyReopen(clearWindow bool, now time.Time) {
	r.WinnerID = nil
	r.Status = StatusActive
	r.ClosedAt = nil
	if clearWindow {
		r.StartsAt = nil
		r.EndsAt = nil
	}
	r.UpdatedAt = now
}

// ApplyStatus is the operator toggle between active and closed.
func (r *Raffle) ApplyStatus(status Status, now time.Time) {
	r.Status = status
	switch status {
	case StatusClosed:
		if r.ClosedAt == nil {
			closedAt := now
			r.ClosedAt = &closedAt
		}
	case StatusActive:
		r.ClosedAt = nil
	}
	r.UpdatedAt = now
}

// ApplyClose durably records window expiry. Used by the scheduler's explicit
// close command, never as a hidden side effect of a read path.
func (r *Raffle) ApplyClose(now time.Time) {
	r.Status = StatusClosed
	if r.ClosedAt == nil {
		closedAt := now
		r.ClosedAt = &closedAt
	}
	r.UpdatedAt = now
}
