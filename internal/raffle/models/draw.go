package models

import (
	"time"

	id "tombola/pkg/domain"
)

// DrawEntry is one row of a raffle's append-only draw log. Entries are never
// updated except for the single WasPresent flip on confirmation; a past
// winner's absence is encoded by WasPresent staying false while later entries
// exist, never by an explicit mark.
type DrawEntry struct {
	ID            id.EntryID       `json:"id"`
	RaffleID      id.RaffleID      `json:"raffle_id"`
	ParticipantID id.ParticipantID `json:"participant_id"`
	DrawNumber    int              `json:"draw_number"`
	WasPresent    bool             `json:"was_present"`
	CreatedAt     time.Time        `json:"created_at"`
}

// NewDrawEntry constructs the next entry in a raffle's draw timeline.
func NewDrawEntry(entryID id.EntryID, raffleID id.RaffleID, participantID id.ParticipantID, drawNumber int, now time.Time) *DrawEntry {
	return &DrawEntry{
		ID:            entryID,
		RaffleID:      raffleID,
		ParticipantID: participantID,
		DrawNumber:    drawNumber,
		CreatedAt:     now,
	}
}

// ConfirmationDeadline is the instant this pending entry times out for a
// raffle with the given confirmation window.
func (e *DrawEntry) ConfirmationDeadline(window time.Duration) time.Time {
	return e.CreatedAt.Add(window)
}
