package models

import (
	"strings"
	"time"

	id "tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
)

// Participant is a registered entrant. Created once at registration and never
// mutated by the draw or confirmation paths; only a raffle deletion cascade
// removes it.
type Participant struct {
	ID             id.ParticipantID `json:"id"`
	RaffleID       id.RaffleID      `json:"raffle_id"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	SecretCodeHash string           `json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewParticipant constructs a participant. Email is normalized to lower case
// so per-raffle uniqueness is case-insensitive everywhere.
func NewParticipant(participantID id.ParticipantID, raffleID id.RaffleID, name, email, secretCodeHash string, now time.Time) (*Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "participant name is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	return &Participant{
		ID:             participantID,
		RaffleID:       raffleID,
		Name:           name,
		Email:          email,
		SecretCodeHash: secretCodeHash,
		CreatedAt:      now,
	}, nil
}

func validateEmail(email string) error {
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 || len(email) > 254 {
		return dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}
	return nil
}
