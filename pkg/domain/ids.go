// Package domain defines typed identifiers shared across modules. Distinct
// types keep a participant ID from ever being passed where a raffle ID is
// expected; the compiler enforces it.
package domain

import (
	"github.com/google/uuid"

	dErrors "tombola/pkg/domain-errors"
)

// RaffleID identifies a raffle aggregate.
type RaffleID uuid.UUID

// ParticipantID identifies a registered participant.
type ParticipantID uuid.UUID

// EntryID identifies a draw history entry.
type EntryID uuid.UUID

// NewRaffleID generates a fresh random raffle ID.
func NewRaffleID() RaffleID { return RaffleID(uuid.New()) }

// NewParticipantID generates a fresh random participant ID.
func NewParticipantID() ParticipantID { return ParticipantID(uuid.New()) }

// NewEntryID generates a fresh random draw entry ID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

func (id RaffleID) String() string      { return uuid.UUID(id).String() }
func (id ParticipantID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string       { return uuid.UUID(id).String() }

func (id RaffleID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ParticipantID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs travel through JSON as plain UUID strings.
func (id RaffleID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id ParticipantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

func (id *RaffleID) UnmarshalText(b []byte) error {
	parsed, err := ParseRaffleID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ParticipantID) UnmarshalText(b []byte) error {
	parsed, err := ParseParticipantID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EntryID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	if err != nil {
		return err
	}
	*id = EntryID(u)
	return nil
}

// ParseRaffleID parses and validates a raffle ID from its string form.
// IDs must be valid, non-nil UUIDs.
func ParseRaffleID(s string) (RaffleID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RaffleID{}, err
	}
	return RaffleID(u), nil
}

// ParseParticipantID parses and validates a participant ID from its string form.
func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ParticipantID{}, err
	}
	return ParticipantID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be the nil UUID")
	}
	return u, nil
}
