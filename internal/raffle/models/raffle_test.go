package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
)

var now = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func newTestRaffle(t *testing.T, mutate func(*Raffle)) *Raffle {
	t.Helper()
	r, err := NewRaffle(id.NewRaffleID(), "test raffle", "prize", "", "", nil, nil, false, 0, false, now)
	require.NoError(t, err)
	if mutate != nil {
		mutate(r)
	}
	return r
}

func TestNewRaffle(t *testing.T) {
	t.Run("trims and validates name", func(t *testing.T) {
		_, err := NewRaffle(id.NewRaffleID(), "  ", "", "", "", nil, nil, false, 0, false, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		start := now
		end := now.Add(-time.Hour)
		_, err := NewRaffle(id.NewRaffleID(), "x", "", "", "", &start, &end, false, 0, false, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects negative timeout", func(t *testing.T) {
		_, err := NewRaffle(id.NewRaffleID(), "x", "", "", "", nil, nil, true, -1, false, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("defaults timeout only when confirmation required", func(t *testing.T) {
		r, err := NewRaffle(id.NewRaffleID(), "x", "", "", "", nil, nil, true, 0, false, now)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfirmationTimeoutMinutes, r.ConfirmationTimeoutMinutes)

		r, err = NewRaffle(id.NewRaffleID(), "x", "", "", "", nil, nil, false, 0, false, now)
		require.NoError(t, err)
		assert.Zero(t, r.ConfirmationTimeoutMinutes)
	})

	t.Run("lowercases allowed domain", func(t *testing.T) {
		r, err := NewRaffle(id.NewRaffleID(), "x", "", "", "CORP.Example", nil, nil, false, 0, false, now)
		require.NoError(t, err)
		assert.Equal(t, "corp.example", r.AllowedDomain)
	})
}

func TestEffectiveStatus(t *testing.T) {
	winnerID := id.NewParticipantID()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		mutate func(*Raffle)
		want   EffectiveStatus
	}{
		{"active windowless is open", nil, EffectiveOpen},
		{"before start is upcoming", func(r *Raffle) { r.StartsAt = &future }, EffectiveUpcoming},
		{"after end is closed", func(r *Raffle) { r.EndsAt = &past }, EffectiveClosed},
		{"inside window is open", func(r *Raffle) { r.StartsAt = &past; r.EndsAt = &future }, EffectiveOpen},
		{"persisted closed wins over open window", func(r *Raffle) { r.Status = StatusClosed }, EffectiveClosed},
		{"pending winner wins over closed", func(r *Raffle) {
			r.Status = StatusClosed
			r.WinnerID = &winnerID
		}, EffectiveWinnerPending},
		{"drawn wins over everything", func(r *Raffle) {
			r.Status = StatusDrawn
			r.WinnerID = &winnerID
			r.EndsAt = &past
		}, EffectiveConfirmed},
		{"pending winner on expired window", func(r *Raffle) {
			r.WinnerID = &winnerID
			r.EndsAt = &past
		}, EffectiveWinnerPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRaffle(t, tc.mutate)
			assert.Equal(t, tc.want, r.EffectiveStatus(now))
		})
	}
}

func TestWindowExpired(t *testing.T) {
	past := now.Add(-time.Hour)
	winnerID := id.NewParticipantID()

	assert.True(t, newTestRaffle(t, func(r *Raffle) { r.EndsAt = &past }).WindowExpired(now))
	assert.False(t, newTestRaffle(t, nil).WindowExpired(now), "windowless never expires")
	assert.False(t, newTestRaffle(t, func(r *Raffle) {
		r.EndsAt = &past
		r.Status = StatusClosed
	}).WindowExpired(now), "already closed")
	assert.False(t, newTestRaffle(t, func(r *Raffle) {
		r.EndsAt = &past
		r.WinnerID = &winnerID
	}).WindowExpired(now), "pending winner is not expiry's business")
}

func TestAllowsEmail(t *testing.T) {
	r := newTestRaffle(t, func(r *Raffle) { r.AllowedDomain = "corp.example" })
	assert.True(t, r.AllowsEmail("a@corp.example"))
	assert.True(t, r.AllowsEmail("a@CORP.EXAMPLE"))
	assert.False(t, r.AllowsEmail("a@other.example"))
	assert.False(t, r.AllowsEmail("no-at-sign"))

	open := newTestRaffle(t, nil)
	assert.True(t, open.AllowsEmail("anyone@anywhere.example"))
}

func TestWinnerTransitions(t *testing.T) {
	winnerID := id.NewParticipantID()

	t.Run("first winner stamps ClosedAt once", func(t *testing.T) {
		r := newTestRaffle(t, nil)
		r.ApplyWinner(winnerID, now)
		require.NotNil(t, r.ClosedAt)
		firstClose := *r.ClosedAt

		later := now.Add(time.Minute)
		r.ApplyWinner(id.NewParticipantID(), later)
		assert.Equal(t, firstClose, *r.ClosedAt, "redraw keeps the original close time")
	})

	t.Run("finalize requires a pending winner", func(t *testing.T) {
		r := newTestRaffle(t, nil)
		assert.True(t, dErrors.HasCode(r.CanFinalize(), dErrors.CodeInvalidState))

		r.ApplyWinner(winnerID, now)
		require.NoError(t, r.CanFinalize())
		r.ApplyFinalize(now)
		assert.Equal(t, StatusDrawn, r.Status)
		assert.True(t, dErrors.HasCode(r.CanFinalize(), dErrors.CodeInvalidState))
	})

	t.Run("reopen resets everything draw-related", func(t *testing.T) {
		end := now.Add(-time.Hour)
		r := newTestRaffle(t, func(r *Raffle) { r.EndsAt = &end })
		r.ApplyWinner(winnerID, now)
		r.ApplyFinalize(now)

		require.NoError(t, r.CanReopen(now))
		r.ApplyReopen(false, now)
		assert.Equal(t, StatusActive, r.Status)
		assert.Nil(t, r.WinnerID)
		assert.Nil(t, r.ClosedAt)
		assert.NotNil(t, r.EndsAt, "window kept unless asked")

		r.ApplyReopen(true, now)
		assert.Nil(t, r.EndsAt)
	})

	t.Run("open raffle cannot reopen", func(t *testing.T) {
		r := newTestRaffle(t, nil)
		assert.True(t, dErrors.HasCode(r.CanReopen(now), dErrors.CodeInvalidState))
	})
}

func TestParsePatchableStatus(t *testing.T) {
	for _, ok := range []string{"active", "closed"} {
		_, err := ParsePatchableStatus(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"drawn", "", "ACTIVE", "open"} {
		_, err := ParsePatchableStatus(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), bad)
	}
}

func TestConfirmationWindow(t *testing.T) {
	r := newTestRaffle(t, func(r *Raffle) { r.ConfirmationTimeoutMinutes = 3 })
	assert.Equal(t, 3*time.Minute, r.ConfirmationWindow())

	r = newTestRaffle(t, nil)
	assert.Equal(t, time.Duration(DefaultConfirmationTimeoutMinutes)*time.Minute, r.ConfirmationWindow())
}

func TestNewParticipant(t *testing.T) {
	raffleID := id.NewRaffleID()

	t.Run("normalizes email", func(t *testing.T) {
		p, err := NewParticipant(id.NewParticipantID(), raffleID, "Ada", " Ada@Example.COM ", "", now)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", p.Email)
	})

	t.Run("rejects bad emails", func(t *testing.T) {
		for _, email := range []string{"", "nodomain@", "@nolocal", "plain"} {
			_, err := NewParticipant(id.NewParticipantID(), raffleID, "x", email, "", now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), email)
		}
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := NewParticipant(id.NewParticipantID(), raffleID, " ", "a@example.com", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestConfirmationDeadline(t *testing.T) {
	entry := NewDrawEntry(id.NewEntryID(), id.NewRaffleID(), id.NewParticipantID(), 1, now)
	assert.Equal(t, now.Add(10*time.Minute), entry.ConfirmationDeadline(10*time.Minute))
}
