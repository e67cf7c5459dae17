package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherEmitAndList(t *testing.T) {
	ctx := context.Background()
	p := NewPublisher(NewInMemoryStore())

	err := p.Emit(ctx, Event{
		Timestamp: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
		Action:    ActionDrawPerformed,
		RaffleID:  "raffle-1",
		Trigger:   "operator",
	})
	require.NoError(t, err)
	require.NoError(t, p.Emit(ctx, Event{Action: ActionRaffleConfirmed, RaffleID: "raffle-1", Method: "code"}))
	require.NoError(t, p.Emit(ctx, Event{Action: ActionRaffleCreated, RaffleID: "raffle-2"}))

	events, err := p.List(ctx, "raffle-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionDrawPerformed, events[0].Action)
	assert.Equal(t, ActionRaffleConfirmed, events[1].Action)

	// A missing timestamp is filled in at emit time.
	assert.False(t, events[1].Timestamp.IsZero())

	other, err := p.List(ctx, "raffle-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
}
