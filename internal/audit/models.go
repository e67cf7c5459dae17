package audit

import "time"

// Action names a lifecycle event worth keeping a trail of.
type Action string

const (
	ActionRaffleCreated         Action = "raffle.created"
	ActionParticipantRegistered Action = "participant.registered"
	ActionDrawPerformed         Action = "draw.performed"
	ActionRaffleConfirmed       Action = "raffle.confirmed"
	ActionRaffleReopened        Action = "raffle.reopened"
	ActionRaffleClosed          Action = "raffle.closed"
	ActionStatusPatched         Action = "raffle.status_patched"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	Action        Action    `json:"action"`
	RaffleID      string    `json:"raffle_id"`
	ParticipantID string    `json:"participant_id,omitempty"`
	DrawNumber    int       `json:"draw_number,omitempty"`
	Trigger       string    `json:"trigger,omitempty"` // operator | schedule
	Method        string    `json:"method,omitempty"`  // code | operator
	RequestID     string    `json:"request_id,omitempty"`
}
