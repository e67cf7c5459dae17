package live

import (
	"context"
	"testing"

	id "tombola/pkg/domain"
)

func TestMemoryCounter(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryCounter()
	raffleID := id.NewRaffleID()

	_, ok, err := counter.Count(ctx, raffleID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for fresh raffle")
	}

	for i := 1; i <= 3; i++ {
		n, err := counter.Increment(ctx, raffleID)
		if err != nil {
			t.Fatalf("increment failed: %v", err)
		}
		if n != i {
			t.Fatalf("expected count %d, got %d", i, n)
		}
	}

	if err := counter.Set(ctx, raffleID, 10); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	n, ok, err := counter.Count(ctx, raffleID)
	if err != nil || !ok {
		t.Fatalf("expected hit after set, ok=%v err=%v", ok, err)
	}
	if n != 10 {
		t.Fatalf("expected reconciled count 10, got %d", n)
	}

	// Counters are independent per raffle.
	other := id.NewRaffleID()
	if _, ok, _ := counter.Count(ctx, other); ok {
		t.Fatalf("expected miss for other raffle")
	}
}
