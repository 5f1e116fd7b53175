package orders

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateRejectsDuplicateAttempt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()

	first := &Order{ID: "ord-1", AttemptID: "att-1", Status: StatusPending, CreatedAt: now, UpdatedAt: now}
	if err := s.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := &Order{ID: "ord-2", AttemptID: "att-1", Status: StatusPending, CreatedAt: now, UpdatedAt: now}
	if err := s.Create(ctx, second); !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("got %v, want ErrDuplicateAttempt", err)
	}

	// the attempt still resolves to the first order, and the loser's row
	// was never stored
	o, err := s.FindByAttemptID(ctx, "att-1")
	if err != nil || o.ID != "ord-1" {
		t.Fatalf("attempt resolves to %+v (err %v), want ord-1", o, err)
	}
	if _, err := s.Get(ctx, "ord-2"); !errors.Is(err, ErrNotFound) {
		t.Fatal("losing order must not be stored")
	}
}
