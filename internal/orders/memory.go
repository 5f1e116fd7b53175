package orders

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used by tests and dependency-free
// development. Guarded transitions hold the mutex across check and mutation,
// matching the single-statement semantics of PGStore.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]*Order
	byAttempt map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]*Order),
		byAttempt: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.AttemptID != "" {
		if _, taken := s.byAttempt[o.AttemptID]; taken {
			return ErrDuplicateAttempt
		}
	}
	cp := clone(o)
	s.byID[o.ID] = cp
	if o.AttemptID != "" {
		s.byAttempt[o.AttemptID] = o.ID
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(o), nil
}

func (s *MemoryStore) FindByAttemptID(_ context.Context, attemptID string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAttempt[attemptID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *MemoryStore) Transition(_ context.Context, id string, from []Status, upd TransitionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	allowed := false
	for _, st := range from {
		if o.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return &ConflictError{Current: o.Status}
	}
	o.Status = upd.To
	if upd.Tracking != "" {
		o.TrackingNumber = upd.Tracking
	}
	o.History = append(o.History, upd.Entry)
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) AttachRefund(_ context.Context, id string, r RefundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if o.Refund != nil {
		return nil // attach-once
	}
	cp := r
	o.Refund = &cp
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func clone(o *Order) *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	cp.History = append([]HistoryEntry(nil), o.History...)
	if o.Refund != nil {
		r := *o.Refund
		cp.Refund = &r
	}
	return &cp
}
