package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wovenworks/storefront/internal/orders"
	"github.com/wovenworks/storefront/internal/redisx"
)

// Fulfillment steps, in the order an operator must complete them. The first
// three are advisory checklist state; ship is the guarded transition itself.
const (
	StepVerify  = "verify"
	StepPrepare = "prepare"
	StepPackage = "package"
	StepShip    = "ship"
)

var checklistOrder = []string{StepVerify, StepPrepare, StepPackage}

var (
	ErrUnknownStep         = errors.New("unknown fulfillment step")
	ErrStepOutOfOrder      = errors.New("previous fulfillment step not completed")
	ErrChecklistIncomplete = errors.New("fulfillment checklist incomplete")
	ErrTrackingRequired    = errors.New("carrier tracking number required")
)

// ChecklistStore holds per-order checklist state. It is deliberately outside
// the order row: intermediate steps are not order statuses.
type ChecklistStore interface {
	Done(ctx context.Context, orderID string) (map[string]bool, error)
	MarkDone(ctx context.Context, orderID, step string) error
}

// RedisChecklist keeps each order's checklist in a redis hash.
type RedisChecklist struct{ R *redis.Client }

var _ ChecklistStore = (*RedisChecklist)(nil)

func (c *RedisChecklist) Done(ctx context.Context, orderID string) (map[string]bool, error) {
	key := fmt.Sprintf(redisx.KeyFulfillment, orderID)
	fields, err := c.R.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(fields))
	for step, v := range fields {
		out[step] = v == "1"
	}
	return out, nil
}

func (c *RedisChecklist) MarkDone(ctx context.Context, orderID, step string) error {
	key := fmt.Sprintf(redisx.KeyFulfillment, orderID)
	if err := c.R.HSet(ctx, key, step, "1").Err(); err != nil {
		return err
	}
	return c.R.Expire(ctx, key, redisx.TTLFulfillment).Err()
}

// MemoryChecklist is the in-process ChecklistStore for tests and redis-less
// development.
type MemoryChecklist struct {
	mu   sync.Mutex
	done map[string]map[string]bool
}

var _ ChecklistStore = (*MemoryChecklist)(nil)

func NewMemoryChecklist() *MemoryChecklist {
	return &MemoryChecklist{done: make(map[string]map[string]bool)}
}

func (c *MemoryChecklist) Done(_ context.Context, orderID string) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]bool, len(c.done[orderID]))
	for k, v := range c.done[orderID] {
		out[k] = v
	}
	return out, nil
}

func (c *MemoryChecklist) MarkDone(_ context.Context, orderID, step string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done[orderID] == nil {
		c.done[orderID] = make(map[string]bool)
	}
	c.done[orderID][step] = true
	return nil
}

// Workflow is the guided verify → prepare → package → ship checklist. It
// exists so an operator cannot ship before packaging is confirmed, and so the
// shipped transition always carries a tracking number.
type Workflow struct {
	Store     orders.Store
	Checklist ChecklistStore
	Notifier  interface {
		OrderShipped(ctx context.Context, o *orders.Order) error
	}
}

// Complete marks one advisory step done. Steps must be completed in order;
// the ship step goes through Ship instead.
func (w *Workflow) Complete(ctx context.Context, orderID, step string) error {
	idx := -1
	for i, s := range checklistOrder {
		if s == step {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if _, err := w.Store.Get(ctx, orderID); err != nil {
		return err
	}
	done, err := w.Checklist.Done(ctx, orderID)
	if err != nil {
		return err
	}
	for _, prev := range checklistOrder[:idx] {
		if !done[prev] {
			return fmt.Errorf("%w: %s before %s", ErrStepOutOfOrder, prev, step)
		}
	}
	return w.Checklist.MarkDone(ctx, orderID, step)
}

// Ship is the final step: it requires the full checklist and a non-empty
// tracking number, then sets status and tracking in one guarded mutation.
func (w *Workflow) Ship(ctx context.Context, orderID, tracking, actor string) error {
	if tracking == "" {
		return ErrTrackingRequired
	}
	done, err := w.Checklist.Done(ctx, orderID)
	if err != nil {
		return err
	}
	for _, step := range checklistOrder {
		if !done[step] {
			return fmt.Errorf("%w: %s not done", ErrChecklistIncomplete, step)
		}
	}

	err = w.Store.Transition(ctx, orderID, orders.Predecessors(orders.StatusShipped),
		orders.TransitionUpdate{
			To:       orders.StatusShipped,
			Tracking: tracking,
			Entry: orders.HistoryEntry{
				Status: orders.StatusShipped, At: time.Now().UTC(), Actor: actor,
				Note: "shipped, tracking " + tracking,
			},
		})
	var conflict *orders.ConflictError
	if errors.As(err, &conflict) {
		return fmt.Errorf("%w: %s -> shipped", ErrInvalidTransition, conflict.Current)
	}
	if err != nil {
		return err
	}
	_ = w.Checklist.MarkDone(ctx, orderID, StepShip)

	if o, gerr := w.Store.Get(ctx, orderID); gerr == nil {
		if nerr := w.Notifier.OrderShipped(ctx, o); nerr != nil {
			slog.Warn("ship: notification failed", "order_id", orderID, "err", nerr)
		}
	}
	return nil
}
