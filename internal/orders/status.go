package orders

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// validNext is the closed transition table. Anything not listed is rejected;
// caller-supplied next-status values are never trusted directly.
// pending -> shipped is the fulfillment fast path for orders shipped without
// an explicit processing step.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusShipped: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Predecessors returns every status from which `to` is reachable. Guarded
// updates use this as the condition set so the check happens at mutation
// time, not against a stale snapshot.
func Predecessors(to Status) []Status {
	var out []Status
	for from, nexts := range validNext {
		if nexts[to] {
			out = append(out, from)
		}
	}
	return out
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}
