package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wovenworks/storefront/internal/inventory"
)

// ErrInternal marks post-charge failures that were compensated (refund +
// release) before surfacing. Reported generically to the user, logged as a
// priority incident.
var ErrInternal = errors.New("internal checkout error")

type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError is returned before any side effect; validation failures
// name the offending field paths.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	paths := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		paths[i] = f.Path
	}
	return "invalid checkout request: " + strings.Join(paths, ", ")
}

func (e *ValidationError) add(path, msg string) {
	e.Fields = append(e.Fields, FieldError{Path: path, Message: msg})
}

// InventoryUnavailableError reports the lines that could not be reserved.
// Everything reserved earlier in the same attempt has been released.
type InventoryUnavailableError struct {
	Shortfalls []inventory.InsufficientStockError
}

func (e *InventoryUnavailableError) Error() string {
	return fmt.Sprintf("insufficient stock for %d line(s)", len(e.Shortfalls))
}
