// internal/domain/ledger/errors.go
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrItemNotFound is returned when an item code is unknown to the ledger
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidQuantity is returned for zero or negative quantities
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// ValidationError reports malformed lot records rejected at the ingestion
// boundary. The whole call is rejected, nothing is written.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid lot records: %s", strings.Join(e.Problems, "; "))
}

// CutoffViolation identifies a counted case received after the cutoff date
type CutoffViolation struct {
	CaseID       string    `json:"case_id"`
	ReceivedDate time.Time `json:"received_date"`
}

// CutoffViolationError rejects an entire physical count when any counted
// case resolves to a lot received after the cutoff date. No state is
// mutated on this path.
type CutoffViolationError struct {
	CutoffDate time.Time
	Violations []CutoffViolation
}

func (e *CutoffViolationError) Error() string {
	ids := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		ids[i] = fmt.Sprintf("%s (received %s)", v.CaseID, v.ReceivedDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("counted cases received after cutoff %s: %s",
		e.CutoffDate.Format("2006-01-02"), strings.Join(ids, ", "))
}
