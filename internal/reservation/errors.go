package reservation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cinebook/movie-ticket-booking/internal/seatmap"
)

// ErrContended is returned when the per-show compare-and-swap lost its
// bounded retry budget.  No partial state is left behind; the request
// can simply be resubmitted.
var ErrContended = errors.New("show is busy, retry the request")

// SeatConflictError reports a claim that asked for at least one seat
// already held by someone else.  The whole claim is rejected; Seats
// lists exactly which requests conflicted so the caller can pick
// replacements.
type SeatConflictError struct {
	ShowID string
	Seats  []seatmap.SeatRef
}

func (e *SeatConflictError) Error() string {
	labels := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		labels[i] = s.String()
	}
	return fmt.Sprintf("seats already taken on show %s: %s", e.ShowID, strings.Join(labels, ", "))
}
