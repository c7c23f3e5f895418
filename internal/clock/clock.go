// Package clock abstracts "now" so the reservation engine and the
// scheduler can be driven by a fixed instant in tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC() }

type fixedClock struct{ now time.Time }

// NewFixed returns a clock pinned to the given instant.
func NewFixed(t time.Time) Clock { return fixedClock{now: t} }

func (f fixedClock) Now() time.Time { return f.now }
