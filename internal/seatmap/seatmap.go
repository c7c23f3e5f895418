// Package seatmap implements the per-show seat inventory: three fixed
// sections, each mapping seat IDs to their occupant.  The stored form
// is presence-as-occupied (a seat absent from its section is free);
// State exposes the same information as an explicit free/occupied value
// for exhaustive handling in callers.
package seatmap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Section names a partition of a show's seating.  The set is fixed:
// every show has a balcony, middle and lower tier.
type Section string

const (
	Balcony Section = "balcony"
	Middle  Section = "middle"
	Lower   Section = "lower"
)

// Sections returns every valid section in display order.
func Sections() []Section { return []Section{Balcony, Middle, Lower} }

// Valid reports whether s is one of the three known sections.
func (s Section) Valid() bool {
	switch s {
	case Balcony, Middle, Lower:
		return true
	}
	return false
}

// Occupancy records who holds a seat and under which booking.  Its
// presence in a section map is the sole source of truth for "taken".
type Occupancy struct {
	UserEmail string `json:"userEmail"`
	BookingID string `json:"bookingId"`
}

// State is the explicit view of a single seat: either free, or
// occupied by exactly one occupancy record.
type State struct {
	Occupied  bool
	Occupancy Occupancy // zero value when Occupied is false
}

// Map is the seat inventory of one show.  The JSON form matches the
// stored document: {"balcony": {"12": {"userEmail": ..., "bookingId": ...}}, ...}.
// A nil inner map and an empty inner map both mean "no seat taken".
type Map map[Section]map[string]Occupancy

// ErrSeatTaken is returned by Claim when the seat already has an
// occupant.  The existing occupant is never overwritten.
var ErrSeatTaken = errors.New("seat already taken")

// ErrInvalidTickets wraps every validation failure from Normalize so
// callers can distinguish bad input from infrastructure errors.
var ErrInvalidTickets = errors.New("invalid ticket selection")

// New returns an empty seat map with all three sections present, so
// the stored document always carries every section key.
func New() Map {
	m := make(Map, len(Sections()))
	for _, sec := range Sections() {
		m[sec] = make(map[string]Occupancy)
	}
	return m
}

// State returns the explicit free/occupied state of one seat.
func (m Map) State(sec Section, seatID string) State {
	if occ, ok := m[sec][seatID]; ok {
		return State{Occupied: true, Occupancy: occ}
	}
	return State{}
}

// IsFree reports whether the seat has no occupant.
func (m Map) IsFree(sec Section, seatID string) bool {
	_, taken := m[sec][seatID]
	return !taken
}

// Claim marks a seat occupied.  It fails with ErrSeatTaken when the
// seat already has an occupant and leaves the map untouched.
func (m Map) Claim(sec Section, seatID string, occ Occupancy) error {
	if _, taken := m[sec][seatID]; taken {
		return ErrSeatTaken
	}
	if m[sec] == nil {
		m[sec] = make(map[string]Occupancy)
	}
	m[sec][seatID] = occ
	return nil
}

// Release frees a seat.  Releasing an already-free seat is a no-op so
// that a cancellation interrupted part way through can be re-run.
func (m Map) Release(sec Section, seatID string) {
	delete(m[sec], seatID)
}

// OccupiedCount returns the total number of occupied seats across all
// sections.
func (m Map) OccupiedCount() int {
	n := 0
	for _, seats := range m {
		n += len(seats)
	}
	return n
}

// Clone returns a deep copy.  Claim attempts mutate a clone so a lost
// compare-and-swap never leaves a half-applied map behind.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for sec, seats := range m {
		cp := make(map[string]Occupancy, len(seats))
		for id, occ := range seats {
			cp[id] = occ
		}
		out[sec] = cp
	}
	return out
}

// SeatRef names one seat for error reporting and snapshots.
type SeatRef struct {
	Section Section `json:"section"`
	SeatID  string  `json:"seat_id"`
}

func (r SeatRef) String() string { return fmt.Sprintf("%s/%s", r.Section, r.SeatID) }

// TicketsData is the request and snapshot form of a seat selection:
// the seat IDs wanted (or held) per section.  Sections with no seats
// may be absent entirely.
type TicketsData map[Section][]string

// Normalize validates the selection and returns it with duplicates
// removed and seats sorted within each section.  It rejects unknown
// sections, empty seat IDs and an empty overall selection.
func (t TicketsData) Normalize() (TicketsData, error) {
	out := make(TicketsData, len(t))
	total := 0
	for sec, seats := range t {
		if !sec.Valid() {
			return nil, fmt.Errorf("%w: unknown section %q", ErrInvalidTickets, string(sec))
		}
		seen := make(map[string]struct{}, len(seats))
		uniq := make([]string, 0, len(seats))
		for _, id := range seats {
			if id == "" {
				return nil, fmt.Errorf("%w: empty seat id in section %q", ErrInvalidTickets, string(sec))
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			uniq = append(uniq, id)
		}
		if len(uniq) == 0 {
			continue
		}
		sort.Strings(uniq)
		out[sec] = uniq
		total += len(uniq)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no seats requested", ErrInvalidTickets)
	}
	return out, nil
}

// Refs flattens the selection into individual seat references in a
// deterministic order (section display order, then seat ID).
func (t TicketsData) Refs() []SeatRef {
	refs := make([]SeatRef, 0)
	for _, sec := range Sections() {
		seats := append([]string(nil), t[sec]...)
		sort.Strings(seats)
		for _, id := range seats {
			refs = append(refs, SeatRef{Section: sec, SeatID: id})
		}
	}
	return refs
}

// Labels renders the selection as display labels like "BALCONY12",
// matching the seat lines printed on tickets and emails.
func (t TicketsData) Labels() []string {
	refs := t.Refs()
	labels := make([]string, 0, len(refs))
	for _, r := range refs {
		labels = append(labels, strings.ToUpper(string(r.Section))+r.SeatID)
	}
	return labels
}
