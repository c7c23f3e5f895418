package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinebook/movie-ticket-booking/internal/clock"
	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/notify"
	"github.com/cinebook/movie-ticket-booking/internal/repository"
	"github.com/cinebook/movie-ticket-booking/internal/seatmap"
)

// fakeShowStore keeps shows in memory behind a mutex and honors the
// same compare-and-swap contract as the MySQL repository.
type fakeShowStore struct {
	mu    sync.Mutex
	shows map[string]*model.Show
}

func newFakeShowStore(shows ...*model.Show) *fakeShowStore {
	f := &fakeShowStore{shows: make(map[string]*model.Show)}
	for _, s := range shows {
		f.shows[s.ShowID] = s
	}
	return f
}

func (f *fakeShowStore) GetByID(_ context.Context, showID string) (*model.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shows[showID]
	if !ok {
		return nil, repository.ErrShowNotFound
	}
	cp := *s
	cp.Seats = s.Seats.Clone()
	return &cp, nil
}

func (f *fakeShowStore) CompareAndSwapSeatMap(_ context.Context, showID string, version uint64, m seatmap.Map) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shows[showID]
	if !ok {
		return repository.ErrShowNotFound
	}
	if s.SeatVersion != version {
		return repository.ErrVersionConflict
	}
	s.Seats = m.Clone()
	s.SeatVersion++
	return nil
}

// contendedShowStore wraps a fakeShowStore but loses every swap, to
// drive the engine through its retry budget.
type contendedShowStore struct{ *fakeShowStore }

func (c *contendedShowStore) CompareAndSwapSeatMap(context.Context, string, uint64, seatmap.Map) error {
	return repository.ErrVersionConflict
}

type fakeBookingStore struct {
	mu         sync.Mutex
	bookings   map[string]*model.Booking
	failCreate error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*model.Booking)}
}

func (f *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	if _, ok := f.bookings[b.BookingID]; ok {
		return repository.ErrDuplicate
	}
	cp := *b
	f.bookings[b.BookingID] = &cp
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, bookingID string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingStore) Delete(_ context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bookings, bookingID)
	return nil
}

func (f *fakeBookingStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

type fakeNotifier struct {
	err   error
	calls chan notify.Kind
}

func newFakeNotifier(err error) *fakeNotifier {
	return &fakeNotifier{err: err, calls: make(chan notify.Kind, 16)}
}

func (f *fakeNotifier) Notify(_ context.Context, kind notify.Kind, _ string, _ notify.Payload) error {
	f.calls <- kind
	return f.err
}

func testShow() *model.Show {
	return &model.Show{
		ShowID:      "show-1",
		MovieID:     "movie-1",
		TheatreName: "Galaxy",
		ShowDate:    "2026-09-10",
		ShowTime:    "18:30",
		Seats:       seatmap.New(),
		SeatVersion: 1,
	}
}

func newTestEngine(shows ShowStore, bookings BookingStore, n notify.Notifier) *Engine {
	clk := clock.NewFixed(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	return NewEngine(shows, bookings, nil, n, clk)
}

func TestClaimSuccess(t *testing.T) {
	shows := newFakeShowStore(testShow())
	bookings := newFakeBookingStore()
	eng := newTestEngine(shows, bookings, nil)

	b, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID:      "show-1",
		UserEmail:   "a@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Lower: {"12"}, seatmap.Balcony: {"3"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, b.BookingID)
	assert.Equal(t, model.BookingStatusActive, b.Status)

	show, err := shows.GetByID(context.Background(), "show-1")
	require.NoError(t, err)
	assert.False(t, show.Seats.IsFree(seatmap.Lower, "12"))
	assert.False(t, show.Seats.IsFree(seatmap.Balcony, "3"))
	assert.Equal(t, b.BookingID, show.Seats.State(seatmap.Lower, "12").Occupancy.BookingID)
	assert.Equal(t, 1, bookings.count())
}

func TestClaimShowNotFound(t *testing.T) {
	eng := newTestEngine(newFakeShowStore(), newFakeBookingStore(), nil)
	_, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID:      "missing",
		UserEmail:   "a@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Lower: {"1"}},
	})
	require.ErrorIs(t, err, repository.ErrShowNotFound)
}

func TestClaimRejectsWholeBatchOnConflict(t *testing.T) {
	show := testShow()
	require.NoError(t, show.Seats.Claim(seatmap.Balcony, "2", seatmap.Occupancy{UserEmail: "x@example.com", BookingID: "b-0"}))
	shows := newFakeShowStore(show)
	bookings := newFakeBookingStore()
	eng := newTestEngine(shows, bookings, nil)

	_, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID:      "show-1",
		UserEmail:   "a@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Balcony: {"1", "2"}},
	})
	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []seatmap.SeatRef{{Section: seatmap.Balcony, SeatID: "2"}}, conflict.Seats)

	// No partial commit: the free seat from the batch must stay free
	// and no booking row may exist.
	got, err := shows.GetByID(context.Background(), "show-1")
	require.NoError(t, err)
	assert.True(t, got.Seats.IsFree(seatmap.Balcony, "1"))
	assert.Equal(t, 0, bookings.count())
}

func TestConcurrentClaimsSingleWinnerPerSeat(t *testing.T) {
	shows := newFakeShowStore(testShow())
	bookings := newFakeBookingStore()
	eng := newTestEngine(shows, bookings, nil)

	const claimers = 16
	var wg sync.WaitGroup
	results := make(chan error, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Claim(context.Background(), ClaimRequest{
				ShowID:      "show-1",
				UserEmail:   "user@example.com",
				TicketsData: seatmap.TicketsData{seatmap.Lower: {"12"}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			var conflict *SeatConflictError
			if errors.As(err, &conflict) || errors.Is(err, ErrContended) {
				conflicts++
			} else {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}
	assert.Equal(t, 1, wins, "exactly one claim must win the seat")
	assert.Equal(t, claimers-1, conflicts)
	assert.Equal(t, 1, bookings.count())

	show, err := shows.GetByID(context.Background(), "show-1")
	require.NoError(t, err)
	assert.Equal(t, 1, show.Seats.OccupiedCount())
}

func TestConcurrentDisjointClaimsAllWin(t *testing.T) {
	shows := newFakeShowStore(testShow())
	bookings := newFakeBookingStore()
	eng := newTestEngine(shows, bookings, nil)

	seats := []string{"1", "2", "3", "4"}
	var wg sync.WaitGroup
	errs := make(chan error, len(seats))
	for _, seat := range seats {
		wg.Add(1)
		go func(seat string) {
			defer wg.Done()
			_, err := eng.Claim(context.Background(), ClaimRequest{
				ShowID:      "show-1",
				UserEmail:   "user@example.com",
				TicketsData: seatmap.TicketsData{seatmap.Middle: {seat}},
			})
			errs <- err
		}(seat)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	show, err := shows.GetByID(context.Background(), "show-1")
	require.NoError(t, err)
	assert.Equal(t, len(seats), show.Seats.OccupiedCount())
	assert.Equal(t, len(seats), bookings.count())
}

func TestClaimContendedGivesUp(t *testing.T) {
	shows := &contendedShowStore{newFakeShowStore(testShow())}
	eng := newTestEngine(shows, newFakeBookingStore(), nil)

	_, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID:      "show-1",
		UserEmail:   "a@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Lower: {"1"}},
	})
	require.ErrorIs(t, err, ErrContended)
}

func TestClaimRollsBackSeatsWhenBookingCreateFails(t *testing.T) {
	shows := newFakeShowStore(testShow())
	bookings := newFakeBookingStore()
	bookings.failCreate = errors.New("insert failed")
	eng := newTestEngine(shows, bookings, nil)

	_, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID:      "show-1",
		UserEmail:   "a@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Lower: {"9"}},
	})
	require.Error(t, err)

	show, err := shows.GetByID(context.Background(), "show-1")
	require.NoError(t, err)
	assert.True(t, show.Seats.IsFree(seatmap.Lower, "9"), "seat must not reference a missing booking")
}

// singleSwapShowStore lets exactly one swap through and loses every
// one after that, so the claim lands but the compensating release
// exhausts its retry budget.
type singleSwapShowStore struct {
	*fakeShowStore
	swapped bool
}

func (s *singleSwapShowStore) CompareAndSwapSeatMap(ctx context.Context, showID string, version uint64, m seatmap.Map) error {
	if s.swapped {
		return repository.ErrVersionConflict
	}
	s.swapped = true
	return s.fakeShowStore.CompareAndSwapSeatMap(ctx, showID, version, m)
}

func TestClaimSurfacesFailedSeatRelease(t *testing.T) {
	shows := &singleSwapShowStore{fakeShowStore: newFakeShowStore(testShow())}
	bookings := newFakeBookingStore()
	createErr := errors.New("insert failed")
	bookings.failCreate = createErr
	eng := newTestEngine(shows, bookings, nil)

	_, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID:      "show-1",
		UserEmail:   "a@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Lower: {"9"}},
	})
	// The caller must learn both that the booking never persisted and
	// that the seats could not be freed again.
	require.Error(t, err)
	assert.ErrorIs(t, err, createErr)
	assert.Contains(t, err.Error(), "seat release also failed")
}

func TestCancelReleasesEverySectionSymmetrically(t *testing.T) {
	shows := newFakeShowStore(testShow())
	bookings := newFakeBookingStore()
	eng := newTestEngine(shows, bookings, nil)

	before, err := shows.GetByID(context.Background(), "show-1")
	require.NoError(t, err)

	b, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID:    "show-1",
		UserEmail: "a@example.com",
		TicketsData: seatmap.TicketsData{
			seatmap.Balcony: {"1"},
			seatmap.Middle:  {"2"},
			seatmap.Lower:   {"3"},
		},
	})
	require.NoError(t, err)

	require.NoError(t, eng.Cancel(context.Background(), b.BookingID, "a@example.com", false))

	after, err := shows.GetByID(context.Background(), "show-1")
	require.NoError(t, err)
	// Every section must be back to its pre-claim state, not just one.
	for _, sec := range seatmap.Sections() {
		for _, seat := range []string{"1", "2", "3"} {
			assert.Equal(t, before.Seats.IsFree(sec, seat), after.Seats.IsFree(sec, seat),
				"section %s seat %s", sec, seat)
		}
	}
	assert.Equal(t, 0, after.Seats.OccupiedCount())

	_, err = bookings.GetByID(context.Background(), b.BookingID)
	require.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestCancelLeavesForeignSeatsAlone(t *testing.T) {
	shows := newFakeShowStore(testShow())
	bookings := newFakeBookingStore()
	eng := newTestEngine(shows, bookings, nil)

	mine, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID: "show-1", UserEmail: "a@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Lower: {"1"}},
	})
	require.NoError(t, err)
	_, err = eng.Claim(context.Background(), ClaimRequest{
		ShowID: "show-1", UserEmail: "b@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Lower: {"2"}},
	})
	require.NoError(t, err)

	require.NoError(t, eng.Cancel(context.Background(), mine.BookingID, "a@example.com", false))

	show, err := shows.GetByID(context.Background(), "show-1")
	require.NoError(t, err)
	assert.True(t, show.Seats.IsFree(seatmap.Lower, "1"))
	assert.False(t, show.Seats.IsFree(seatmap.Lower, "2"))
}

func TestCancelOwnership(t *testing.T) {
	shows := newFakeShowStore(testShow())
	bookings := newFakeBookingStore()
	eng := newTestEngine(shows, bookings, nil)

	b, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID: "show-1", UserEmail: "owner@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Middle: {"5"}},
	})
	require.NoError(t, err)

	err = eng.Cancel(context.Background(), b.BookingID, "other@example.com", false)
	require.ErrorIs(t, err, repository.ErrForbidden)

	// Admins may cancel on anyone's behalf.
	require.NoError(t, eng.Cancel(context.Background(), b.BookingID, "admin@example.com", true))
}

func TestCancelMissingBooking(t *testing.T) {
	eng := newTestEngine(newFakeShowStore(testShow()), newFakeBookingStore(), nil)
	err := eng.Cancel(context.Background(), "nope", "a@example.com", false)
	require.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestCancelWhenShowGoneStillDeletesBooking(t *testing.T) {
	shows := newFakeShowStore(testShow())
	bookings := newFakeBookingStore()
	eng := newTestEngine(shows, bookings, nil)

	b, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID: "show-1", UserEmail: "a@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Lower: {"7"}},
	})
	require.NoError(t, err)

	shows.mu.Lock()
	delete(shows.shows, "show-1")
	shows.mu.Unlock()

	require.NoError(t, eng.Cancel(context.Background(), b.BookingID, "a@example.com", false))
	_, err = bookings.GetByID(context.Background(), b.BookingID)
	require.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestNotificationFailureDoesNotAffectClaim(t *testing.T) {
	shows := newFakeShowStore(testShow())
	bookings := newFakeBookingStore()
	notifier := newFakeNotifier(errors.New("smtp down"))
	eng := newTestEngine(shows, bookings, notifier)

	b, err := eng.Claim(context.Background(), ClaimRequest{
		ShowID: "show-1", UserEmail: "a@example.com",
		TicketsData: seatmap.TicketsData{seatmap.Balcony: {"8"}},
	})
	require.NoError(t, err)

	select {
	case kind := <-notifier.calls:
		assert.Equal(t, notify.KindConfirmation, kind)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never attempted")
	}

	// The committed reservation survives the failed notification.
	show, err := shows.GetByID(context.Background(), "show-1")
	require.NoError(t, err)
	assert.False(t, show.Seats.IsFree(seatmap.Balcony, "8"))
	_, err = bookings.GetByID(context.Background(), b.BookingID)
	require.NoError(t, err)
}
