package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedShow(t *testing.T, s *Store, starts time.Time) *domain.Show {
	t.Helper()

	ctx := context.Background()
	theatre := &domain.Theatre{
		ID:      uuid.New(),
		Name:    "PVR Plaza",
		Address: domain.Address{City: domain.CityDelhi, Pincode: "110001", Street: "Connaught Place"},
	}
	require.NoError(t, s.Catalog().CreateTheatre(ctx, theatre))

	show := &domain.Show{
		ID:        uuid.New(),
		TheatreID: theatre.ID,
		Movie:     "Inception",
		StartsAt:  starts,
		EndsAt:    starts.Add(3 * time.Hour),
		BasePrice: 300,
		Seats: []domain.Seat{
			{ID: "B1", Category: domain.SeatBasic},
			{ID: "B2", Category: domain.SeatBasic},
			{ID: "P1", Category: domain.SeatPremium},
		},
	}
	require.NoError(t, s.Catalog().CreateShow(ctx, show))

	return show
}

func statusOf(t *testing.T, s *Store, showID uuid.UUID, seatID string) domain.SeatStatus {
	t.Helper()

	show, err := s.Catalog().GetShow(context.Background(), showID)
	require.NoError(t, err)

	seat, ok := show.Seat(seatID)
	require.True(t, ok)
	return seat.Status
}

func TestHoldSeatsIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	show := seedShow(t, s, time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC))
	seats := s.Seats()

	require.NoError(t, seats.HoldSeats(ctx, show.ID, []string{"B2"}))
	require.NoError(t, seats.BookSeats(ctx, show.ID, []string{"B2"}))

	err := seats.HoldSeats(ctx, show.ID, []string{"B1", "B2"})
	require.ErrorIs(t, err, repository.ErrSeatsUnavailable)

	var conflict *repository.SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "B2", conflict.SeatID)

	assert.Equal(t, domain.SeatFree, statusOf(t, s, show.ID, "B1"))
	assert.Equal(t, domain.SeatBooked, statusOf(t, s, show.ID, "B2"))
}

func TestHoldSeatsRejectsUnknownSeatWithoutMutation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	show := seedShow(t, s, time.Now())

	err := s.Seats().HoldSeats(ctx, show.ID, []string{"B1", "Z9"})
	require.ErrorIs(t, err, repository.ErrUnknownSeat)
	assert.Equal(t, domain.SeatFree, statusOf(t, s, show.ID, "B1"))

	err = s.Seats().HoldSeats(ctx, uuid.New(), []string{"B1"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReleaseSeatsOnlyTouchesHeld(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	show := seedShow(t, s, time.Now())
	seats := s.Seats()

	require.NoError(t, seats.HoldSeats(ctx, show.ID, []string{"B1", "P1"}))
	require.NoError(t, seats.BookSeats(ctx, show.ID, []string{"P1"}))
	require.NoError(t, seats.ReleaseSeats(ctx, show.ID, []string{"B1", "P1"}))

	assert.Equal(t, domain.SeatFree, statusOf(t, s, show.ID, "B1"))
	assert.Equal(t, domain.SeatBooked, statusOf(t, s, show.ID, "P1"))
}

func TestBookSeatsRequiresHold(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	show := seedShow(t, s, time.Now())

	err := s.Seats().BookSeats(ctx, show.ID, []string{"B1"})
	require.ErrorIs(t, err, repository.ErrSeatNotHeld)
	assert.Equal(t, domain.SeatFree, statusOf(t, s, show.ID, "B1"))
}

func TestConcurrentHoldsSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	show := seedShow(t, s, time.Now())

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	start := make(chan struct{})

	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := s.Seats().HoldSeats(ctx, show.ID, []string{"P1", "B1"}); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, repository.ErrSeatsUnavailable)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, 1, success)
}

func TestShowsForDateOrdersByStart(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	late := seedShow(t, s, day.Add(21*time.Hour))

	early := *late
	early.ID = uuid.New()
	early.StartsAt = day.Add(10 * time.Hour)
	require.NoError(t, s.Catalog().CreateShow(ctx, &early))

	other := *late
	other.ID = uuid.New()
	other.StartsAt = day.Add(34 * time.Hour)
	require.NoError(t, s.Catalog().CreateShow(ctx, &other))

	shows, err := s.Catalog().ShowsForDate(ctx, late.TheatreID, day)
	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.Equal(t, early.ID, shows[0].ID)
	assert.Equal(t, late.ID, shows[1].ID)

	theatres, err := s.Catalog().TheatresForCity(ctx, domain.CityDelhi)
	require.NoError(t, err)
	assert.Len(t, theatres, 1)

	none, err := s.Catalog().TheatresForCity(ctx, domain.CityMumbai)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateShowUnknownTheatre(t *testing.T) {
	s := NewStore()

	err := s.Catalog().CreateShow(context.Background(), &domain.Show{ID: uuid.New(), TheatreID: uuid.New()})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsersUniqueEmail(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	u := &domain.User{ID: uuid.New(), Name: "Pranjal Sharma", Email: "pranjal@example.com"}
	require.NoError(t, users.CreateUser(ctx, u))

	dup := &domain.User{ID: uuid.New(), Name: "Other", Email: "pranjal@example.com"}
	require.ErrorIs(t, users.CreateUser(ctx, dup), repository.ErrConflict)

	got, err := users.GetUserByEmail(ctx, "pranjal@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.GetUser(ctx, uuid.New())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLedgerRoundTripAndImmutability(t *testing.T) {
	ctx := context.Background()
	ledger := NewStore().Bookings()

	draft := domain.BookingDraft{
		UserID: uuid.New(),
		ShowID: uuid.New(),
		Seats:  []domain.Seat{{ID: "B1", Category: domain.SeatBasic, Status: domain.SeatBooked}},
		Amount: 300,
	}

	b1, err := ledger.CreateBooking(ctx, draft)
	require.NoError(t, err)
	b2, err := ledger.CreateBooking(ctx, draft)
	require.NoError(t, err)
	assert.NotEqual(t, b1.ID, b2.ID)

	b1.Seats[0].ID = "tampered"

	got, err := ledger.GetBooking(ctx, b2.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(b2, got); diff != "" {
		t.Errorf("booking mismatch (-want +got):\n%s", diff)
	}

	stored, err := ledger.GetBooking(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, "B1", stored.Seats[0].ID)

	list, err := ledger.ListBookingsByUser(ctx, draft.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestLedgerRegeneratesCollidingID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	fixed := uuid.New()
	next := uuid.New()
	calls := 0
	s.newID = func() uuid.UUID {
		calls++
		if calls <= 2 {
			return fixed
		}
		return next
	}

	first, err := s.Bookings().CreateBooking(ctx, domain.BookingDraft{Amount: 1})
	require.NoError(t, err)
	second, err := s.Bookings().CreateBooking(ctx, domain.BookingDraft{Amount: 2})
	require.NoError(t, err)

	assert.Equal(t, fixed, first.ID)
	assert.Equal(t, next, second.ID)

	got, err := s.Bookings().GetBooking(ctx, fixed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Amount)
}
