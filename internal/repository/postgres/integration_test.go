//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/showbook/internal/domain"
	pgdb "github.com/kirinyoku/showbook/internal/postgres"
	"github.com/kirinyoku/showbook/internal/repository"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName      = "showbook"
	dbUser      = "test_user"
	dbPassword  = "test_password"
	dbImageName = "postgres:17-alpine"
)

type StoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	store     *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, dbImageName,
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername(dbUser),
		tcpostgres.WithPassword(dbPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(pgdb.Migrate(dsn))

	pool, err := pgdb.New(ctx, pgdb.Config{DSN: dsn, MaxConns: 20})
	s.Require().NoError(err)

	s.pool = pool
	s.store = NewStore(pool)
}

func (s *StoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
}

func (s *StoreSuite) newShow(seatIDs ...string) *domain.Show {
	ctx := context.Background()

	theatre := &domain.Theatre{
		ID:      uuid.New(),
		Name:    "PVR Saket",
		Address: domain.Address{City: domain.CityDelhi, Pincode: "110017"},
	}
	s.Require().NoError(s.store.Catalog().CreateTheatre(ctx, theatre))

	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	show := &domain.Show{
		ID:        uuid.New(),
		TheatreID: theatre.ID,
		Movie:     "Dune",
		StartsAt:  start,
		EndsAt:    start.Add(165 * time.Minute),
		BasePrice: 300,
	}
	for i, id := range seatIDs {
		cat := domain.SeatBasic
		if i%2 == 1 {
			cat = domain.SeatPremium
		}
		show.Seats = append(show.Seats, domain.Seat{ID: id, Category: cat, Status: domain.SeatFree})
	}
	s.Require().NoError(s.store.Catalog().CreateShow(ctx, show))

	return show
}

func (s *StoreSuite) newUser() *domain.User {
	u := &domain.User{ID: uuid.New(), Name: "Meera", Email: uuid.NewString() + "@example.com"}
	s.Require().NoError(s.store.Users().CreateUser(context.Background(), u))
	return u
}

func (s *StoreSuite) seatStatus(showID uuid.UUID, seatID string) domain.SeatStatus {
	show, err := s.store.Catalog().GetShow(context.Background(), showID)
	s.Require().NoError(err)
	seat, ok := show.Seat(seatID)
	s.Require().True(ok)
	return seat.Status
}

func (s *StoreSuite) TestHoldSeatsSingleWinner() {
	show := s.newShow("A1", "A2", "A3")
	seats := s.store.Seats()

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			// Overlapping requests in both orders.
			req := []string{"A2", "A1"}
			if i%2 == 0 {
				req = []string{"A1", "A2", "A3"}
			}
			err := seats.HoldSeats(context.Background(), show.ID, req)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, repository.ErrSeatsUnavailable):
				conflicts++
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, wins)
	s.Equal(n-1, conflicts)
	s.Equal(domain.SeatHeld, s.seatStatus(show.ID, "A1"))
}

func (s *StoreSuite) TestHoldSeatsIsAllOrNothing() {
	ctx := context.Background()
	show := s.newShow("A1", "A2")
	seats := s.store.Seats()

	s.Require().NoError(seats.HoldSeats(ctx, show.ID, []string{"A2"}))

	err := seats.HoldSeats(ctx, show.ID, []string{"A1", "A2"})
	var conflict *repository.SeatConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal("A2", conflict.SeatID)
	s.Equal(domain.SeatFree, s.seatStatus(show.ID, "A1"))

	s.ErrorIs(seats.HoldSeats(ctx, show.ID, []string{"Z9"}), repository.ErrUnknownSeat)
	s.ErrorIs(seats.HoldSeats(ctx, uuid.New(), []string{"A1"}), repository.ErrNotFound)
}

func (s *StoreSuite) TestReleaseAndBook() {
	ctx := context.Background()
	show := s.newShow("A1", "A2")
	seats := s.store.Seats()

	s.Require().NoError(seats.HoldSeats(ctx, show.ID, []string{"A1", "A2"}))
	s.Require().NoError(seats.ReleaseSeats(ctx, show.ID, []string{"A2"}))
	s.Equal(domain.SeatFree, s.seatStatus(show.ID, "A2"))

	s.ErrorIs(seats.BookSeats(ctx, show.ID, []string{"A1", "A2"}), repository.ErrSeatNotHeld)
	s.Equal(domain.SeatHeld, s.seatStatus(show.ID, "A1"))

	s.Require().NoError(seats.BookSeats(ctx, show.ID, []string{"A1"}))
	s.Equal(domain.SeatBooked, s.seatStatus(show.ID, "A1"))

	// Releasing a booked seat leaves it booked.
	s.Require().NoError(seats.ReleaseSeats(ctx, show.ID, []string{"A1"}))
	s.Equal(domain.SeatBooked, s.seatStatus(show.ID, "A1"))
}

func (s *StoreSuite) TestLedgerRoundTrip() {
	ctx := context.Background()
	show := s.newShow("A1", "A2")
	user := s.newUser()

	draft := domain.BookingDraft{
		UserID: user.ID,
		ShowID: show.ID,
		Seats: []domain.Seat{
			{ID: "A2", Category: domain.SeatPremium, Status: domain.SeatBooked},
			{ID: "A1", Category: domain.SeatBasic, Status: domain.SeatBooked},
		},
		Amount: 700,
	}

	created, err := s.store.Bookings().CreateBooking(ctx, draft)
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, created.ID)

	got, err := s.store.Bookings().GetBooking(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(int64(700), got.Amount)
	s.Require().Len(got.Seats, 2)
	s.Equal("A2", got.Seats[0].ID)
	s.Equal("A1", got.Seats[1].ID)

	list, err := s.store.Bookings().ListBookingsByUser(ctx, user.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	// A seat of a show is recorded in at most one booking.
	_, err = s.store.Bookings().CreateBooking(ctx, draft)
	s.ErrorIs(err, repository.ErrConflict)

	_, err = s.store.Bookings().GetBooking(ctx, uuid.New())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *StoreSuite) TestUsersAndShowsForDate() {
	ctx := context.Background()
	user := s.newUser()

	dup := &domain.User{ID: uuid.New(), Name: "Other", Email: user.Email}
	s.ErrorIs(s.store.Users().CreateUser(ctx, dup), repository.ErrConflict)

	show := s.newShow("A1")
	shows, err := s.store.Catalog().ShowsForDate(ctx, show.TheatreID, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Require().Len(shows, 1)
	s.Equal(show.ID, shows[0].ID)
	s.Len(shows[0].Seats, 1)
}

func (s *StoreSuite) TestRunTxRollsBack() {
	ctx := context.Background()
	boom := errors.New("boom")

	id := uuid.New()
	err := s.store.RunTx(ctx, func(ctx context.Context) error {
		u := &domain.User{ID: id, Name: "Temp", Email: id.String() + "@example.com"}
		if err := s.store.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.Users().GetUser(ctx, id)
	s.ErrorIs(err, repository.ErrNotFound)
}
