// Package memory is the in-process storage backend. Every show carries its own
// mutex, so seat operations on different shows never contend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
)

type showEntry struct {
	mu    sync.Mutex // guards show.Seats[*].Status
	show  domain.Show
	index map[string]int
}

// Store owns all in-process state. It is constructed once at start-up and
// handed to the services that need it.
type Store struct {
	mu           sync.RWMutex
	theatres     map[uuid.UUID]domain.Theatre
	cityTheatres map[domain.City][]uuid.UUID
	shows        map[uuid.UUID]*showEntry
	showsByDay   map[uuid.UUID]map[string][]uuid.UUID

	usersMu      sync.RWMutex
	users        map[uuid.UUID]domain.User
	usersByEmail map[string]uuid.UUID

	ledgerMu     sync.RWMutex
	bookings     map[uuid.UUID]*domain.Booking
	userBookings map[uuid.UUID][]uuid.UUID

	now   func() time.Time
	newID func() uuid.UUID
}

func NewStore() *Store {
	return &Store{
		theatres:     make(map[uuid.UUID]domain.Theatre),
		cityTheatres: make(map[domain.City][]uuid.UUID),
		shows:        make(map[uuid.UUID]*showEntry),
		showsByDay:   make(map[uuid.UUID]map[string][]uuid.UUID),
		users:        make(map[uuid.UUID]domain.User),
		usersByEmail: make(map[string]uuid.UUID),
		bookings:     make(map[uuid.UUID]*domain.Booking),
		userBookings: make(map[uuid.UUID][]uuid.UUID),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.New,
	}
}

func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }
func (s *Store) Seats() *SeatRepo       { return &SeatRepo{s: s} }
func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }
func (s *Store) Bookings() *LedgerRepo  { return &LedgerRepo{s: s} }

func (s *Store) entry(showID uuid.UUID) (*showEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.shows[showID]
	return e, ok
}

func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// RunTx runs fn directly. Each repository call is already atomic on its own.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
