package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository"
)

type CatalogRepo struct {
	s *Store
}

func (r *CatalogRepo) CreateTheatre(ctx context.Context, t *domain.Theatre) error {
	const op = "memory.CatalogRepo.CreateTheatre"

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.theatres[t.ID]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	r.s.theatres[t.ID] = *t
	r.s.cityTheatres[t.Address.City] = append(r.s.cityTheatres[t.Address.City], t.ID)

	return nil
}

func (r *CatalogRepo) GetTheatre(ctx context.Context, id uuid.UUID) (*domain.Theatre, error) {
	const op = "memory.CatalogRepo.GetTheatre"

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.theatres[id]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return &t, nil
}

// TheatresForCity returns the theatres of a city in registration order.
func (r *CatalogRepo) TheatresForCity(ctx context.Context, city domain.City) ([]domain.Theatre, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := r.s.cityTheatres[city]
	out := make([]domain.Theatre, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.theatres[id])
	}

	return out, nil
}

// CreateShow registers a show and initializes all its seats as free.
//
// Returns:
//   - error: repository.ErrNotFound if the theatre does not exist.
//   - error: repository.ErrConflict if a show with the same ID exists.
func (r *CatalogRepo) CreateShow(ctx context.Context, show *domain.Show) error {
	const op = "memory.CatalogRepo.CreateShow"

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.theatres[show.TheatreID]; !ok {
		return fmt.Errorf("%s: theatre: %w", op, repository.ErrNotFound)
	}
	if _, ok := r.s.shows[show.ID]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	e := &showEntry{
		show:  *show,
		index: make(map[string]int, len(show.Seats)),
	}
	e.show.Seats = make([]domain.Seat, len(show.Seats))
	for i, seat := range show.Seats {
		seat.Status = domain.SeatFree
		e.show.Seats[i] = seat
		e.index[seat.ID] = i
	}

	r.s.shows[show.ID] = e

	days, ok := r.s.showsByDay[show.TheatreID]
	if !ok {
		days = make(map[string][]uuid.UUID)
		r.s.showsByDay[show.TheatreID] = days
	}
	key := dayKey(show.StartsAt)
	days[key] = append(days[key], show.ID)

	return nil
}

// GetShow returns a snapshot of the show with the current status of each seat.
func (r *CatalogRepo) GetShow(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
	const op = "memory.CatalogRepo.GetShow"

	e, ok := r.s.entry(id)
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return snapshot(e), nil
}

// ShowsForDate lists the shows of a theatre starting on the given day,
// ordered by start time.
func (r *CatalogRepo) ShowsForDate(ctx context.Context, theatreID uuid.UUID, date time.Time) ([]domain.Show, error) {
	r.s.mu.RLock()
	ids := r.s.showsByDay[theatreID][dayKey(date)]
	entries := make([]*showEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, r.s.shows[id])
	}
	r.s.mu.RUnlock()

	out := make([]domain.Show, 0, len(entries))
	for _, e := range entries {
		out = append(out, *snapshot(e))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})

	return out, nil
}

func snapshot(e *showEntry) *domain.Show {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp := e.show
	cp.Seats = append([]domain.Seat(nil), e.show.Seats...)
	return &cp
}
