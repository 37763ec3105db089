package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
)

// GetTheatre retrieves a theatre by its ID.
//
// Returns:
//   - *domain.Theatre: the theatre when found.
//   - error: repository.ErrNotFound if the theatre is not found.
func (r *CatalogRepo) GetTheatre(ctx context.Context, id uuid.UUID) (*domain.Theatre, error) {
	const op = "postgres.CatalogRepo.GetTheatre"

	var (
		t    domain.Theatre
		city string
	)
	err := handle(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, city, pincode, street
		 FROM theatres WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &city, &t.Address.Pincode, &t.Address.Street)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	t.Address.City = domain.City(city)

	return &t, nil
}

// TheatresForCity lists the theatres of a city in registration order.
func (r *CatalogRepo) TheatresForCity(ctx context.Context, city domain.City) ([]domain.Theatre, error) {
	const op = "postgres.CatalogRepo.TheatresForCity"

	rows, err := handle(ctx, r.pool).Query(ctx,
		`SELECT id, name, city, pincode, street
		 FROM theatres
		 WHERE city = $1
		 ORDER BY created_at, id`,
		string(city),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Theatre{}
	for rows.Next() {
		var (
			t domain.Theatre
			c string
		)
		if err := rows.Scan(&t.ID, &t.Name, &c, &t.Address.Pincode, &t.Address.Street); err != nil {
			return nil, wrapDBErr(op, err)
		}
		t.Address.City = domain.City(c)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// GetShow retrieves a show with the current status of each of its seats.
//
// Returns:
//   - *domain.Show: the show when found.
//   - error: repository.ErrNotFound if the show is not found.
func (r *CatalogRepo) GetShow(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
	const op = "postgres.CatalogRepo.GetShow"

	db := handle(ctx, r.pool)

	var s domain.Show
	err := db.QueryRow(ctx,
		`SELECT id, theatre_id, movie, starts_at, ends_at, base_price
		 FROM shows WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.TheatreID, &s.Movie, &s.StartsAt, &s.EndsAt, &s.BasePrice)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	seats, err := r.seatsOf(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.Seats = seats[id]

	return &s, nil
}

// ShowsForDate lists the shows of a theatre starting on the given UTC day,
// ordered by start time.
func (r *CatalogRepo) ShowsForDate(ctx context.Context, theatreID uuid.UUID, date time.Time) ([]domain.Show, error) {
	const op = "postgres.CatalogRepo.ShowsForDate"

	y, m, d := date.UTC().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	rows, err := handle(ctx, r.pool).Query(ctx,
		`SELECT id, theatre_id, movie, starts_at, ends_at, base_price
		 FROM shows
		 WHERE theatre_id = $1
		 	AND starts_at >= $2
		 	AND starts_at < $3
		 ORDER BY starts_at, id`,
		theatreID, from, from.AddDate(0, 0, 1),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out := []domain.Show{}
	for rows.Next() {
		var s domain.Show
		if err := rows.Scan(&s.ID, &s.TheatreID, &s.Movie, &s.StartsAt, &s.EndsAt, &s.BasePrice); err != nil {
			rows.Close()
			return nil, wrapDBErr(op, err)
		}
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if len(out) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}

	seats, err := r.seatsOf(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	for i := range out {
		out[i].Seats = seats[out[i].ID]
	}

	return out, nil
}

func (r *CatalogRepo) seatsOf(ctx context.Context, showIDs []uuid.UUID) (map[uuid.UUID][]domain.Seat, error) {
	const op = "postgres.CatalogRepo.seatsOf"

	rows, err := handle(ctx, r.pool).Query(ctx,
		`SELECT show_id, seat_id, category, status
		 FROM show_seats
		 WHERE show_id = ANY($1)
		 ORDER BY show_id, position`,
		showIDs,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make(map[uuid.UUID][]domain.Seat, len(showIDs))
	for rows.Next() {
		var (
			showID           uuid.UUID
			seat             domain.Seat
			category, status string
		)
		if err := rows.Scan(&showID, &seat.ID, &category, &status); err != nil {
			return nil, wrapDBErr(op, err)
		}
		seat.Category = domain.SeatCategory(category)
		seat.Status = domain.SeatStatus(status)
		out[showID] = append(out[showID], seat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
