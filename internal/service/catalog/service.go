package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	redisx "github.com/kirinyoku/showbook/internal/redis"
	"github.com/kirinyoku/showbook/internal/repository"
	redisrepo "github.com/kirinyoku/showbook/internal/repository/redis"
	"github.com/kirinyoku/showbook/internal/uow"
)

type Repo interface {
	CreateTheatre(ctx context.Context, t *domain.Theatre) error
	GetTheatre(ctx context.Context, id uuid.UUID) (*domain.Theatre, error)
	TheatresForCity(ctx context.Context, city domain.City) ([]domain.Theatre, error)
	CreateShow(ctx context.Context, show *domain.Show) error
	GetShow(ctx context.Context, id uuid.UUID) (*domain.Show, error)
	ShowsForDate(ctx context.Context, theatreID uuid.UUID, date time.Time) ([]domain.Show, error)
}

type Publisher interface {
	PublishShowChanged(ctx context.Context, showID uuid.UUID, city string) error
}

type Config struct {
	CityShowsTTL time.Duration
}

type Service struct {
	repo   Repo
	uow    *uow.UoW
	cache  *redisrepo.Cache
	pubsub Publisher
	log    *slog.Logger
	cfg    Config
}

// New builds the catalog service. cache and pubsub may be nil, which turns
// off read-through caching and change broadcasts.
func New(
	repo Repo,
	tx uow.TxRunner,
	cache *redisrepo.Cache,
	pubsub Publisher,
	log *slog.Logger,
	cfg Config,
) *Service {
	if cfg.CityShowsTTL <= 0 {
		cfg.CityShowsTTL = 30 * time.Second
	}

	if log == nil {
		log = slog.Default()
	}

	return &Service{
		repo:   repo,
		uow:    uow.NewUoW(tx),
		cache:  cache,
		pubsub: pubsub,
		log:    log.With(slog.String("component", "catalog")),
		cfg:    cfg,
	}
}

// CreateTheatre registers a theatre in its city.
//
// Returns:
//   - *domain.Theatre: the created theatre with its ID.
//   - error: catalog.ErrInvalidInput if the name or city is empty.
func (s *Service) CreateTheatre(ctx context.Context, name string, addr domain.Address) (*domain.Theatre, error) {
	const op = "service.catalog.CreateTheatre"

	addr.City = domain.NewCity(string(addr.City))

	t := &domain.Theatre{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(name),
		Address: addr,
	}

	if t.Name == "" {
		return nil, fmt.Errorf("%s:%w", op, &InvalidInputError{Reason: "theatre name is required"})
	}

	if t.Address.City == "" {
		return nil, fmt.Errorf("%s:%w", op, &InvalidInputError{Reason: "city is required"})
	}

	if err := s.repo.CreateTheatre(ctx, t); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

// CreateShow adds a show with its seat inventory to a theatre. Every seat
// starts free. Cached listings of the theatre's city are dropped once the
// show is committed.
//
// Parameters:
//   - ctx: request-scoped context.
//   - show: the show to create; ID is assigned, seat statuses are ignored.
//
// Returns:
//   - *domain.Show: the created show.
//   - error: catalog.ErrInvalidInput if the show fails validation.
//   - error: catalog.ErrTheatreNotFound if the theatre does not exist.
func (s *Service) CreateShow(ctx context.Context, show domain.Show) (*domain.Show, error) {
	const op = "service.catalog.CreateShow"

	if err := validateShow(&show); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	show.ID = uuid.New()
	show.Seats = append([]domain.Seat(nil), show.Seats...)
	for i := range show.Seats {
		show.Seats[i].Status = domain.SeatFree
	}

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		theatre, err := s.repo.GetTheatre(ctx, show.TheatreID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTheatreNotFound
			}
			return err
		}

		if err := s.repo.CreateShow(ctx, &show); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return ErrTheatreNotFound
			case errors.Is(err, repository.ErrConflict):
				return ErrShowConflict
			}
			return err
		}

		city := string(theatre.Address.City)
		after(func(ctx context.Context) {
			s.invalidateCity(ctx, city)
			s.publish(ctx, show.ID, city)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &show, nil
}

func (s *Service) TheatresForCity(ctx context.Context, city domain.City) ([]domain.Theatre, error) {
	const op = "service.catalog.TheatresForCity"

	theatres, err := s.repo.TheatresForCity(ctx, domain.NewCity(string(city)))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return theatres, nil
}

func (s *Service) ShowsForDate(ctx context.Context, theatreID uuid.UUID, date time.Time) ([]domain.Show, error) {
	const op = "service.catalog.ShowsForDate"

	if _, err := s.repo.GetTheatre(ctx, theatreID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrTheatreNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	shows, err := s.repo.ShowsForDate(ctx, theatreID, date)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return shows, nil
}

// ShowsByCity lists the shows starting on date across every theatre of a
// city, theatres in registration order and each theatre's shows by start
// time. With a cache configured the listing is served read-through.
//
// Parameters:
//   - ctx: request-scoped context.
//   - city: city name, normalized before lookup.
//   - date: any instant of the wanted UTC day.
//
// Returns:
//   - []domain.Show: the shows; empty for an unknown city.
func (s *Service) ShowsByCity(ctx context.Context, city domain.City, date time.Time) ([]domain.Show, error) {
	const op = "service.catalog.ShowsByCity"

	city = domain.NewCity(string(city))

	load := func(ctx context.Context) ([]domain.Show, error) {
		return s.loadShowsByCity(ctx, city, date)
	}

	var (
		shows []domain.Show
		err   error
	)
	if s.cache != nil {
		key := redisx.KeyCityShows(string(city), date.UTC().Format(time.DateOnly))
		shows, err = redisrepo.GetOrSetJSON(ctx, s.cache, key, s.cfg.CityShowsTTL, load)
	} else {
		shows, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return shows, nil
}

func (s *Service) loadShowsByCity(ctx context.Context, city domain.City, date time.Time) ([]domain.Show, error) {
	theatres, err := s.repo.TheatresForCity(ctx, city)
	if err != nil {
		return nil, err
	}

	out := []domain.Show{}
	for _, t := range theatres {
		shows, err := s.repo.ShowsForDate(ctx, t.ID, date)
		if err != nil {
			return nil, err
		}
		out = append(out, shows...)
	}

	return out, nil
}

// GetShow returns a show with the live status of every seat.
//
// Returns:
//   - error: catalog.ErrShowNotFound if the show does not exist.
func (s *Service) GetShow(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
	const op = "service.catalog.GetShow"

	show, err := s.repo.GetShow(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrShowNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return show, nil
}

// SeatMap returns the current status of each seat of a show, keyed by seat ID.
func (s *Service) SeatMap(ctx context.Context, id uuid.UUID) (map[string]domain.SeatStatus, error) {
	show, err := s.GetShow(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.SeatStatus, len(show.Seats))
	for _, seat := range show.Seats {
		out[seat.ID] = seat.Status
	}

	return out, nil
}

// ShowChanged drops the cached listings that include the show and broadcasts
// the change. Failures are logged; listings expire on their own.
func (s *Service) ShowChanged(ctx context.Context, showID uuid.UUID) {
	if s.cache == nil && s.pubsub == nil {
		return
	}

	show, err := s.repo.GetShow(ctx, showID)
	if err != nil {
		s.log.WarnContext(ctx, "show changed: lookup failed",
			slog.String("show_id", showID.String()), slog.Any("err", err))
		return
	}

	theatre, err := s.repo.GetTheatre(ctx, show.TheatreID)
	if err != nil {
		s.log.WarnContext(ctx, "show changed: theatre lookup failed",
			slog.String("show_id", showID.String()), slog.Any("err", err))
		return
	}

	city := string(theatre.Address.City)
	s.invalidateCity(ctx, city)
	s.publish(ctx, showID, city)
}

// HandleShowChanged applies a change broadcast by any instance.
func (s *Service) HandleShowChanged(ctx context.Context, msg redisx.ShowChanged) {
	if msg.City != "" {
		s.invalidateCity(ctx, msg.City)
	}
}

func (s *Service) invalidateCity(ctx context.Context, city string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.InvalidateCity(ctx, city); err != nil {
		s.log.WarnContext(ctx, "invalidate city listing failed",
			slog.String("city", city), slog.Any("err", err))
	}
}

func (s *Service) publish(ctx context.Context, showID uuid.UUID, city string) {
	if s.pubsub == nil {
		return
	}

	if err := s.pubsub.PublishShowChanged(ctx, showID, city); err != nil {
		s.log.WarnContext(ctx, "publish show changed failed",
			slog.String("show_id", showID.String()), slog.Any("err", err))
	}
}

func validateShow(show *domain.Show) error {
	show.Movie = strings.TrimSpace(show.Movie)

	switch {
	case show.Movie == "":
		return &InvalidInputError{Reason: "movie is required"}
	case !show.EndsAt.After(show.StartsAt):
		return &InvalidInputError{Reason: "show must end after it starts"}
	case show.BasePrice < 0:
		return &InvalidInputError{Reason: "base price must not be negative"}
	case len(show.Seats) == 0:
		return &InvalidInputError{Reason: "show needs at least one seat"}
	}

	seen := make(map[string]struct{}, len(show.Seats))
	for _, seat := range show.Seats {
		if strings.TrimSpace(seat.ID) == "" {
			return &InvalidInputError{Reason: "seat id is required"}
		}
		if _, dup := seen[seat.ID]; dup {
			return &InvalidInputError{Reason: fmt.Sprintf("duplicate seat %s", seat.ID)}
		}
		if !seat.Category.Valid() {
			return &InvalidInputError{Reason: fmt.Sprintf("seat %s has unknown category %q", seat.ID, seat.Category)}
		}
		seen[seat.ID] = struct{}{}
	}

	return nil
}
