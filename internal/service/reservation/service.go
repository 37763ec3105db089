package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/kirinyoku/showbook/internal/service/reservation"

type SeatStore interface {
	HoldSeats(ctx context.Context, showID uuid.UUID, seatIDs []string) error
	ReleaseSeats(ctx context.Context, showID uuid.UUID, seatIDs []string) error
	BookSeats(ctx context.Context, showID uuid.UUID, seatIDs []string) error
}

type Ledger interface {
	CreateBooking(ctx context.Context, draft domain.BookingDraft) (*domain.Booking, error)
}

type Shows interface {
	GetShow(ctx context.Context, id uuid.UUID) (*domain.Show, error)
}

type Users interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type PaymentGateway interface {
	Charge(ctx context.Context, c domain.Charge) error
}

// Alerter is told about every charge that did not end in a recorded booking:
// charged bookings the ledger failed to record, and charges the gateway
// completed after the engine had given up on them and released the seats.
type Alerter interface {
	LedgerWriteFailed(ctx context.Context, err *LedgerWriteFailedError)
	ChargeAfterTimeout(ctx context.Context, c domain.Charge, seatIDs []string)
}

// Notifier is told about every show whose seats were booked.
type Notifier interface {
	ShowChanged(ctx context.Context, showID uuid.UUID)
}

type Config struct {
	// PaymentTimeout bounds a single charge attempt.
	PaymentTimeout time.Duration
	// ReleaseTimeout bounds the release of a hold after a failed charge.
	ReleaseTimeout time.Duration
	// BookAttempts bounds how often held seats are moved to booked after
	// the charge before the hold is given up.
	BookAttempts int
	// BookBackoff is the wait before the second attempt; it grows linearly.
	BookBackoff time.Duration
}

type Deps struct {
	Seats    SeatStore
	Ledger   Ledger
	Shows    Shows
	Users    Users
	Payments PaymentGateway
	Alerter  Alerter
	Notifier Notifier
	Logger   *slog.Logger
}

// Engine turns a booking request into a recorded booking: it holds the
// seats, charges the user, then books the seats and writes the ledger.
type Engine struct {
	seats    SeatStore
	ledger   Ledger
	shows    Shows
	users    Users
	payments PaymentGateway
	alerter  Alerter
	notifier Notifier
	log      *slog.Logger
	cfg      Config

	tracer   trace.Tracer
	outcomes metric.Int64Counter
}

func New(deps Deps, cfg Config) *Engine {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}

	if cfg.ReleaseTimeout <= 0 {
		cfg.ReleaseTimeout = 5 * time.Second
	}

	if cfg.BookAttempts <= 0 {
		cfg.BookAttempts = 3
	}

	if cfg.BookBackoff <= 0 {
		cfg.BookBackoff = 50 * time.Millisecond
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	outcomes, err := otel.Meter(instrumentationName).Int64Counter(
		"showbook.reservations",
		metric.WithDescription("Booking requests by outcome."),
	)
	if err != nil {
		log.Warn("reservation counter unavailable", slog.Any("err", err))
		outcomes, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("showbook.reservations")
	}

	return &Engine{
		seats:    deps.Seats,
		ledger:   deps.Ledger,
		shows:    deps.Shows,
		users:    deps.Users,
		payments: deps.Payments,
		alerter:  deps.Alerter,
		notifier: deps.Notifier,
		log:      log.With(slog.String("component", "reservation")),
		cfg:      cfg,
		tracer:   otel.Tracer(instrumentationName),
		outcomes: outcomes,
	}
}

// Reserve books seatIDs of a show for a user, or books nothing.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - showID: show the seats belong to.
//   - userID: user being charged for the booking.
//   - seatIDs: requested seats; non-empty, without duplicates.
//
// Returns:
//   - *domain.Booking: the recorded booking.
//   - error: reservation.ErrInvalidRequest (ErrShowNotFound for an unknown show)
//     before anything is mutated.
//   - error: *reservation.SeatUnavailableError if a seat is held or booked.
//   - error: *reservation.PaymentFailedError if the charge is declined, fails
//     or times out; the held seats are free again.
//   - error: *reservation.LedgerWriteFailedError if the user was charged but the
//     booking could not be recorded; its SeatStatus says where the seats were left.
func (e *Engine) Reserve(
	ctx context.Context,
	showID, userID uuid.UUID,
	seatIDs []string,
) (*domain.Booking, error) {
	const op = "service.reservation.Reserve"

	ctx, span := e.tracer.Start(ctx, "reservation.Reserve", trace.WithAttributes(
		attribute.String("show.id", showID.String()),
		attribute.String("user.id", userID.String()),
		attribute.Int("seats.count", len(seatIDs)),
	))
	defer span.End()

	b, err := e.reserve(ctx, showID, userID, seatIDs)

	outcome := outcomeOf(err)
	e.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(attribute.String("reservation.outcome", outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

func (e *Engine) reserve(
	ctx context.Context,
	showID, userID uuid.UUID,
	seatIDs []string,
) (*domain.Booking, error) {
	show, err := e.validate(ctx, showID, userID, seatIDs)
	if err != nil {
		return nil, err
	}

	seatIDs = append([]string(nil), seatIDs...)

	if err := e.hold(ctx, showID, seatIDs); err != nil {
		return nil, err
	}

	amount, err := domain.Price(show, seatIDs)
	if err != nil {
		e.release(ctx, showID, seatIDs)
		return nil, &InvalidRequestError{Reason: err.Error()}
	}

	charge := domain.Charge{
		Reference: uuid.New(),
		UserID:    userID,
		ShowID:    showID,
		Amount:    amount,
	}

	if err := e.charge(ctx, charge, seatIDs); err != nil {
		e.release(ctx, showID, seatIDs)
		e.log.WarnContext(ctx, "payment failed, hold released",
			slog.String("show_id", showID.String()),
			slog.String("user_id", userID.String()),
			slog.Any("seats", seatIDs),
			slog.Int64("amount", amount),
			slog.Any("err", err),
		)
		return nil, &PaymentFailedError{Amount: amount, Err: err}
	}

	draft := domain.BookingDraft{
		UserID: userID,
		ShowID: showID,
		Seats:  bookedSeats(show, seatIDs),
		Amount: amount,
	}

	// The user has paid: the rest runs even if the caller goes away.
	commitCtx := context.WithoutCancel(ctx)

	if err := e.book(commitCtx, showID, seatIDs); err != nil {
		// Seats we held that are no longer held were booked by an attempt
		// whose reply was lost.
		left := domain.SeatBooked
		if !errors.Is(err, repository.ErrSeatNotHeld) {
			left = domain.SeatHeld
			if e.release(commitCtx, showID, seatIDs) == nil {
				left = domain.SeatFree
			}
		}
		return nil, e.ledgerFailed(commitCtx, draft, left, err)
	}

	b, err := e.ledger.CreateBooking(commitCtx, draft)
	if err != nil {
		return nil, e.ledgerFailed(commitCtx, draft, domain.SeatBooked, err)
	}

	e.log.InfoContext(ctx, "booking created",
		slog.String("booking_id", b.ID.String()),
		slog.String("show_id", showID.String()),
		slog.String("user_id", userID.String()),
		slog.Any("seats", seatIDs),
		slog.Int64("amount", amount),
	)

	if e.notifier != nil {
		e.notifier.ShowChanged(commitCtx, showID)
	}

	return b, nil
}

func (e *Engine) validate(
	ctx context.Context,
	showID, userID uuid.UUID,
	seatIDs []string,
) (*domain.Show, error) {
	if len(seatIDs) == 0 {
		return nil, &InvalidRequestError{Reason: "no seats requested"}
	}

	seen := make(map[string]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if strings.TrimSpace(id) == "" {
			return nil, &InvalidRequestError{Reason: "blank seat id"}
		}
		if _, dup := seen[id]; dup {
			return nil, &InvalidRequestError{Reason: fmt.Sprintf("seat %s requested twice", id)}
		}
		seen[id] = struct{}{}
	}

	if _, err := e.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &InvalidRequestError{Reason: fmt.Sprintf("user %s not found", userID)}
		}
		return nil, err
	}

	show, err := e.shows.GetShow(ctx, showID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}

	for _, id := range seatIDs {
		if _, ok := show.Seat(id); !ok {
			return nil, &InvalidRequestError{Reason: fmt.Sprintf("seat %s is not part of show %s", id, showID)}
		}
	}

	return show, nil
}

func (e *Engine) hold(ctx context.Context, showID uuid.UUID, seatIDs []string) error {
	err := e.seats.HoldSeats(ctx, showID, seatIDs)
	if err == nil {
		return nil
	}

	var conflict *repository.SeatConflictError
	switch {
	case errors.As(err, &conflict):
		return &SeatUnavailableError{ShowID: showID, SeatID: conflict.SeatID}
	case errors.Is(err, repository.ErrSeatsUnavailable):
		return &SeatUnavailableError{ShowID: showID}
	case errors.Is(err, repository.ErrNotFound):
		return ErrShowNotFound
	case errors.Is(err, repository.ErrUnknownSeat):
		return &InvalidRequestError{Reason: err.Error()}
	default:
		return err
	}
}

// charge runs the gateway under the payment timeout. A gateway that ignores
// its context is abandoned when the timeout fires; if it later reports a
// success, the user was charged for seats that are already released, so the
// operator is alerted.
func (e *Engine) charge(ctx context.Context, c domain.Charge, seatIDs []string) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.PaymentTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- e.payments.Charge(ctx, c)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		go e.watchLateCharge(context.WithoutCancel(ctx), c, seatIDs, done)
		return ctx.Err()
	}
}

func (e *Engine) watchLateCharge(ctx context.Context, c domain.Charge, seatIDs []string, done <-chan error) {
	if err := <-done; err != nil {
		return
	}

	e.log.ErrorContext(ctx, "charge succeeded after the payment timeout, seats were released",
		slog.String("reference", c.Reference.String()),
		slog.String("user_id", c.UserID.String()),
		slog.String("show_id", c.ShowID.String()),
		slog.Any("seats", seatIDs),
		slog.Int64("amount", c.Amount),
	)

	if e.alerter != nil {
		e.alerter.ChargeAfterTimeout(ctx, c, seatIDs)
	}
}

// book moves held seats to booked, retrying transient store errors. Seats
// that are no longer held are not retried.
func (e *Engine) book(ctx context.Context, showID uuid.UUID, seatIDs []string) error {
	var err error
	for attempt := 1; attempt <= e.cfg.BookAttempts; attempt++ {
		err = e.seats.BookSeats(ctx, showID, seatIDs)
		if err == nil || errors.Is(err, repository.ErrSeatNotHeld) {
			return err
		}

		e.log.WarnContext(ctx, "booking held seats failed",
			slog.String("show_id", showID.String()),
			slog.Any("seats", seatIDs),
			slog.Int("attempt", attempt),
			slog.Any("err", err),
		)

		if attempt < e.cfg.BookAttempts {
			time.Sleep(time.Duration(attempt) * e.cfg.BookBackoff)
		}
	}
	return err
}

// release frees a hold even when the request itself was cancelled.
func (e *Engine) release(ctx context.Context, showID uuid.UUID, seatIDs []string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.ReleaseTimeout)
	defer cancel()

	err := e.seats.ReleaseSeats(ctx, showID, seatIDs)
	if err != nil {
		e.log.ErrorContext(ctx, "release hold failed",
			slog.String("show_id", showID.String()),
			slog.Any("seats", seatIDs),
			slog.Any("err", err),
		)
	}
	return err
}

func (e *Engine) ledgerFailed(
	ctx context.Context,
	draft domain.BookingDraft,
	left domain.SeatStatus,
	cause error,
) error {
	lerr := &LedgerWriteFailedError{Draft: draft, SeatStatus: left, Err: cause}

	seats := make([]string, len(draft.Seats))
	for i, s := range draft.Seats {
		seats[i] = s.ID
	}

	e.log.ErrorContext(ctx, "charged booking not recorded",
		slog.String("user_id", draft.UserID.String()),
		slog.String("show_id", draft.ShowID.String()),
		slog.Any("seats", seats),
		slog.Int64("amount", draft.Amount),
		slog.String("seat_status", string(left)),
		slog.Any("err", cause),
	)

	if e.alerter != nil {
		e.alerter.LedgerWriteFailed(ctx, lerr)
	}

	return lerr
}

func bookedSeats(show *domain.Show, seatIDs []string) []domain.Seat {
	out := make([]domain.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		seat, _ := show.Seat(id)
		seat.Status = domain.SeatBooked
		out = append(out, seat)
	}
	return out
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrSeatUnavailable):
		return "seat_unavailable"
	case errors.Is(err, ErrPaymentFailed):
		return "payment_failed"
	case errors.Is(err, ErrLedgerWriteFailed):
		return "ledger_write_failed"
	default:
		return "error"
	}
}
