package service

import (
	"log/slog"

	redisrepo "github.com/kirinyoku/showbook/internal/repository/redis"
	"github.com/kirinyoku/showbook/internal/service/bookings"
	"github.com/kirinyoku/showbook/internal/service/catalog"
	"github.com/kirinyoku/showbook/internal/service/reservation"
	"github.com/kirinyoku/showbook/internal/service/users"
	"github.com/kirinyoku/showbook/internal/uow"
)

type Services struct {
	Reservation *reservation.Engine
	Catalog     *catalog.Service
	Users       *users.Service
	Bookings    *bookings.Service
}

type Config struct {
	Reservation reservation.Config
	Catalog     catalog.Config
}

type Ledger interface {
	reservation.Ledger
	bookings.Ledger
}

// Backend is a storage backend providing every repository the services use.
type Backend struct {
	Catalog catalog.Repo
	Seats   reservation.SeatStore
	Users   users.Repo
	Ledger  Ledger
	Tx      uow.TxRunner
}

type Deps struct {
	Backend  Backend
	Cache    *redisrepo.Cache
	PubSub   catalog.Publisher
	Payments reservation.PaymentGateway
	Alerter  reservation.Alerter
	Logger   *slog.Logger
}

func NewServices(deps Deps, cfg Config) *Services {
	b := deps.Backend

	catalogSvc := catalog.New(b.Catalog, b.Tx, deps.Cache, deps.PubSub, deps.Logger, cfg.Catalog)
	usersSvc := users.New(b.Users)

	engine := reservation.New(reservation.Deps{
		Seats:    b.Seats,
		Ledger:   b.Ledger,
		Shows:    b.Catalog,
		Users:    b.Users,
		Payments: deps.Payments,
		Alerter:  deps.Alerter,
		Notifier: catalogSvc,
		Logger:   deps.Logger,
	}, cfg.Reservation)

	return &Services{
		Reservation: engine,
		Catalog:     catalogSvc,
		Users:       usersSvc,
		Bookings:    bookings.New(b.Ledger),
	}
}
