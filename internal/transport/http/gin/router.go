package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	redisx "github.com/kirinyoku/showbook/internal/redis"
	redisrepo "github.com/kirinyoku/showbook/internal/repository/redis"
	"github.com/kirinyoku/showbook/internal/service"
	"github.com/kirinyoku/showbook/internal/service/reservation"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const idemLockTTL = 60 * time.Second

// IdempotencyStore remembers the response given under an Idempotency-Key.
type IdempotencyStore interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	SaveResult(ctx context.Context, key string, resp redisrepo.StoredResponse) error
	GetResult(ctx context.Context, key string) (*redisrepo.StoredResponse, bool, error)
	Release(ctx context.Context, key string) error
}

// NewRouter builds the HTTP API. idem and limiter may be nil, which turns off
// Idempotency-Key handling and rate limiting.
func NewRouter(
	svcs *service.Services,
	idem IdempotencyStore,
	limiter RateLimiter,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	registerValidators()

	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/users", handleRegisterUser(svcs))
	r.GET("/users", handleGetUserByEmail(svcs))
	r.GET("/users/:id/bookings", handleListUserBookings(svcs))

	r.GET("/cities/:city/shows", handleShowsByCity(svcs))
	r.GET("/shows/:id", handleGetShow(svcs))
	r.POST("/shows/:id/bookings", RateLimit(limiter, logger), handleCreateBooking(svcs, idem))

	r.GET("/bookings/:id", handleGetBooking(svcs))

	// TODO: protect /admin once operator accounts exist.
	admin := r.Group("/admin")
	{
		admin.POST("/theatres", handleCreateTheatre(svcs))
		admin.POST("/theatres/:id/shows", handleCreateShow(svcs))
	}

	return r
}

// @Summary  Register user
// @Param    req body  CreateUserRequest true "payload"
// @Success  201 {object} CreateUserResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "email already registered"
// @Router   /users [post]
func handleRegisterUser(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		u, err := svcs.Users.Register(c.Request.Context(), req.Name, req.Email)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateUserResponse{UserID: u.ID.String()})
	}
}

// @Summary  Find user by email
// @Param    email  query  string  true  "Email"
// @Success  200 {object} domain.User
// @Failure  404 {object} ErrorResponse
// @Router   /users [get]
func handleGetUserByEmail(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.Query("email"))
		if email == "" {
			badRequest(c, "email is required")
			return
		}
		u, err := svcs.Users.GetByEmail(c.Request.Context(), email)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary  List bookings of a user
// @Param    id  path  string  true  "User ID (uuid)"
// @Success  200 {array} domain.Booking
// @Failure  404 {object} ErrorResponse
// @Router   /users/{id}/bookings [get]
func handleListUserBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if _, err := svcs.Users.Get(c.Request.Context(), userID); err != nil {
			respondErr(c, err)
			return
		}
		list, err := svcs.Bookings.ListByUser(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Shows of a city on a day
// @Param    city  path   string  true   "City"
// @Param    date  query  string  false  "YYYY-MM-DD, defaults to today (UTC)"
// @Success  200 {array} domain.Show
// @Failure  400 {object} ErrorResponse
// @Router   /cities/{city}/shows [get]
func handleShowsByCity(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := time.Now().UTC()
		if raw := c.Query("date"); raw != "" {
			d, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				badRequest(c, "invalid date (YYYY-MM-DD)")
				return
			}
			date = d
		}
		shows, err := svcs.Catalog.ShowsByCity(c.Request.Context(), domain.City(c.Param("city")), date)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, shows, cacheListing)
	}
}

// @Summary  Get show with seat statuses
// @Param    id  path  string  true  "Show ID (uuid)"
// @Success  200 {object} domain.Show
// @Failure  404 {object} ErrorResponse
// @Router   /shows/{id} [get]
func handleGetShow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		showID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		show, err := svcs.Catalog.GetShow(c.Request.Context(), showID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, show, cacheSeatMap)
	}
}

// @Summary  Book seats (idempotent)
// @Param    id  path  string  true  "Show ID (uuid)"
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CreateBookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  402 {object} ErrorResponse "payment failed"
// @Failure  404 {object} ErrorResponse "show not found"
// @Failure  409 {object} ErrorResponse "seat unavailable / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Failure  500 {object} ErrorResponse "ledger write failed"
// @Router   /shows/{id}/bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		showID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			badRequest(c, "invalid user_id")
			return
		}

		ctx := c.Request.Context()

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisx.KeyIdemBooking(showID, idemKey)

			if replayStored(c, idem, idemStorageKey, idemKey) {
				return
			}

			locked, err := idem.AcquireLock(ctx, idemStorageKey, idemLockTTL)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if replayStored(c, idem, idemStorageKey, idemKey) {
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		b, err := svcs.Reservation.Reserve(ctx, showID, userID, req.SeatIDs)
		if err != nil {
			switch {
			case idemStorageKey == "":
			case errors.Is(err, reservation.ErrLedgerWriteFailed):
				// The user was charged; a retry must see the same failure.
				body, _ := json.Marshal(ledgerWriteFailedResponse)
				stored := redisrepo.StoredResponse{Status: http.StatusInternalServerError, Body: body}
				if err := idem.SaveResult(context.WithoutCancel(ctx), idemStorageKey, stored); err != nil {
					_ = c.Error(err)
				}
				c.Header("Idempotency-Key", idemKey)
			default:
				_ = idem.Release(ctx, idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := CreateBookingResponse{BookingID: b.ID.String(), Amount: b.Amount}

		if idemStorageKey != "" {
			body, _ := json.Marshal(resp)
			stored := redisrepo.StoredResponse{Status: http.StatusCreated, Body: body}
			if err := idem.SaveResult(ctx, idemStorageKey, stored); err != nil {
				_ = c.Error(err)
			}
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} domain.Booking
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Bookings.Get(c.Request.Context(), bookingID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Create theatre
// @Param    req body  CreateTheatreRequest true "payload"
// @Success  201 {object} CreateTheatreResponse
// @Failure  400 {object} ErrorResponse
// @Router   /admin/theatres [post]
func handleCreateTheatre(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTheatreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		t, err := svcs.Catalog.CreateTheatre(c.Request.Context(), req.Name, domain.Address{
			City:    domain.City(req.City),
			Pincode: req.Pincode,
			Street:  req.Street,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateTheatreResponse{TheatreID: t.ID.String()})
	}
}

// @Summary  Create show with its seats
// @Param    id  path  string  true  "Theatre ID (uuid)"
// @Param    req body  CreateShowRequest true "payload"
// @Success  201 {object} CreateShowResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "theatre not found"
// @Router   /admin/theatres/{id}/shows [post]
func handleCreateShow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		theatreID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CreateShowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		show := req.toDomain()
		show.TheatreID = theatreID

		created, err := svcs.Catalog.CreateShow(c.Request.Context(), show)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateShowResponse{ShowID: created.ID.String()})
	}
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// replayStored writes the stored response for an idempotency key, if any.
func replayStored(c *gin.Context, idem IdempotencyStore, storageKey, idemKey string) bool {
	stored, ok, _ := idem.GetResult(c.Request.Context(), storageKey)
	if !ok {
		return false
	}
	c.Header("Idempotency-Key", idemKey)
	c.Header("Idempotent-Replayed", "true")
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
	return true
}
