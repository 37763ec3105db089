package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SeatCategory string

const (
	SeatBasic   SeatCategory = "basic"
	SeatPremium SeatCategory = "premium"
)

func (c SeatCategory) Valid() bool {
	return c == SeatBasic || c == SeatPremium
}

type SeatStatus string

const (
	SeatFree   SeatStatus = "free"
	SeatHeld   SeatStatus = "held"
	SeatBooked SeatStatus = "booked"
)

// City is a normalized (trimmed, lowercase) city name.
type City string

const (
	CityDelhi  City = "delhi"
	CityMumbai City = "mumbai"
	CityNCR    City = "ncr"
)

func NewCity(name string) City {
	return City(strings.ToLower(strings.TrimSpace(name)))
}

type Address struct {
	City    City   `json:"city"`
	Pincode string `json:"pincode"`
	Street  string `json:"street"`
}

type Theatre struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address Address   `json:"address"`
}

// Seat is identified by ID only within the show that owns it.
type Seat struct {
	ID       string       `json:"id"`
	Category SeatCategory `json:"category"`
	Status   SeatStatus   `json:"status"`
}

type Show struct {
	ID        uuid.UUID `json:"id"`
	TheatreID uuid.UUID `json:"theatre_id"`
	Movie     string    `json:"movie"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	BasePrice int64     `json:"base_price"`
	Seats     []Seat    `json:"seats"`
}

// Seat looks up a seat of the show by its identifier.
func (s *Show) Seat(id string) (Seat, bool) {
	for _, seat := range s.Seats {
		if seat.ID == id {
			return seat, true
		}
	}
	return Seat{}, false
}

// Date is the UTC calendar day the show starts on.
func (s *Show) Date() time.Time {
	y, m, d := s.StartsAt.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail returns the form of an email address used as the unique user key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BookingDraft is everything the ledger needs to record a booking; the ledger
// assigns the identifier and the creation time.
type BookingDraft struct {
	UserID uuid.UUID `json:"user_id"`
	ShowID uuid.UUID `json:"show_id"`
	Seats  []Seat    `json:"seats"`
	Amount int64     `json:"amount"`
}

type Booking struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ShowID    uuid.UUID `json:"show_id"`
	Seats     []Seat    `json:"seats"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy so callers can never mutate a ledger record.
func (b *Booking) Clone() *Booking {
	cp := *b
	cp.Seats = append([]Seat(nil), b.Seats...)
	return &cp
}

// Charge is the request handed to a payment gateway.
type Charge struct {
	Reference uuid.UUID
	UserID    uuid.UUID
	ShowID    uuid.UUID
	Amount    int64
}
