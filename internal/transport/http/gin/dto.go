package httpgin

import (
	"time"

	"github.com/kirinyoku/showbook/internal/domain"
)

type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type CreateTheatreRequest struct {
	Name    string `json:"name" binding:"required"`
	City    string `json:"city" binding:"required"`
	Pincode string `json:"pincode"`
	Street  string `json:"street"`
}

type CreateShowRequest struct {
	Movie     string      `json:"movie" binding:"required"`
	StartsAt  time.Time   `json:"starts_at" binding:"required"`
	EndsAt    time.Time   `json:"ends_at" binding:"required,gtfield=StartsAt"`
	BasePrice int64       `json:"base_price" binding:"gte=0"`
	Seats     []SeatInput `json:"seats" binding:"required,min=1,dive"`
}

type SeatInput struct {
	ID       string `json:"id" binding:"required,seatid"`
	Category string `json:"category" binding:"required,oneof=basic premium"`
}

type CreateBookingRequest struct {
	UserID  string   `json:"user_id" binding:"required,uuid"`
	SeatIDs []string `json:"seat_ids" binding:"required,min=1,dive,seatid"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	SeatID string `json:"seat_id,omitempty"`
}

type CreateUserResponse struct {
	UserID string `json:"user_id"`
}

type CreateTheatreResponse struct {
	TheatreID string `json:"theatre_id"`
}

type CreateShowResponse struct {
	ShowID string `json:"show_id"`
}

type CreateBookingResponse struct {
	BookingID string `json:"booking_id"`
	Amount    int64  `json:"amount"`
}

func (r CreateShowRequest) toDomain() domain.Show {
	seats := make([]domain.Seat, len(r.Seats))
	for i, s := range r.Seats {
		seats[i] = domain.Seat{ID: s.ID, Category: domain.SeatCategory(s.Category)}
	}

	return domain.Show{
		Movie:     r.Movie,
		StartsAt:  r.StartsAt.UTC(),
		EndsAt:    r.EndsAt.UTC(),
		BasePrice: r.BasePrice,
		Seats:     seats,
	}
}
