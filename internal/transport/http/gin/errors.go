package httpgin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/showbook/internal/service/bookings"
	"github.com/kirinyoku/showbook/internal/service/catalog"
	"github.com/kirinyoku/showbook/internal/service/reservation"
	"github.com/kirinyoku/showbook/internal/service/users"
)

const codeLedgerWriteFailed = "ledger_write_failed"

var ledgerWriteFailedResponse = ErrorResponse{
	Error: "payment taken but booking not recorded",
	Code:  codeLedgerWriteFailed,
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var (
		seatErr     *reservation.SeatUnavailableError
		invalidReq  *reservation.InvalidRequestError
		invalidShow *catalog.InvalidInputError
	)

	switch {
	// reservation engine
	case errors.Is(err, reservation.ErrShowNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "show not found"})
	case errors.As(err, &invalidReq):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: invalidReq.Reason})
	case errors.As(err, &seatErr):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "seat unavailable", SeatID: seatErr.SeatID})
	case errors.Is(err, reservation.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "payment failed"})
	case errors.Is(err, reservation.ErrLedgerWriteFailed):
		c.JSON(http.StatusInternalServerError, ledgerWriteFailedResponse)
	// catalog
	case errors.As(err, &invalidShow):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: invalidShow.Reason})
	case errors.Is(err, catalog.ErrTheatreNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "theatre not found"})
	case errors.Is(err, catalog.ErrShowNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "show not found"})
	case errors.Is(err, catalog.ErrShowConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "show conflict"})
	// users
	case errors.Is(err, users.ErrDuplicateUser):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
	case errors.Is(err, users.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
	case errors.Is(err, users.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: users.ErrInvalidUser.Error()})
	// bookings
	case errors.Is(err, bookings.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	if c.Writer.Status() >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
}
