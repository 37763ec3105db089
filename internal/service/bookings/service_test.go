package bookings

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsStoredBooking(t *testing.T) {
	store := memory.NewStore()
	svc := New(store.Bookings())
	ctx := context.Background()

	user := uuid.New()
	created, err := store.Bookings().CreateBooking(ctx, domain.BookingDraft{
		UserID: user,
		ShowID: uuid.New(),
		Seats:  []domain.Seat{{ID: "B1", Category: domain.SeatBasic, Status: domain.SeatBooked}},
		Amount: 300,
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Fatalf("booking mismatch (-want +got):\n%s", diff)
	}

	list, err := svc.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrBookingNotFound)
}
