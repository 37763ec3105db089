package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	show := &Show{
		ID:        uuid.New(),
		BasePrice: 300,
		Seats: []Seat{
			{ID: "B1", Category: SeatBasic},
			{ID: "B2", Category: SeatBasic},
			{ID: "P1", Category: SeatPremium},
		},
	}

	tests := []struct {
		name    string
		seatIDs []string
		want    int64
		wantErr bool
	}{
		{name: "one basic and one premium", seatIDs: []string{"B1", "P1"}, want: 700},
		{name: "basic only", seatIDs: []string{"B1", "B2"}, want: 600},
		{name: "premium only", seatIDs: []string{"P1"}, want: 400},
		{name: "no seats", seatIDs: nil, want: 0},
		{name: "foreign seat", seatIDs: []string{"B1", "X9"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(show, tt.seatIDs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeatPriceZeroBase(t *testing.T) {
	assert.Equal(t, int64(0), SeatPrice(0, SeatBasic))
	assert.Equal(t, PremiumSurcharge, SeatPrice(0, SeatPremium))
}

func TestNormalization(t *testing.T) {
	assert.Equal(t, CityDelhi, NewCity("  Delhi "))
	assert.Equal(t, "pranjal@example.com", NormalizeEmail(" Pranjal@Example.com"))
}

func TestBookingCloneIsDeep(t *testing.T) {
	b := &Booking{ID: uuid.New(), Seats: []Seat{{ID: "B1", Status: SeatBooked}}}

	cp := b.Clone()
	cp.Seats[0].ID = "changed"

	assert.Equal(t, "B1", b.Seats[0].ID)
}
