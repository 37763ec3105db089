package domain

import "fmt"

// PremiumSurcharge is added to the show's base price for every premium seat.
const PremiumSurcharge int64 = 100

func SeatPrice(basePrice int64, category SeatCategory) int64 {
	if category == SeatPremium {
		return basePrice + PremiumSurcharge
	}
	return basePrice
}

// Price sums the per-seat price of the requested seats of show.
func Price(show *Show, seatIDs []string) (int64, error) {
	var total int64
	for _, id := range seatIDs {
		seat, ok := show.Seat(id)
		if !ok {
			return 0, fmt.Errorf("seat %q does not belong to show %s", id, show.ID)
		}
		total += SeatPrice(show.BasePrice, seat.Category)
	}
	return total, nil
}
