package redisx

import (
	"fmt"

	"github.com/google/uuid"
)

const ns = "showbook:v1"

// KeyCityShows caches the show listing of a city for one UTC day.
func KeyCityShows(city, date string) string {
	return fmt.Sprintf("%s:city:%s:shows:%s", ns, city, date)
}

// KeyCityShowsPattern matches every cached day of a city's listing.
func KeyCityShowsPattern(city string) string {
	return fmt.Sprintf("%s:city:%s:shows:*", ns, city)
}

func KeyIdemBooking(showID uuid.UUID, idemKey string) string {
	return fmt.Sprintf("%s:idem:bookings:%s:%s", ns, showID, idemKey)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelShowsChanged() string {
	return ns + ":shows:changed"
}

func ChannelAlerts() string {
	return ns + ":alerts"
}
