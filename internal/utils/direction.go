package utils

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// BearingBetweenPoints calculates the bearing in degrees [0, 360) from one point to another
func BearingBetweenPoints(from, to orb.Point) float64 {
	return math.Mod(geo.Bearing(from, to)+360, 360)
}

// BearingToCompass converts a bearing (0-360°) to 8-point compass direction
func BearingToCompass(bearing float64) string {
	directions := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	index := int((bearing+22.5)/45.0) % 8
	return directions[index]
}

// BearingToTravelDirection names the cardinal direction of travel for a bearing,
// e.g. "Northbound" for anything within 45° of north.
func BearingToTravelDirection(bearing float64) string {
	directions := []string{"Northbound", "Eastbound", "Southbound", "Westbound"}
	index := int(math.Mod(bearing+45, 360)/90.0) % 4
	return directions[index]
}

// TravelDirection returns the cardinal direction of travel from start to end.
// It returns "" when the points coincide.
func TravelDirection(start, end orb.Point) string {
	if start.Equal(end) {
		return ""
	}
	return BearingToTravelDirection(BearingBetweenPoints(start, end))
}
