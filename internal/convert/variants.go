package convert

import (
	"fmt"
	"strings"

	"gtfstoosm.onebusaway.org/internal/models"
)

// StopLookup finds schedule stops by id. *models.Feed implements it.
type StopLookup interface {
	Stop(id string) (models.ScheduleStop, bool)
}

// Variant is a distinct ordered stop pattern of a route. Every trip with the
// same direction and the same stops in the same order belongs to one Variant.
type Variant struct {
	RouteID   string
	Direction models.Direction
	StopIDs   []string
	TripIDs   []string
}

// variantKey separates ids with a byte that cannot appear in a CSV field.
func variantKey(direction models.Direction, stopIDs []string) string {
	return direction.String() + "\x1f" + strings.Join(stopIDs, "\x1f")
}

// Deduplicate groups a route's trips into variants. Variants are returned in
// the order their first trip appears. Trips with fewer than two stops, or
// that reference a stop missing from the feed, are skipped.
func Deduplicate(route models.ScheduleRoute, trips []models.ScheduleTrip, stops StopLookup) ([]*Variant, []SkippedItem) {
	var (
		variants []*Variant
		skipped  []SkippedItem
	)
	index := make(map[string]int)

	for _, trip := range trips {
		if len(trip.StopIDs) < 2 {
			skipped = append(skipped, SkippedItem{
				Kind:    SkipTrip,
				ID:      trip.ID,
				RouteID: route.ID,
				Reason:  fmt.Sprintf("pattern has %d stop(s), need at least 2", len(trip.StopIDs)),
			})
			continue
		}

		if missing := firstUnknownStop(trip.StopIDs, stops); missing != "" {
			skipped = append(skipped, SkippedItem{
				Kind:    SkipTrip,
				ID:      trip.ID,
				RouteID: route.ID,
				Reason:  fmt.Sprintf("references unknown stop %q", missing),
			})
			continue
		}

		key := variantKey(trip.Direction, trip.StopIDs)
		if i, ok := index[key]; ok {
			variants[i].TripIDs = append(variants[i].TripIDs, trip.ID)
			continue
		}

		index[key] = len(variants)
		variants = append(variants, &Variant{
			RouteID:   route.ID,
			Direction: trip.Direction,
			StopIDs:   append([]string(nil), trip.StopIDs...),
			TripIDs:   []string{trip.ID},
		})
	}

	return variants, skipped
}

func firstUnknownStop(stopIDs []string, stops StopLookup) string {
	for _, id := range stopIDs {
		if _, ok := stops.Stop(id); !ok {
			return id
		}
	}
	return ""
}
