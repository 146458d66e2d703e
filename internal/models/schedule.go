package models

import "github.com/paulmach/orb"

// Direction is the GTFS direction_id of a trip. The zero value means the
// feed did not set one.
type Direction int

const (
	DirectionUnspecified Direction = iota
	DirectionOutbound              // direction_id = 0
	DirectionInbound               // direction_id = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionOutbound:
		return "0"
	case DirectionInbound:
		return "1"
	default:
		return ""
	}
}

// Agency is the subset of agency.txt needed for filtering and tagging.
type Agency struct {
	ID   string
	Name string
	URL  string
}

// ScheduleStop is a stop from stops.txt that has coordinates.
type ScheduleStop struct {
	ID           string
	Code         string
	Name         string
	Description  string
	PlatformCode string
	Location     CoordinatePoint
}

// Point returns the stop location as an orb point (lon, lat).
func (s ScheduleStop) Point() orb.Point {
	return s.Location.Point()
}

// ScheduleRoute is a route from routes.txt.
type ScheduleRoute struct {
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
	Type      int
	Color     string
	TextColor string
}

// ScheduleTrip is a trip with its stop pattern in stop_sequence order.
type ScheduleTrip struct {
	ID        string
	RouteID   string
	Headsign  string
	Direction Direction
	StopIDs   []string
}
