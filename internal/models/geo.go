package models

import "github.com/paulmach/orb"

type CoordinatePoint struct {
	Lat float64
	Lon float64
}

// Point converts to an orb point, which orders coordinates as (lon, lat).
func (c CoordinatePoint) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}
