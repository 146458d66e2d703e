package models

// Feed is a loaded schedule. Slices keep the order of the source files and
// are never modified after NewFeed returns.
type Feed struct {
	Agencies []Agency
	Routes   []ScheduleRoute
	Stops    []ScheduleStop
	Trips    []ScheduleTrip

	stopsByID    map[string]int
	tripsByRoute map[string][]int
}

// NewFeed builds a Feed and its lookup indexes.
func NewFeed(agencies []Agency, routes []ScheduleRoute, stops []ScheduleStop, trips []ScheduleTrip) *Feed {
	f := &Feed{
		Agencies:     agencies,
		Routes:       routes,
		Stops:        stops,
		Trips:        trips,
		stopsByID:    make(map[string]int, len(stops)),
		tripsByRoute: make(map[string][]int),
	}

	for i, s := range stops {
		if _, seen := f.stopsByID[s.ID]; !seen {
			f.stopsByID[s.ID] = i
		}
	}
	for i, t := range trips {
		f.tripsByRoute[t.RouteID] = append(f.tripsByRoute[t.RouteID], i)
	}

	return f
}

// Stop looks up a stop by id.
func (f *Feed) Stop(id string) (ScheduleStop, bool) {
	i, ok := f.stopsByID[id]
	if !ok {
		return ScheduleStop{}, false
	}
	return f.Stops[i], true
}

// TripsForRoute returns the trips of a route in feed order.
func (f *Feed) TripsForRoute(routeID string) []ScheduleTrip {
	idx := f.tripsByRoute[routeID]
	trips := make([]ScheduleTrip, 0, len(idx))
	for _, i := range idx {
		trips = append(trips, f.Trips[i])
	}
	return trips
}

// RoutesForAgencyID returns the routes operated by the given agency.
func (f *Feed) RoutesForAgencyID(agencyID string) []ScheduleRoute {
	var routes []ScheduleRoute
	for _, r := range f.Routes {
		if r.AgencyID == agencyID {
			routes = append(routes, r)
		}
	}
	return routes
}

// Counts reports the size of each table, for logging.
func (f *Feed) Counts() map[string]int {
	return map[string]int{
		"agencies": len(f.Agencies),
		"routes":   len(f.Routes),
		"stops":    len(f.Stops),
		"trips":    len(f.Trips),
	}
}
