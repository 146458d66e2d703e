package convert

import (
	"fmt"
	"regexp"
	"slices"

	"gtfstoosm.onebusaway.org/internal/models"
)

// RouteFilter decides which routes take part in a run. A route must pass
// the agency, route type and route id checks, in that order.
type RouteFilter struct {
	agencyID   string
	routeTypes []int
	refPattern *regexp.Regexp
}

func NewRouteFilter(opts Options) (*RouteFilter, error) {
	f := &RouteFilter{
		agencyID:   opts.AgencyID,
		routeTypes: opts.RouteTypes,
	}
	if opts.RouteRefPattern != "" {
		re, err := regexp.Compile(opts.RouteRefPattern)
		if err != nil {
			return nil, &ConfigurationError{Field: "route_ref_pattern", Err: err}
		}
		f.refPattern = re
	}
	return f, nil
}

// Reject returns why a route is filtered out, or "" when it is kept.
func (f *RouteFilter) Reject(route models.ScheduleRoute) string {
	if f.agencyID != "" && route.AgencyID != f.agencyID {
		return fmt.Sprintf("agency %q does not match %q", route.AgencyID, f.agencyID)
	}
	if len(f.routeTypes) > 0 && !slices.Contains(f.routeTypes, route.Type) {
		return fmt.Sprintf("route type %d not selected", route.Type)
	}
	if f.refPattern != nil && !f.refPattern.MatchString(route.ID) {
		return fmt.Sprintf("route id does not match %q", f.refPattern.String())
	}
	return ""
}

// Apply returns the kept routes in input order and the number removed.
func (f *RouteFilter) Apply(routes []models.ScheduleRoute) ([]models.ScheduleRoute, int) {
	kept := make([]models.ScheduleRoute, 0, len(routes))
	for _, r := range routes {
		if f.Reject(r) == "" {
			kept = append(kept, r)
		}
	}
	return kept, len(routes) - len(kept)
}
