package convert

import (
	"github.com/paulmach/osm"

	"gtfstoosm.onebusaway.org/internal/models"
	"gtfstoosm.onebusaway.org/internal/utils"
)

// routeModes maps GTFS route_type to the OSM route value.
var routeModes = map[int]string{
	0:  "tram",
	1:  "subway",
	2:  "train",
	3:  "bus",
	4:  "ferry",
	5:  "trolleybus",
	6:  "cable_car",
	7:  "gondola",
	11: "trolleybus",
	12: "monorail",
}

// RouteMode returns the OSM route value for a GTFS route type.
func RouteMode(routeType int) (string, bool) {
	mode, ok := routeModes[routeType]
	return mode, ok
}

// setTag sets key to value, replacing an existing value. Empty values are ignored.
func setTag(tags *osm.Tags, key, value string) {
	if value == "" {
		return
	}
	for i := range *tags {
		if (*tags)[i].Key == key {
			(*tags)[i].Value = value
			return
		}
	}
	*tags = append(*tags, osm.Tag{Key: key, Value: value})
}

// addMissingTags copies extra tags whose keys are not already set.
func addMissingTags(tags *osm.Tags, extra osm.Tags) {
	for _, t := range extra {
		if !tags.HasTag(t.Key) {
			setTag(tags, t.Key, t.Value)
		}
	}
}

// platformTags builds the tags of a new platform node for a stop served by mode.
func platformTags(stop models.ScheduleStop, mode string) osm.Tags {
	tags := osm.Tags{}
	setTag(&tags, "name", utils.FormatName(stop.Name))
	setTag(&tags, "public_transport", "platform")

	switch mode {
	case "bus", "trolleybus":
		setTag(&tags, "highway", "bus_stop")
	case "tram", "subway", "train", "monorail":
		setTag(&tags, "railway", "platform")
	case "ferry":
		setTag(&tags, "amenity", "ferry_terminal")
	case "cable_car", "gondola":
		setTag(&tags, "aerialway", "station")
	}
	setTag(&tags, mode, "yes")

	setTag(&tags, "ref", stop.Code)
	setTag(&tags, "local_ref", stop.PlatformCode)
	setTag(&tags, "gtfs:stop_id", stop.ID)
	return tags
}

// routeName picks the human-facing name of a route.
func routeName(route models.ScheduleRoute) string {
	switch {
	case route.LongName != "":
		return utils.FormatName(route.LongName)
	case route.ShortName != "":
		return utils.FormatName(route.ShortName)
	default:
		return "Route " + route.ID
	}
}

func routeRef(route models.ScheduleRoute) string {
	if route.ShortName != "" {
		return route.ShortName
	}
	return route.ID
}

// routeColour converts the route color. White is the value the parser fills
// in when routes.txt has none, so it is not written.
func routeColour(route models.ScheduleRoute) string {
	c := utils.NormalizeColor(route.Color)
	if c == "#FFFFFF" {
		return ""
	}
	return c
}
