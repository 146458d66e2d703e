package convert

import (
	"context"
	"fmt"

	"github.com/paulmach/osm"

	"gtfstoosm.onebusaway.org/internal/models"
	"gtfstoosm.onebusaway.org/internal/utils"
)

// ResolveFunc resolves a schedule stop to a map node. StopResolver.Resolve
// satisfies it.
type ResolveFunc func(ctx context.Context, stop models.ScheduleStop, mode string) (*MapNode, error)

// Assembler builds route and route_master relations. It never modifies the
// nodes it references.
type Assembler struct {
	ids           *IdentifierSpace
	stops         StopLookup
	withDirection bool
	extraTags     osm.Tags
}

func NewAssembler(ids *IdentifierSpace, stops StopLookup, opts Options) *Assembler {
	return &Assembler{
		ids:           ids,
		stops:         stops,
		withDirection: opts.AddRouteDirection,
		extraTags:     opts.RelationTags,
	}
}

// AssembledVariant pairs a variant with its relation.
type AssembledVariant struct {
	Variant  *Variant
	Relation *osm.Relation
	Stops    []models.ScheduleStop
}

// Assemble builds one route relation per variant, in variant order, and a
// route_master referencing them. With a nil resolve the relations have no
// stop members. No master is built when there are no variants.
func (a *Assembler) Assemble(ctx context.Context, route models.ScheduleRoute, variants []*Variant, resolve ResolveFunc) ([]AssembledVariant, *osm.Relation, error) {
	mode, ok := RouteMode(route.Type)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedRouteType, route.Type)
	}
	if len(variants) == 0 {
		return nil, nil, nil
	}

	assembled := make([]AssembledVariant, 0, len(variants))
	for _, v := range variants {
		stops, err := a.variantStops(v)
		if err != nil {
			return nil, nil, err
		}

		rel := &osm.Relation{
			ID:      a.ids.NextRelationID(),
			Visible: true,
			Tags:    a.variantTags(route, mode, stops),
		}

		if resolve != nil {
			rel.Members = make(osm.Members, 0, len(stops))
			for _, s := range stops {
				n, err := resolve(ctx, s, mode)
				if err != nil {
					return nil, nil, err
				}
				rel.Members = append(rel.Members, osm.Member{
					Type: osm.TypeNode,
					Ref:  int64(n.Node.ID),
					Role: "platform",
				})
			}
		}

		assembled = append(assembled, AssembledVariant{Variant: v, Relation: rel, Stops: stops})
	}

	master := &osm.Relation{
		ID:      a.ids.NextRelationID(),
		Visible: true,
		Tags:    a.masterTags(route, mode),
		Members: make(osm.Members, 0, len(assembled)),
	}
	for _, av := range assembled {
		master.Members = append(master.Members, osm.Member{
			Type: osm.TypeRelation,
			Ref:  int64(av.Relation.ID),
			Role: "",
		})
	}

	return assembled, master, nil
}

func (a *Assembler) variantStops(v *Variant) ([]models.ScheduleStop, error) {
	stops := make([]models.ScheduleStop, 0, len(v.StopIDs))
	for _, id := range v.StopIDs {
		s, ok := a.stops.Stop(id)
		if !ok {
			return nil, fmt.Errorf("variant of route %q references unknown stop %q", v.RouteID, id)
		}
		stops = append(stops, s)
	}
	return stops, nil
}

func (a *Assembler) variantTags(route models.ScheduleRoute, mode string, stops []models.ScheduleStop) osm.Tags {
	name := routeName(route)
	direction := ""
	if a.withDirection && len(stops) > 1 {
		direction = utils.TravelDirection(stops[0].Point(), stops[len(stops)-1].Point())
		if direction != "" {
			name = name + " " + direction
		}
	}

	tags := osm.Tags{}
	setTag(&tags, "type", "route")
	setTag(&tags, "route", mode)
	setTag(&tags, "ref", routeRef(route))
	setTag(&tags, "name", name)
	setTag(&tags, "public_transport:version", "2")
	if len(stops) > 0 {
		setTag(&tags, "from", utils.FormatName(stops[0].Name))
		setTag(&tags, "to", utils.FormatName(stops[len(stops)-1].Name))
	}
	setTag(&tags, "direction", direction)
	setTag(&tags, "colour", routeColour(route))
	setTag(&tags, "gtfs:route_id", route.ID)
	addMissingTags(&tags, a.extraTags)
	return tags
}

func (a *Assembler) masterTags(route models.ScheduleRoute, mode string) osm.Tags {
	tags := osm.Tags{}
	setTag(&tags, "type", "route_master")
	setTag(&tags, "route_master", mode)
	setTag(&tags, "ref", routeRef(route))
	setTag(&tags, "name", routeName(route))
	setTag(&tags, "colour", routeColour(route))
	setTag(&tags, "gtfs:route_id", route.ID)
	addMissingTags(&tags, a.extraTags)
	return tags
}
