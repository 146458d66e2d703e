package convert

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gtfstoosm.onebusaway.org/internal/models"
)

func TestAssemblerScenario(t *testing.T) {
	ctx := context.Background()
	feed := scenarioFeed()
	route := feed.Routes[0]
	ids := NewIdentifierSpace()
	resolver := NewStopResolver(newFakeSource(), ids, 10, false, discardLogger())

	variants, _ := Deduplicate(route, feed.TripsForRoute(route.ID), feed)
	assembled, master, err := NewAssembler(ids, feed, DefaultOptions()).Assemble(ctx, route, variants, resolver.Resolve)
	require.NoError(t, err)

	require.Len(t, assembled, 2)
	require.NotNil(t, master)

	t.Run("members mirror stop order", func(t *testing.T) {
		out := assembled[0].Relation
		back := assembled[1].Relation
		require.Len(t, out.Members, 3)
		require.Len(t, back.Members, 3)

		assert.Equal(t, out.Members[0].Ref, back.Members[2].Ref)
		assert.Equal(t, out.Members[1].Ref, back.Members[1].Ref)
		assert.Equal(t, out.Members[2].Ref, back.Members[0].Ref)
		for _, m := range out.Members {
			assert.Equal(t, osm.TypeNode, m.Type)
			assert.Equal(t, "platform", m.Role)
		}
	})

	t.Run("variant tags", func(t *testing.T) {
		tags := assembled[0].Relation.Tags
		assert.Equal(t, "route", tags.Find("type"))
		assert.Equal(t, "bus", tags.Find("route"))
		assert.Equal(t, "1", tags.Find("ref"))
		assert.Equal(t, "Main Street", tags.Find("name"))
		assert.Equal(t, "2", tags.Find("public_transport:version"))
		assert.Equal(t, "Stop A", tags.Find("from"))
		assert.Equal(t, "Stop C", tags.Find("to"))
		assert.Equal(t, "R1", tags.Find("gtfs:route_id"))
		assert.False(t, tags.HasTag("colour"), "white default colour is not written")
		assert.False(t, tags.HasTag("direction"))
	})

	t.Run("master references variants in order", func(t *testing.T) {
		assert.Equal(t, "route_master", master.Tags.Find("type"))
		assert.Equal(t, "bus", master.Tags.Find("route_master"))
		assert.Equal(t, "Main Street", master.Tags.Find("name"))
		assert.Equal(t, "1", master.Tags.Find("ref"))

		require.Len(t, master.Members, 2)
		for i, m := range master.Members {
			assert.Equal(t, osm.TypeRelation, m.Type)
			assert.Equal(t, "", m.Role)
			assert.Equal(t, int64(assembled[i].Relation.ID), m.Ref)
		}
	})

	t.Run("placeholder ids are unique", func(t *testing.T) {
		seen := map[int64]bool{}
		for _, n := range resolver.NewNodes() {
			seen[int64(n.ID)] = true
		}
		for _, av := range assembled {
			seen[int64(av.Relation.ID)] = true
		}
		seen[int64(master.ID)] = true

		assert.Len(t, seen, 3+2+1)
		for id := range seen {
			assert.Less(t, id, int64(0))
		}
	})
}

func TestAssemblerOptions(t *testing.T) {
	ctx := context.Background()
	feed := scenarioFeed()
	route := feed.Routes[0]

	t.Run("nil resolver leaves members empty", func(t *testing.T) {
		ids := NewIdentifierSpace()
		variants, _ := Deduplicate(route, feed.TripsForRoute(route.ID), feed)

		assembled, master, err := NewAssembler(ids, feed, Options{ExcludeStops: true}).Assemble(ctx, route, variants, nil)
		require.NoError(t, err)

		for _, av := range assembled {
			assert.Empty(t, av.Relation.Members)
			assert.Equal(t, "route", av.Relation.Tags.Find("type"))
		}
		assert.Len(t, master.Members, 2)
	})

	t.Run("route direction appended to name", func(t *testing.T) {
		ids := NewIdentifierSpace()
		variants, _ := Deduplicate(route, feed.TripsForRoute(route.ID), feed)

		assembled, master, err := NewAssembler(ids, feed, Options{AddRouteDirection: true}).Assemble(ctx, route, variants, nil)
		require.NoError(t, err)

		assert.Equal(t, "Main Street Northbound", assembled[0].Relation.Tags.Find("name"))
		assert.Equal(t, "Northbound", assembled[0].Relation.Tags.Find("direction"))
		assert.Equal(t, "Main Street Southbound", assembled[1].Relation.Tags.Find("name"))
		assert.Equal(t, "Main Street", master.Tags.Find("name"))
	})

	t.Run("extra tags do not override built tags", func(t *testing.T) {
		ids := NewIdentifierSpace()
		variants, _ := Deduplicate(route, feed.TripsForRoute(route.ID), feed)
		opts := Options{RelationTags: osm.Tags{
			{Key: "operator", Value: "Transit Co"},
			{Key: "type", Value: "bogus"},
		}}

		assembled, master, err := NewAssembler(ids, feed, opts).Assemble(ctx, route, variants, nil)
		require.NoError(t, err)

		assert.Equal(t, "Transit Co", assembled[0].Relation.Tags.Find("operator"))
		assert.Equal(t, "route", assembled[0].Relation.Tags.Find("type"))
		assert.Equal(t, "Transit Co", master.Tags.Find("operator"))
		assert.Equal(t, "route_master", master.Tags.Find("type"))
	})

	t.Run("colour and ref fallback", func(t *testing.T) {
		r := models.ScheduleRoute{ID: "R9", Type: 0, Color: "00ff00"}
		variants := []*Variant{{RouteID: "R9", StopIDs: []string{"A", "B"}}}

		assembled, master, err := NewAssembler(NewIdentifierSpace(), feed, Options{}).Assemble(ctx, r, variants, nil)
		require.NoError(t, err)

		tags := assembled[0].Relation.Tags
		assert.Equal(t, "#00FF00", tags.Find("colour"))
		assert.Equal(t, "R9", tags.Find("ref"))
		assert.Equal(t, "Route R9", tags.Find("name"))
		assert.Equal(t, "tram", tags.Find("route"))
		assert.Equal(t, "#00FF00", master.Tags.Find("colour"))
	})

	t.Run("no variants means no master", func(t *testing.T) {
		assembled, master, err := NewAssembler(NewIdentifierSpace(), feed, Options{}).Assemble(ctx, route, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, assembled)
		assert.Nil(t, master)
	})

	t.Run("unsupported route type", func(t *testing.T) {
		r := models.ScheduleRoute{ID: "R9", Type: 1700}
		variants := []*Variant{{RouteID: "R9", StopIDs: []string{"A", "B"}}}

		_, _, err := NewAssembler(NewIdentifierSpace(), feed, Options{}).Assemble(ctx, r, variants, nil)
		assert.ErrorIs(t, err, ErrUnsupportedRouteType)
	})

	t.Run("resolver errors abort", func(t *testing.T) {
		variants, _ := Deduplicate(route, feed.TripsForRoute(route.ID), feed)
		failing := func(context.Context, models.ScheduleStop, string) (*MapNode, error) {
			return nil, &SourceUnavailableError{StopID: "A", Err: errors.New("down")}
		}

		_, _, err := NewAssembler(NewIdentifierSpace(), feed, Options{}).Assemble(ctx, route, variants, failing)
		var srcErr *SourceUnavailableError
		assert.ErrorAs(t, err, &srcErr)
	})
}
