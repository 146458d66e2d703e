package osmchange

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gtfstoosm.onebusaway.org/internal/convert"
)

func sampleDocument() *convert.Document {
	return &convert.Document{
		Nodes: []*osm.Node{
			{ID: -1, Lat: 47.6062, Lon: -122.3321, Visible: true, Tags: osm.Tags{{Key: "name", Value: "First & Main"}}},
		},
		Existing: []*osm.Node{
			{ID: 100, Lat: 47.6071, Lon: -122.3321, Version: 3, Visible: true},
		},
		Relations: []*osm.Relation{
			{
				ID:      -2,
				Visible: true,
				Tags:    osm.Tags{{Key: "type", Value: "route"}, {Key: "route", Value: "bus"}},
				Members: osm.Members{
					{Type: osm.TypeNode, Ref: -1, Role: "platform"},
					{Type: osm.TypeNode, Ref: 100, Role: "platform"},
				},
			},
			{
				ID:      -3,
				Visible: true,
				Tags:    osm.Tags{{Key: "type", Value: "route_master"}},
				Members: osm.Members{{Type: osm.TypeRelation, Ref: -2}},
			},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleDocument()))

	out := buf.String()
	assert.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, out, `generator="gtfstoosm"`)
	assert.Contains(t, out, "<create>")
	assert.Contains(t, out, "First &amp; Main")

	var change osm.Change
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &change))
	require.NotNil(t, change.Create)
	assert.Nil(t, change.Modify)
	assert.Nil(t, change.Delete)

	require.Len(t, change.Create.Nodes, 1, "matched nodes are not part of the change")
	assert.Equal(t, osm.NodeID(-1), change.Create.Nodes[0].ID)

	require.Len(t, change.Create.Relations, 2)
	route := change.Create.Relations[0]
	assert.Equal(t, osm.RelationID(-2), route.ID)
	require.Len(t, route.Members, 2)
	assert.Equal(t, int64(100), route.Members[1].Ref)
	assert.Equal(t, "platform", route.Members[1].Role)
	assert.Equal(t, osm.TypeRelation, change.Create.Relations[1].Members[0].Type)
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "routes.osc")
	require.NoError(t, WriteFile(path, sampleDocument()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<osmChange")
}

func TestBuildEmptyDocument(t *testing.T) {
	change := Build(&convert.Document{})
	require.NotNil(t, change.Create)
	assert.Empty(t, change.Create.Nodes)
	assert.Empty(t, change.Create.Relations)
	assert.Equal(t, "0.6", change.Version)
}
