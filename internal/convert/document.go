package convert

import (
	"fmt"
	"strings"

	"github.com/paulmach/osm"
)

// Document is the result of a run.
type Document struct {
	RunID string
	// Nodes are the nodes created by the run, with placeholder ids.
	Nodes []*osm.Node
	// Existing are the map nodes referenced by relations. They are not part
	// of the change set.
	Existing []*osm.Node
	// Relations holds each route's variant relations followed by its route_master.
	Relations []*osm.Relation
	Report    *Report
}

// CheckReferences verifies that every relation member refers to a node or
// relation held by the document.
func (d *Document) CheckReferences() error {
	nodes := make(map[int64]bool, len(d.Nodes)+len(d.Existing))
	for _, n := range d.Nodes {
		nodes[int64(n.ID)] = true
	}
	for _, n := range d.Existing {
		nodes[int64(n.ID)] = true
	}
	relations := make(map[int64]bool, len(d.Relations))
	for _, r := range d.Relations {
		relations[int64(r.ID)] = true
	}

	var missing []string
	for _, r := range d.Relations {
		for _, m := range r.Members {
			switch m.Type {
			case osm.TypeNode:
				if !nodes[m.Ref] {
					missing = append(missing, fmt.Sprintf("relation %d: node %d", r.ID, m.Ref))
				}
			case osm.TypeRelation:
				if !relations[m.Ref] {
					missing = append(missing, fmt.Sprintf("relation %d: relation %d", r.ID, m.Ref))
				}
			default:
				missing = append(missing, fmt.Sprintf("relation %d: unexpected member type %s", r.ID, m.Type))
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("dangling members: %s", strings.Join(missing, "; "))
	}
	return nil
}
