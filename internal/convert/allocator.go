package convert

import (
	"sync"

	"github.com/paulmach/osm"
)

// IdentifierSpace hands out placeholder ids for entities created during a run.
// Ids start at -1 and decrease, so they never collide with each other or with
// real (positive) map ids. Nodes and relations share one counter.
type IdentifierSpace struct {
	mu   sync.Mutex
	last int64
}

func NewIdentifierSpace() *IdentifierSpace {
	return &IdentifierSpace{}
}

// Next returns a new placeholder id. It is safe for concurrent use.
func (s *IdentifierSpace) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last--
	return s.last
}

func (s *IdentifierSpace) NextNodeID() osm.NodeID {
	return osm.NodeID(s.Next())
}

func (s *IdentifierSpace) NextRelationID() osm.RelationID {
	return osm.RelationID(s.Next())
}

// Issued reports how many ids have been handed out.
func (s *IdentifierSpace) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int(-s.last)
}
