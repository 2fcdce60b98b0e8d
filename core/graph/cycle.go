package graph

import (
	"github.com/google/uuid"

	"github.com/klarven/conceptgraph/model"
)

// visit state for the cycle detection walk
type color int

const (
	colorUnvisited color = iota
	colorInProgress
	colorDone
)

// HasCycle reports whether the directed graph over nodeIDs with the given
// edges contains a cycle. A self-loop counts as a cycle. The walk covers
// every node, so disconnected components are checked too. The result is a
// pure function of the edge set, independent of input ordering.
func HasCycle(nodeIDs []uuid.UUID, edges []*model.Relationship) bool {
	adjacency := make(map[uuid.UUID][]uuid.UUID, len(nodeIDs))
	for _, edge := range edges {
		adjacency[edge.FromConceptID] = append(adjacency[edge.FromConceptID], edge.ToConceptID)
	}

	colors := make(map[uuid.UUID]color, len(nodeIDs))

	for _, id := range nodeIDs {
		if colors[id] == colorUnvisited {
			if visitFindsBackEdge(id, adjacency, colors) {
				return true
			}
		}
	}

	return false
}

// visitFindsBackEdge runs a depth-first walk from id and reports whether it
// reaches a node that is still on the current recursion stack
func visitFindsBackEdge(id uuid.UUID, adjacency map[uuid.UUID][]uuid.UUID, colors map[uuid.UUID]color) bool {
	colors[id] = colorInProgress

	for _, successor := range adjacency[id] {
		switch colors[successor] {
		case colorInProgress:
			return true
		case colorUnvisited:
			if visitFindsBackEdge(successor, adjacency, colors) {
				return true
			}
		}
	}

	colors[id] = colorDone
	return false
}
