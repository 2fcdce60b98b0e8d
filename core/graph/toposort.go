package graph

import (
	"github.com/google/uuid"

	"github.com/klarven/conceptgraph/model"
)

// TopologicalOrder produces a linear order over nodeIDs in which every edge
// points forward, using Kahn's algorithm. Ties are broken deterministically:
// the queue is seeded with the zero-in-degree nodes in the order they appear
// in nodeIDs, and successors are walked in edge input order, so a node that
// appears earlier in the input emerges earlier whenever its prerequisites
// allow it. Isolated nodes are included under the same tie-break.
//
// Returns a *model.CircularDependencyError if the graph contains a cycle;
// no partial order is returned in that case.
func TopologicalOrder(nodeIDs []uuid.UUID, edges []*model.Relationship) ([]uuid.UUID, error) {
	known := make(map[uuid.UUID]bool, len(nodeIDs))
	inDegree := make(map[uuid.UUID]int, len(nodeIDs))
	for _, id := range nodeIDs {
		known[id] = true
		inDegree[id] = 0
	}

	// Edges referencing nodes outside the node set are ignored
	adjacency := make(map[uuid.UUID][]uuid.UUID, len(nodeIDs))
	for _, edge := range edges {
		if !known[edge.FromConceptID] || !known[edge.ToConceptID] {
			continue
		}
		adjacency[edge.FromConceptID] = append(adjacency[edge.FromConceptID], edge.ToConceptID)
		inDegree[edge.ToConceptID]++
	}

	queue := make([]uuid.UUID, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	ordered := make([]uuid.UUID, 0, len(nodeIDs))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		ordered = append(ordered, current)

		for _, successor := range adjacency[current] {
			inDegree[successor]--
			if inDegree[successor] == 0 {
				queue = append(queue, successor)
			}
		}
	}

	// Nodes left with positive in-degree form at least one cycle
	if len(ordered) < len(nodeIDs) {
		return nil, &model.CircularDependencyError{}
	}

	return ordered, nil
}
