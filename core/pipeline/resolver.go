package pipeline

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/klarven/conceptgraph/model"
)

// ResolveCandidates maps the free-text endpoint names of validated candidates
// to concept ids. The lookup matches concept names exactly (case-sensitive);
// when two concepts of a project share a name, the one appearing first in the
// supplied slice wins. A candidate with an endpoint that matches no concept
// is dropped, not an error.
//
// Candidates must already have passed ValidateIdentifiedRelationship; their
// relationship type is assumed parseable.
func ResolveCandidates(projectID uuid.UUID, candidates []*model.IdentifiedRelationship, concepts []*model.Concept, logger *slog.Logger) []*model.Relationship {
	nameToID := make(map[string]uuid.UUID, len(concepts))
	for _, concept := range concepts {
		if _, exists := nameToID[concept.Name]; !exists {
			nameToID[concept.Name] = concept.ID
		}
	}

	resolved := make([]*model.Relationship, 0, len(candidates))
	for _, candidate := range candidates {
		fromID, fromOk := nameToID[candidate.FromConceptName]
		toID, toOk := nameToID[candidate.ToConceptName]
		if !fromOk || !toOk {
			logger.Warn("Dropping candidate with unresolvable concept name",
				slog.String("from_concept_name", candidate.FromConceptName),
				slog.String("to_concept_name", candidate.ToConceptName),
				slog.Bool("from_resolved", fromOk),
				slog.Bool("to_resolved", toOk),
			)
			continue
		}

		relationshipType, _ := model.ParseRelationshipType(candidate.Type)

		metadata := model.Metadata{}
		if candidate.Reasoning != "" {
			metadata["reasoning"] = candidate.Reasoning
		}

		resolved = append(resolved, &model.Relationship{
			ProjectID:     projectID,
			FromConceptID: fromID,
			ToConceptID:   toID,
			Type:          relationshipType,
			Strength:      candidate.Strength,
			Metadata:      metadata,
		})
	}

	return resolved
}
