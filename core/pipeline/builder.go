package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/klarven/conceptgraph/model"
)

// Builder runs the knowledge-graph build: relationship extraction,
// validation, name resolution and persistence.
type Builder struct {
	extract ExtractFunc
	store   RelationshipStore
	log     *slog.Logger
}

// NewBuilder creates a builder from its two collaborators.
// There is no default instance; callers construct and own the builder.
func NewBuilder(extract ExtractFunc, store RelationshipStore, logger *slog.Logger) *Builder {
	return &Builder{
		extract: extract,
		store:   store,
		log:     logger,
	}
}

// BuildKnowledgeGraph extracts relationship candidates for the given concept
// set and persists the ones that survive validation and name resolution.
//
// A failed extraction aborts the build with a *model.ExtractionError and no
// writes. Candidates that fail validation or whose endpoint names match no
// concept are dropped individually with a warning, never failing the batch.
// The surviving edge set is written in one atomic store call; a write failure
// surfaces as a *model.DatabaseError. Returns the relationships exactly as
// the store reports them, with generated ids and timestamps.
func (b *Builder) BuildKnowledgeGraph(ctx context.Context, projectID uuid.UUID, concepts []*model.Concept) ([]*model.Relationship, error) {
	candidates, err := b.extract(ctx, concepts)
	if err != nil {
		return nil, &model.ExtractionError{ProjectID: projectID, Err: err}
	}

	b.log.Info("Extracted relationship candidates",
		slog.String("project_id", projectID.String()),
		slog.Int("num_candidates", len(candidates)),
	)

	valid := make([]*model.IdentifiedRelationship, 0, len(candidates))
	for _, candidate := range candidates {
		if err := ValidateIdentifiedRelationship(candidate); err != nil {
			b.log.Warn("Dropping invalid relationship candidate",
				slog.String("project_id", projectID.String()),
				slog.String("reason", err.Error()),
			)
			continue
		}
		valid = append(valid, candidate)
	}

	resolved := ResolveCandidates(projectID, valid, concepts, b.log)
	if len(resolved) == 0 {
		b.log.Info("No relationship candidates survived validation and resolution",
			slog.String("project_id", projectID.String()),
		)
		return []*model.Relationship{}, nil
	}

	stored, err := b.store.UpsertRelationships(resolved)
	if err != nil {
		return nil, &model.DatabaseError{Op: "upsert relationships", Err: err}
	}

	b.log.Info("Persisted knowledge graph edges",
		slog.String("project_id", projectID.String()),
		slog.Int("num_edges", len(stored)),
	)

	return stored, nil
}
