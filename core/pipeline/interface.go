package pipeline

import (
	"context"

	"github.com/klarven/conceptgraph/model"
)

// ExtractFunc calls the external relationship-extraction model with a
// project's concept set and returns the raw candidates it identified.
// The candidates are unvalidated; endpoint names are free text.
type ExtractFunc func(ctx context.Context, concepts []*model.Concept) ([]*model.IdentifiedRelationship, error)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// RelationshipStore is the slice of the relationships handler the builder
// needs to persist a resolved edge set
type RelationshipStore interface {
	UpsertRelationships(relationships []*model.Relationship) ([]*model.Relationship, error)
}
