package conceptgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/klarven/conceptgraph/core/graph"
	"github.com/klarven/conceptgraph/core/pipeline"
	"github.com/klarven/conceptgraph/database"
	"github.com/klarven/conceptgraph/helper"
	"github.com/klarven/conceptgraph/model"
	loadSql "github.com/klarven/conceptgraph/sql"
)

// Engine turns AI-identified concept relationships into a validated,
// persisted directed graph and answers structural queries over it.
// An Engine holds explicit references to its collaborators; there is no
// package-level default instance.
type Engine struct {
	DB            *helper.Database
	Concepts      *database.ConceptsDBHandler
	Relationships *database.RelationshipsDBHandler
	Builder       *pipeline.Builder
	Embedder      pipeline.EmbedFunc // Optional, needed for FindRelatedConcepts
	// Logging
	log *slog.Logger
}

// NewEngine creates an Engine with all handlers initialized.
// The extract function is the external relationship-extraction collaborator;
// use pipeline.NewOpenAIExtractor for the OpenAI-backed implementation or
// supply your own.
func NewEngine(config *helper.DatabaseConfiguration, extract pipeline.ExtractFunc, embeddingDim int) (*Engine, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("conceptgraph", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Concepts first, relationships reference them
	// force=false to not reload if functions already exist
	concepts, err := database.NewConceptsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create concepts handler", err)
	}

	relationships, err := database.NewRelationshipsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create relationships handler", err)
	}

	builder := pipeline.NewBuilder(extract, relationships, logger)

	return &Engine{
		DB:            db,
		Concepts:      concepts,
		Relationships: relationships,
		Builder:       builder,
		log:           logger,
	}, nil
}

// Close closes the database connection
func (e *Engine) Close() error {
	if e.DB != nil && e.DB.Instance != nil {
		return e.DB.Instance.Close()
	}
	return nil
}

// SetEmbedder sets the embedding function used by FindRelatedConcepts
func (e *Engine) SetEmbedder(embedder pipeline.EmbedFunc) {
	e.Embedder = embedder
}

// UseDefaultEmbedder sets up the default sentence transformer embedder
// (all-MiniLM-L6-v2, 384 dimensions)
func (e *Engine) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	e.Embedder = embedder
	return nil
}

// BuildKnowledgeGraph runs relationship extraction over the supplied concept
// set and persists the validated, resolved edges for the project. Returns
// the relationships exactly as the store reports them.
func (e *Engine) BuildKnowledgeGraph(ctx context.Context, projectID uuid.UUID, concepts []*model.Concept) ([]*model.Relationship, error) {
	return e.Builder.BuildKnowledgeGraph(ctx, projectID, concepts)
}

// GetProjectRelationships returns every persisted relationship of a project,
// unfiltered by type
func (e *Engine) GetProjectRelationships(projectID uuid.UUID) ([]*model.Relationship, error) {
	relationships, err := e.Relationships.SelectRelationshipsByProject(projectID, nil)
	if err != nil {
		return nil, &model.DatabaseError{Op: "select relationships by project", Err: err}
	}
	if relationships == nil {
		relationships = []*model.Relationship{}
	}
	return relationships, nil
}

// GetPrerequisites returns the concepts that are prerequisites of the given
// concept. A concept without prerequisite edges yields an empty slice, not
// an error.
func (e *Engine) GetPrerequisites(conceptID uuid.UUID) ([]*model.Concept, error) {
	prerequisite := model.RelationshipTypePrerequisite
	edges, err := e.Relationships.SelectRelationshipsToConcept(conceptID, &prerequisite)
	if err != nil {
		return nil, &model.DatabaseError{Op: "select relationships to concept", Err: err}
	}
	if len(edges) == 0 {
		return []*model.Concept{}, nil
	}

	ids := make([]uuid.UUID, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.FromConceptID)
	}

	concepts, err := e.Concepts.SelectConceptsByIDs(ids)
	if err != nil {
		return nil, &model.DatabaseError{Op: "select concepts by ids", Err: err}
	}
	return concepts, nil
}

// GetDependents returns the concepts that depend on the given concept,
// meaning the targets of its outgoing prerequisite edges
func (e *Engine) GetDependents(conceptID uuid.UUID) ([]*model.Concept, error) {
	prerequisite := model.RelationshipTypePrerequisite
	edges, err := e.Relationships.SelectRelationshipsFromConcept(conceptID, &prerequisite)
	if err != nil {
		return nil, &model.DatabaseError{Op: "select relationships from concept", Err: err}
	}
	if len(edges) == 0 {
		return []*model.Concept{}, nil
	}

	ids := make([]uuid.UUID, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.ToConceptID)
	}

	concepts, err := e.Concepts.SelectConceptsByIDs(ids)
	if err != nil {
		return nil, &model.DatabaseError{Op: "select concepts by ids", Err: err}
	}
	return concepts, nil
}

// HasCircularDependency reports whether the project's prerequisite graph
// contains a cycle. Only prerequisite-typed edges define the dependency
// graph; other relationship types are descriptive metadata.
func (e *Engine) HasCircularDependency(projectID uuid.UUID) (bool, error) {
	nodeIDs, edges, err := e.loadPrerequisiteGraph(projectID)
	if err != nil {
		return false, err
	}

	return graph.HasCycle(nodeIDs, edges), nil
}

// GetTopologicalOrder returns the project's concepts in learning order:
// every prerequisite comes before the concepts depending on it, with ties
// broken by concept creation order. Returns a *model.CircularDependencyError
// if the prerequisite graph is cyclic.
func (e *Engine) GetTopologicalOrder(projectID uuid.UUID) ([]*model.Concept, error) {
	concepts, err := e.Concepts.SelectConceptsByProject(projectID)
	if err != nil {
		return nil, &model.DatabaseError{Op: "select concepts by project", Err: err}
	}

	prerequisite := model.RelationshipTypePrerequisite
	edges, err := e.Relationships.SelectRelationshipsByProject(projectID, &prerequisite)
	if err != nil {
		return nil, &model.DatabaseError{Op: "select relationships by project", Err: err}
	}

	nodeIDs := make([]uuid.UUID, 0, len(concepts))
	conceptsByID := make(map[uuid.UUID]*model.Concept, len(concepts))
	for _, concept := range concepts {
		nodeIDs = append(nodeIDs, concept.ID)
		conceptsByID[concept.ID] = concept
	}

	orderedIDs, err := graph.TopologicalOrder(nodeIDs, edges)
	if err != nil {
		var circular *model.CircularDependencyError
		if errors.As(err, &circular) {
			return nil, &model.CircularDependencyError{ProjectID: projectID}
		}
		return nil, err
	}

	ordered := make([]*model.Concept, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		ordered = append(ordered, conceptsByID[id])
	}
	return ordered, nil
}

// FindRelatedConcepts embeds the query and returns the project's most
// similar concepts by vector distance. Concepts without embeddings are not
// considered. Requires an embedder, use SetEmbedder() or
// UseDefaultEmbedder() first.
func (e *Engine) FindRelatedConcepts(ctx context.Context, projectID uuid.UUID, query string, limit int) ([]*model.Concept, error) {
	if e.Embedder == nil {
		return nil, helper.NewError("find related concepts", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}

	embedding, err := e.Embedder(query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	concepts, err := e.Concepts.SelectConceptsBySimilarity(projectID, embedding, limit)
	if err != nil {
		return nil, &model.DatabaseError{Op: "select concepts by similarity", Err: err}
	}
	return concepts, nil
}

// loadPrerequisiteGraph loads the node set and prerequisite edge set of a project
func (e *Engine) loadPrerequisiteGraph(projectID uuid.UUID) ([]uuid.UUID, []*model.Relationship, error) {
	concepts, err := e.Concepts.SelectConceptsByProject(projectID)
	if err != nil {
		return nil, nil, &model.DatabaseError{Op: "select concepts by project", Err: err}
	}

	prerequisite := model.RelationshipTypePrerequisite
	edges, err := e.Relationships.SelectRelationshipsByProject(projectID, &prerequisite)
	if err != nil {
		return nil, nil, &model.DatabaseError{Op: "select relationships by project", Err: err}
	}

	nodeIDs := make([]uuid.UUID, 0, len(concepts))
	for _, concept := range concepts {
		nodeIDs = append(nodeIDs, concept.ID)
	}

	return nodeIDs, edges, nil
}
