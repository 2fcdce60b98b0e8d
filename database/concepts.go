package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/klarven/conceptgraph/helper"
	"github.com/klarven/conceptgraph/model"
	loadSql "github.com/klarven/conceptgraph/sql"
)

// ConceptsDBHandlerFunctions defines the interface for Concepts database operations.
type ConceptsDBHandlerFunctions interface {
	InsertConcept(concept *model.Concept) error
	SelectConcept(id uuid.UUID) (*model.Concept, error)
	SelectConceptsByIDs(ids []uuid.UUID) ([]*model.Concept, error)
	SelectConceptsByProject(projectID uuid.UUID) ([]*model.Concept, error)
	SelectConceptsBySimilarity(projectID uuid.UUID, embedding []float32, limit int) ([]*model.Concept, error)
	UpdateConceptEmbedding(id uuid.UUID, embedding []float32) error
	DeleteConcept(id uuid.UUID) error
}

// ConceptsDBHandler handles concept-related database operations
type ConceptsDBHandler struct {
	db *helper.Database
}

// NewConceptsDBHandler creates a new concepts database handler.
// It loads the concept-related SQL functions and creates the table with the
// given embedding dimension. If force is true, the SQL functions are reloaded
// even if they already exist.
func NewConceptsDBHandler(db *helper.Database, embeddingDim int, force bool) (*ConceptsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	conceptsDbHandler := &ConceptsDBHandler{
		db: db,
	}

	err := loadSql.LoadConceptsSql(conceptsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load concepts sql", err)
	}

	err = conceptsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ConceptsDBHandler")

	return conceptsDbHandler, nil
}

// CreateTable creates the 'concepts' table in the database.
// If the table already exists, it does not create it again.
func (h *ConceptsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_concepts($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing concepts table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table concepts")

	return nil
}

// InsertConcept inserts a new concept and fills in the generated id and timestamp
func (h *ConceptsDBHandler) InsertConcept(concept *model.Concept) error {
	var embeddingParam interface{}
	if len(concept.Embedding) > 0 {
		embeddingParam = pgvector.NewVector(concept.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_concept($1, $2, $3, $4, $5, $6, $7)`,
		concept.ProjectID,
		concept.Name,
		concept.Definition,
		pq.Array(concept.KeyPoints),
		concept.Tier,
		embeddingParam,
		concept.Metadata,
	)

	err := row.Scan(
		&concept.ID,
		&concept.ProjectID,
		&concept.Name,
		&concept.Definition,
		pq.Array(&concept.KeyPoints),
		&concept.Tier,
		pq.Array(&concept.Embedding),
		&concept.Metadata,
		&concept.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectConcept retrieves a concept by ID
func (h *ConceptsDBHandler) SelectConcept(id uuid.UUID) (*model.Concept, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_concept($1)`,
		id,
	)

	concept := &model.Concept{}

	err := row.Scan(
		&concept.ID,
		&concept.ProjectID,
		&concept.Name,
		&concept.Definition,
		pq.Array(&concept.KeyPoints),
		&concept.Tier,
		pq.Array(&concept.Embedding),
		&concept.Metadata,
		&concept.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return concept, nil
}

// SelectConceptsByIDs retrieves all concepts whose ID is in ids
func (h *ConceptsDBHandler) SelectConceptsByIDs(ids []uuid.UUID) ([]*model.Concept, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_concepts_by_ids($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var concepts []*model.Concept
	for rows.Next() {
		concept := &model.Concept{}

		err := rows.Scan(
			&concept.ID,
			&concept.ProjectID,
			&concept.Name,
			&concept.Definition,
			pq.Array(&concept.KeyPoints),
			&concept.Tier,
			pq.Array(&concept.Embedding),
			&concept.Metadata,
			&concept.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		concepts = append(concepts, concept)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return concepts, nil
}

// SelectConceptsByProject retrieves all concepts of a project, ordered by
// creation time. The order is stable, which the topological sorter relies on
// for its deterministic tie-break.
func (h *ConceptsDBHandler) SelectConceptsByProject(projectID uuid.UUID) ([]*model.Concept, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_concepts_by_project($1)`,
		projectID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var concepts []*model.Concept
	for rows.Next() {
		concept := &model.Concept{}

		err := rows.Scan(
			&concept.ID,
			&concept.ProjectID,
			&concept.Name,
			&concept.Definition,
			pq.Array(&concept.KeyPoints),
			&concept.Tier,
			pq.Array(&concept.Embedding),
			&concept.Metadata,
			&concept.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		concepts = append(concepts, concept)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return concepts, nil
}

// SelectConceptsBySimilarity performs vector similarity search over the
// concepts of a project. Concepts without an embedding are skipped.
func (h *ConceptsDBHandler) SelectConceptsBySimilarity(projectID uuid.UUID, embedding []float32, limit int) ([]*model.Concept, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_concepts_by_similarity($1, $2, $3)`,
		projectID,
		embeddingVector,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var concepts []*model.Concept
	for rows.Next() {
		concept := &model.Concept{}

		err := rows.Scan(
			&concept.ID,
			&concept.ProjectID,
			&concept.Name,
			&concept.Definition,
			pq.Array(&concept.KeyPoints),
			&concept.Tier,
			pq.Array(&concept.Embedding),
			&concept.Metadata,
			&concept.CreatedAt,
			&concept.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		concepts = append(concepts, concept)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return concepts, nil
}

// UpdateConceptEmbedding updates the embedding of a concept
func (h *ConceptsDBHandler) UpdateConceptEmbedding(id uuid.UUID, embedding []float32) error {
	_, err := h.db.Instance.Exec(
		`SELECT update_concept_embedding($1, $2)`,
		id,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteConcept deletes a concept by ID
func (h *ConceptsDBHandler) DeleteConcept(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_concept($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
