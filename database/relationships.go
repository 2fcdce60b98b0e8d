package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/klarven/conceptgraph/helper"
	"github.com/klarven/conceptgraph/model"
	loadSql "github.com/klarven/conceptgraph/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for Relationships database operations.
type RelationshipsDBHandlerFunctions interface {
	UpsertRelationship(relationship *model.Relationship) error
	UpsertRelationships(relationships []*model.Relationship) ([]*model.Relationship, error)
	SelectRelationship(id uuid.UUID) (*model.Relationship, error)
	SelectRelationshipsByProject(projectID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.Relationship, error)
	SelectRelationshipsFromConcept(conceptID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.Relationship, error)
	SelectRelationshipsToConcept(conceptID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.Relationship, error)
	DeleteRelationship(id uuid.UUID) error
}

// RelationshipsDBHandler handles relationship-related database operations
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// It loads the relationship-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the 'concept_relationships' table in the database.
// If the table already exists, it does not create it again.
// It also creates the relationship_type enum, the uniqueness constraint
// and all necessary indexes.
func (h *RelationshipsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relationships();`)
	if err != nil {
		log.Panicf("error initializing concept_relationships table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table concept_relationships")

	return nil
}

// UpsertRelationship writes a relationship keyed by the uniqueness tuple
// (project_id, from_concept_id, to_concept_id, relationship_type).
// An existing row with the same tuple gets its strength and metadata
// overwritten instead of a duplicate being created. The relationship is
// updated in place with the persisted id and timestamp.
func (h *RelationshipsDBHandler) UpsertRelationship(relationship *model.Relationship) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_relationship($1, $2, $3, $4, $5, $6)`,
		relationship.ProjectID,
		relationship.FromConceptID,
		relationship.ToConceptID,
		relationship.Type,
		relationship.Strength,
		relationship.Metadata,
	)

	err := row.Scan(
		&relationship.ID,
		&relationship.ProjectID,
		&relationship.FromConceptID,
		&relationship.ToConceptID,
		&relationship.Type,
		&relationship.Strength,
		&relationship.Metadata,
		&relationship.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// UpsertRelationships writes a batch of relationships in a single transaction.
// Either every relationship is persisted or none is; a failure rolls the
// whole batch back. Returns the relationships as persisted.
func (h *RelationshipsDBHandler) UpsertRelationships(relationships []*model.Relationship) ([]*model.Relationship, error) {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return nil, helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	stored := make([]*model.Relationship, 0, len(relationships))
	for _, relationship := range relationships {
		row := tx.QueryRow(
			`SELECT * FROM upsert_relationship($1, $2, $3, $4, $5, $6)`,
			relationship.ProjectID,
			relationship.FromConceptID,
			relationship.ToConceptID,
			relationship.Type,
			relationship.Strength,
			relationship.Metadata,
		)

		err := row.Scan(
			&relationship.ID,
			&relationship.ProjectID,
			&relationship.FromConceptID,
			&relationship.ToConceptID,
			&relationship.Type,
			&relationship.Strength,
			&relationship.Metadata,
			&relationship.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		stored = append(stored, relationship)
	}

	err = tx.Commit()
	if err != nil {
		return nil, helper.NewError("commit transaction", err)
	}

	return stored, nil
}

// SelectRelationship retrieves a relationship by ID
func (h *RelationshipsDBHandler) SelectRelationship(id uuid.UUID) (*model.Relationship, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_relationship($1)`,
		id,
	)

	relationship := &model.Relationship{}

	err := row.Scan(
		&relationship.ID,
		&relationship.ProjectID,
		&relationship.FromConceptID,
		&relationship.ToConceptID,
		&relationship.Type,
		&relationship.Strength,
		&relationship.Metadata,
		&relationship.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return relationship, nil
}

// SelectRelationshipsByProject retrieves all relationships of a project,
// optionally filtered by relationship type, ordered by creation time.
func (h *RelationshipsDBHandler) SelectRelationshipsByProject(projectID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.Relationship, error) {
	var rows *sql.Rows
	var err error

	if relationshipType != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_by_project($1, $2)`,
			projectID,
			*relationshipType,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_by_project($1, NULL)`,
			projectID,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// SelectRelationshipsFromConcept retrieves relationships originating from a concept
func (h *RelationshipsDBHandler) SelectRelationshipsFromConcept(conceptID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.Relationship, error) {
	var rows *sql.Rows
	var err error

	if relationshipType != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_from_concept($1, $2)`,
			conceptID,
			*relationshipType,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_from_concept($1, NULL)`,
			conceptID,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// SelectRelationshipsToConcept retrieves relationships targeting a concept
func (h *RelationshipsDBHandler) SelectRelationshipsToConcept(conceptID uuid.UUID, relationshipType *model.RelationshipType) ([]*model.Relationship, error) {
	var rows *sql.Rows
	var err error

	if relationshipType != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_to_concept($1, $2)`,
			conceptID,
			*relationshipType,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_relationships_to_concept($1, NULL)`,
			conceptID,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// DeleteRelationship deletes a relationship by ID
func (h *RelationshipsDBHandler) DeleteRelationship(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_relationship($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scanRelationships reads all relationship rows from a result set
func scanRelationships(rows *sql.Rows) ([]*model.Relationship, error) {
	var relationships []*model.Relationship
	for rows.Next() {
		relationship := &model.Relationship{}

		err := rows.Scan(
			&relationship.ID,
			&relationship.ProjectID,
			&relationship.FromConceptID,
			&relationship.ToConceptID,
			&relationship.Type,
			&relationship.Strength,
			&relationship.Metadata,
			&relationship.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relationships = append(relationships, relationship)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}
