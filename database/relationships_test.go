package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klarven/conceptgraph/model"
)

// relationshipFixtures creates the concepts a relationship test needs.
// Needed because a relationship has foreign keys to concepts.
func relationshipFixtures(t *testing.T, conceptsDbHandler *ConceptsDBHandler, projectID uuid.UUID, names ...string) []*model.Concept {
	concepts := make([]*model.Concept, 0, len(names))
	for _, name := range names {
		concept := &model.Concept{
			ProjectID: projectID,
			Name:      name,
			Metadata:  map[string]interface{}{},
		}
		require.NoError(t, conceptsDbHandler.InsertConcept(concept))
		concepts = append(concepts, concept)
	}
	return concepts
}

func TestRelationshipsNewRelationshipsDBHandler(t *testing.T) {
	database := initDB(t)

	// Needed because a relationship has a reference to concepts
	_, err := NewConceptsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewConceptsDBHandler to not return an error")

	t.Run("Valid call NewRelationshipsDBHandler", func(t *testing.T) {
		relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewRelationshipsDBHandler to not return an error")
		require.NotNil(t, relationshipsDbHandler, "Expected NewRelationshipsDBHandler to return a non-nil instance")
		require.NotNil(t, relationshipsDbHandler.db, "Expected NewRelationshipsDBHandler to have a non-nil database instance")
		require.NotNil(t, relationshipsDbHandler.db.Instance, "Expected NewRelationshipsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewRelationshipsDBHandler with nil database", func(t *testing.T) {
		_, err := NewRelationshipsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating RelationshipsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestRelationshipsUpsert(t *testing.T) {
	database := initDB(t)

	conceptsDbHandler, err := NewConceptsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
	require.NoError(t, err)

	projectID := uuid.New()
	concepts := relationshipFixtures(t, conceptsDbHandler, projectID, "Variables", "Functions")

	t.Run("Upsert new relationship", func(t *testing.T) {
		relationship := &model.Relationship{
			ProjectID:     projectID,
			FromConceptID: concepts[0].ID,
			ToConceptID:   concepts[1].ID,
			Type:          model.RelationshipTypePrerequisite,
			Strength:      0.9,
			Metadata:      map[string]interface{}{"reasoning": "functions use variables"},
		}

		err := relationshipsDbHandler.UpsertRelationship(relationship)
		assert.NoError(t, err, "Expected Upsert to not return an error")
		assert.NotEmpty(t, relationship.ID, "Expected upserted relationship to have an ID")
		assert.WithinDuration(t, relationship.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")

		// Cleanup
		relationshipsDbHandler.DeleteRelationship(relationship.ID)
	})

	t.Run("Upsert same tuple overwrites instead of duplicating", func(t *testing.T) {
		first := &model.Relationship{
			ProjectID:     projectID,
			FromConceptID: concepts[0].ID,
			ToConceptID:   concepts[1].ID,
			Type:          model.RelationshipTypePrerequisite,
			Strength:      0.5,
			Metadata:      map[string]interface{}{},
		}
		require.NoError(t, relationshipsDbHandler.UpsertRelationship(first))

		second := &model.Relationship{
			ProjectID:     projectID,
			FromConceptID: concepts[0].ID,
			ToConceptID:   concepts[1].ID,
			Type:          model.RelationshipTypePrerequisite,
			Strength:      0.95,
			Metadata:      map[string]interface{}{"revised": true},
		}
		require.NoError(t, relationshipsDbHandler.UpsertRelationship(second))

		assert.Equal(t, first.ID, second.ID, "Expected the existing row to be updated, not a new one created")
		assert.Equal(t, 0.95, second.Strength, "Expected strength to be overwritten")

		relationships, err := relationshipsDbHandler.SelectRelationshipsByProject(projectID, nil)
		require.NoError(t, err)
		assert.Len(t, relationships, 1, "Expected exactly one row for the tuple")

		// Cleanup
		relationshipsDbHandler.DeleteRelationship(second.ID)
	})

	t.Run("Same endpoints with different type create separate rows", func(t *testing.T) {
		prerequisite := &model.Relationship{
			ProjectID:     projectID,
			FromConceptID: concepts[0].ID,
			ToConceptID:   concepts[1].ID,
			Type:          model.RelationshipTypePrerequisite,
			Strength:      0.9,
			Metadata:      map[string]interface{}{},
		}
		taxonomic := &model.Relationship{
			ProjectID:     projectID,
			FromConceptID: concepts[0].ID,
			ToConceptID:   concepts[1].ID,
			Type:          model.RelationshipTypeTaxonomic,
			Strength:      0.6,
			Metadata:      map[string]interface{}{},
		}
		require.NoError(t, relationshipsDbHandler.UpsertRelationship(prerequisite))
		require.NoError(t, relationshipsDbHandler.UpsertRelationship(taxonomic))

		assert.NotEqual(t, prerequisite.ID, taxonomic.ID, "Expected different types to be distinct rows")

		// Cleanup
		relationshipsDbHandler.DeleteRelationship(prerequisite.ID)
		relationshipsDbHandler.DeleteRelationship(taxonomic.ID)
	})

	t.Run("Upsert with unknown concept fails", func(t *testing.T) {
		relationship := &model.Relationship{
			ProjectID:     projectID,
			FromConceptID: uuid.New(),
			ToConceptID:   concepts[1].ID,
			Type:          model.RelationshipTypePrerequisite,
			Strength:      0.9,
			Metadata:      map[string]interface{}{},
		}

		err := relationshipsDbHandler.UpsertRelationship(relationship)
		assert.Error(t, err, "Expected the foreign key to reject an unknown concept")
	})

	// Cleanup
	conceptsDbHandler.DeleteConcept(concepts[0].ID)
	conceptsDbHandler.DeleteConcept(concepts[1].ID)
}

func TestRelationshipsUpsertBatch(t *testing.T) {
	database := initDB(t)

	conceptsDbHandler, err := NewConceptsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
	require.NoError(t, err)

	projectID := uuid.New()
	concepts := relationshipFixtures(t, conceptsDbHandler, projectID, "Variables", "Functions", "Recursion")

	t.Run("Batch upsert persists all relationships", func(t *testing.T) {
		batch := []*model.Relationship{
			{
				ProjectID:     projectID,
				FromConceptID: concepts[0].ID,
				ToConceptID:   concepts[1].ID,
				Type:          model.RelationshipTypePrerequisite,
				Strength:      0.9,
				Metadata:      map[string]interface{}{},
			},
			{
				ProjectID:     projectID,
				FromConceptID: concepts[1].ID,
				ToConceptID:   concepts[2].ID,
				Type:          model.RelationshipTypePrerequisite,
				Strength:      0.8,
				Metadata:      map[string]interface{}{},
			},
		}

		stored, err := relationshipsDbHandler.UpsertRelationships(batch)
		assert.NoError(t, err, "Expected batch upsert to not return an error")
		require.Len(t, stored, 2, "Expected both relationships to be persisted")
		assert.NotEmpty(t, stored[0].ID)
		assert.NotEmpty(t, stored[1].ID)

		// Cleanup
		relationshipsDbHandler.DeleteRelationship(stored[0].ID)
		relationshipsDbHandler.DeleteRelationship(stored[1].ID)
	})

	t.Run("Batch with a failing relationship rolls back entirely", func(t *testing.T) {
		batch := []*model.Relationship{
			{
				ProjectID:     projectID,
				FromConceptID: concepts[0].ID,
				ToConceptID:   concepts[1].ID,
				Type:          model.RelationshipTypePrerequisite,
				Strength:      0.9,
				Metadata:      map[string]interface{}{},
			},
			{
				ProjectID:     projectID,
				FromConceptID: uuid.New(), // unknown concept, violates the foreign key
				ToConceptID:   concepts[2].ID,
				Type:          model.RelationshipTypePrerequisite,
				Strength:      0.8,
				Metadata:      map[string]interface{}{},
			},
		}

		_, err := relationshipsDbHandler.UpsertRelationships(batch)
		assert.Error(t, err, "Expected the batch to fail on the invalid relationship")

		relationships, err := relationshipsDbHandler.SelectRelationshipsByProject(projectID, nil)
		require.NoError(t, err)
		assert.Empty(t, relationships, "Expected the valid relationship to be rolled back too")
	})

	// Cleanup
	for _, concept := range concepts {
		conceptsDbHandler.DeleteConcept(concept.ID)
	}
}

func TestRelationshipsGet(t *testing.T) {
	database := initDB(t)

	conceptsDbHandler, err := NewConceptsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
	require.NoError(t, err)

	projectID := uuid.New()
	concepts := relationshipFixtures(t, conceptsDbHandler, projectID, "Variables", "Functions")

	relationship := &model.Relationship{
		ProjectID:     projectID,
		FromConceptID: concepts[0].ID,
		ToConceptID:   concepts[1].ID,
		Type:          model.RelationshipTypeCausal,
		Strength:      0.7,
		Metadata:      map[string]interface{}{},
	}
	require.NoError(t, relationshipsDbHandler.UpsertRelationship(relationship))

	t.Run("Get relationship by id", func(t *testing.T) {
		retrieved, err := relationshipsDbHandler.SelectRelationship(relationship.ID)
		assert.NoError(t, err, "Expected Get to not return an error")
		require.NotNil(t, retrieved, "Expected Get to return a non-nil relationship")
		assert.Equal(t, relationship.ID, retrieved.ID, "Expected relationship IDs to match")
		assert.Equal(t, relationship.Type, retrieved.Type, "Expected relationship types to match")
		assert.Equal(t, relationship.Strength, retrieved.Strength, "Expected strengths to match")
	})

	t.Run("Get unknown relationship returns an error", func(t *testing.T) {
		_, err := relationshipsDbHandler.SelectRelationship(uuid.New())
		assert.Error(t, err, "Expected Get to return an error for an unknown id")
	})

	// Cleanup
	relationshipsDbHandler.DeleteRelationship(relationship.ID)
	conceptsDbHandler.DeleteConcept(concepts[0].ID)
	conceptsDbHandler.DeleteConcept(concepts[1].ID)
}

func TestRelationshipsGetByProject(t *testing.T) {
	database := initDB(t)

	conceptsDbHandler, err := NewConceptsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
	require.NoError(t, err)

	projectID := uuid.New()
	concepts := relationshipFixtures(t, conceptsDbHandler, projectID, "Variables", "Functions", "Recursion")

	prerequisite := &model.Relationship{
		ProjectID:     projectID,
		FromConceptID: concepts[0].ID,
		ToConceptID:   concepts[1].ID,
		Type:          model.RelationshipTypePrerequisite,
		Strength:      0.9,
		Metadata:      map[string]interface{}{},
	}
	contrasts := &model.Relationship{
		ProjectID:     projectID,
		FromConceptID: concepts[1].ID,
		ToConceptID:   concepts[2].ID,
		Type:          model.RelationshipTypeContrastsWith,
		Strength:      0.4,
		Metadata:      map[string]interface{}{},
	}
	require.NoError(t, relationshipsDbHandler.UpsertRelationship(prerequisite))
	require.NoError(t, relationshipsDbHandler.UpsertRelationship(contrasts))

	t.Run("Get all relationships of a project", func(t *testing.T) {
		relationships, err := relationshipsDbHandler.SelectRelationshipsByProject(projectID, nil)
		assert.NoError(t, err, "Expected GetByProject to not return an error")
		assert.Len(t, relationships, 2, "Expected to find both relationships")
	})

	t.Run("Filter by relationship type", func(t *testing.T) {
		prerequisiteType := model.RelationshipTypePrerequisite
		relationships, err := relationshipsDbHandler.SelectRelationshipsByProject(projectID, &prerequisiteType)
		assert.NoError(t, err, "Expected GetByProject with type to not return an error")
		require.Len(t, relationships, 1, "Expected to find 1 prerequisite relationship")
		assert.Equal(t, prerequisite.ID, relationships[0].ID)
	})

	t.Run("Unknown project yields no relationships", func(t *testing.T) {
		relationships, err := relationshipsDbHandler.SelectRelationshipsByProject(uuid.New(), nil)
		assert.NoError(t, err)
		assert.Empty(t, relationships, "Expected no relationships for an unknown project")
	})

	// Cleanup
	relationshipsDbHandler.DeleteRelationship(prerequisite.ID)
	relationshipsDbHandler.DeleteRelationship(contrasts.ID)
	for _, concept := range concepts {
		conceptsDbHandler.DeleteConcept(concept.ID)
	}
}

func TestRelationshipsGetFromConcept(t *testing.T) {
	database := initDB(t)

	conceptsDbHandler, err := NewConceptsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
	require.NoError(t, err)

	projectID := uuid.New()
	concepts := relationshipFixtures(t, conceptsDbHandler, projectID, "Variables", "Functions", "Loops")

	edge1 := &model.Relationship{
		ProjectID:     projectID,
		FromConceptID: concepts[0].ID,
		ToConceptID:   concepts[1].ID,
		Type:          model.RelationshipTypePrerequisite,
		Strength:      0.9,
		Metadata:      map[string]interface{}{},
	}
	edge2 := &model.Relationship{
		ProjectID:     projectID,
		FromConceptID: concepts[0].ID,
		ToConceptID:   concepts[2].ID,
		Type:          model.RelationshipTypeTemporal,
		Strength:      0.6,
		Metadata:      map[string]interface{}{},
	}
	require.NoError(t, relationshipsDbHandler.UpsertRelationship(edge1))
	require.NoError(t, relationshipsDbHandler.UpsertRelationship(edge2))

	t.Run("Get relationships from concept", func(t *testing.T) {
		relationships, err := relationshipsDbHandler.SelectRelationshipsFromConcept(concepts[0].ID, nil)
		assert.NoError(t, err, "Expected GetFromConcept to not return an error")
		assert.Len(t, relationships, 2, "Expected to find 2 relationships from the concept")
	})

	t.Run("Filter by relationship type", func(t *testing.T) {
		prerequisiteType := model.RelationshipTypePrerequisite
		relationships, err := relationshipsDbHandler.SelectRelationshipsFromConcept(concepts[0].ID, &prerequisiteType)
		assert.NoError(t, err, "Expected GetFromConcept with type to not return an error")
		require.Len(t, relationships, 1, "Expected to find 1 prerequisite relationship")
		assert.Equal(t, edge1.ID, relationships[0].ID)
	})

	// Cleanup
	relationshipsDbHandler.DeleteRelationship(edge1.ID)
	relationshipsDbHandler.DeleteRelationship(edge2.ID)
	for _, concept := range concepts {
		conceptsDbHandler.DeleteConcept(concept.ID)
	}
}

func TestRelationshipsGetToConcept(t *testing.T) {
	database := initDB(t)

	conceptsDbHandler, err := NewConceptsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
	require.NoError(t, err)

	projectID := uuid.New()
	concepts := relationshipFixtures(t, conceptsDbHandler, projectID, "Variables", "Functions", "Recursion")

	edge1 := &model.Relationship{
		ProjectID:     projectID,
		FromConceptID: concepts[0].ID,
		ToConceptID:   concepts[2].ID,
		Type:          model.RelationshipTypePrerequisite,
		Strength:      0.9,
		Metadata:      map[string]interface{}{},
	}
	edge2 := &model.Relationship{
		ProjectID:     projectID,
		FromConceptID: concepts[1].ID,
		ToConceptID:   concepts[2].ID,
		Type:          model.RelationshipTypePrerequisite,
		Strength:      0.8,
		Metadata:      map[string]interface{}{},
	}
	require.NoError(t, relationshipsDbHandler.UpsertRelationship(edge1))
	require.NoError(t, relationshipsDbHandler.UpsertRelationship(edge2))

	t.Run("Get relationships to concept", func(t *testing.T) {
		relationships, err := relationshipsDbHandler.SelectRelationshipsToConcept(concepts[2].ID, nil)
		assert.NoError(t, err, "Expected GetToConcept to not return an error")
		assert.Len(t, relationships, 2, "Expected to find 2 relationships to the concept")
	})

	// Cleanup
	relationshipsDbHandler.DeleteRelationship(edge1.ID)
	relationshipsDbHandler.DeleteRelationship(edge2.ID)
	for _, concept := range concepts {
		conceptsDbHandler.DeleteConcept(concept.ID)
	}
}

func TestRelationshipsDelete(t *testing.T) {
	database := initDB(t)

	conceptsDbHandler, err := NewConceptsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
	require.NoError(t, err)

	projectID := uuid.New()
	concepts := relationshipFixtures(t, conceptsDbHandler, projectID, "Variables", "Functions")

	relationship := &model.Relationship{
		ProjectID:     projectID,
		FromConceptID: concepts[0].ID,
		ToConceptID:   concepts[1].ID,
		Type:          model.RelationshipTypePrerequisite,
		Strength:      0.9,
		Metadata:      map[string]interface{}{},
	}
	require.NoError(t, relationshipsDbHandler.UpsertRelationship(relationship))

	t.Run("Delete relationship", func(t *testing.T) {
		err := relationshipsDbHandler.DeleteRelationship(relationship.ID)
		assert.NoError(t, err, "Expected Delete to not return an error")

		_, err = relationshipsDbHandler.SelectRelationship(relationship.ID)
		assert.Error(t, err, "Expected Get to return an error for deleted relationship")
	})

	t.Run("Deleting a concept cascades to its relationships", func(t *testing.T) {
		cascaded := &model.Relationship{
			ProjectID:     projectID,
			FromConceptID: concepts[0].ID,
			ToConceptID:   concepts[1].ID,
			Type:          model.RelationshipTypePrerequisite,
			Strength:      0.9,
			Metadata:      map[string]interface{}{},
		}
		require.NoError(t, relationshipsDbHandler.UpsertRelationship(cascaded))

		require.NoError(t, conceptsDbHandler.DeleteConcept(concepts[0].ID))

		_, err := relationshipsDbHandler.SelectRelationship(cascaded.ID)
		assert.Error(t, err, "Expected the relationship to be deleted with its concept")
	})

	// Cleanup
	conceptsDbHandler.DeleteConcept(concepts[1].ID)
}
