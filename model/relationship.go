package model

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipType represents the type of relationship between concepts
type RelationshipType string

const (
	RelationshipTypePrerequisite  RelationshipType = "prerequisite"
	RelationshipTypeCausal        RelationshipType = "causal"
	RelationshipTypeTaxonomic     RelationshipType = "taxonomic"
	RelationshipTypeTemporal      RelationshipType = "temporal"
	RelationshipTypeContrastsWith RelationshipType = "contrasts_with"
)

// AllRelationshipTypes lists every valid relationship type
var AllRelationshipTypes = []RelationshipType{
	RelationshipTypePrerequisite,
	RelationshipTypeCausal,
	RelationshipTypeTaxonomic,
	RelationshipTypeTemporal,
	RelationshipTypeContrastsWith,
}

// ParseRelationshipType converts a raw string into a RelationshipType.
// Returns false if the string is not one of the five known types.
func ParseRelationshipType(s string) (RelationshipType, bool) {
	for _, t := range AllRelationshipTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Relationship represents a persisted, directed, typed edge between two concepts.
// The store enforces uniqueness over (project_id, from_concept_id, to_concept_id,
// relationship_type); re-inserting the same tuple overwrites strength and metadata.
type Relationship struct {
	ID            uuid.UUID        `json:"id"`
	ProjectID     uuid.UUID        `json:"project_id"`
	FromConceptID uuid.UUID        `json:"from_concept_id"`
	ToConceptID   uuid.UUID        `json:"to_concept_id"`
	Type          RelationshipType `json:"relationship_type"`
	Strength      float64          `json:"strength"`
	Metadata      Metadata         `json:"metadata,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// IdentifiedRelationship is a relationship candidate as produced by the
// extraction model. Endpoints are free-text concept names, the type is a raw
// string, and nothing here has been validated or persisted.
type IdentifiedRelationship struct {
	FromConceptName string  `json:"from_concept_name"`
	ToConceptName   string  `json:"to_concept_name"`
	Type            string  `json:"relationship_type"`
	Strength        float64 `json:"strength"`
	Reasoning       string  `json:"reasoning,omitempty"`
}
