package model

import (
	"time"

	"github.com/google/uuid"
)

// Concept represents a unit of learnable content. Concepts are created by the
// upstream extraction service and are read-only inputs to this engine.
type Concept struct {
	ID         uuid.UUID `json:"id"`
	ProjectID  uuid.UUID `json:"project_id"`
	Name       string    `json:"name"`
	Definition string    `json:"definition,omitempty"`
	KeyPoints  []string  `json:"key_points,omitempty"`
	Tier       string    `json:"tier,omitempty"` // importance level, passed through untouched
	Embedding  []float32 `json:"embedding,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Similarity *float64  `json:"similarity,omitempty"` // only set by similarity queries
}
