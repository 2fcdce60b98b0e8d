package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports a relationship candidate whose type, strength or
// endpoint names fall outside the allowed domain.
type ValidationError struct {
	Reason    string
	Candidate IdentifiedRelationship
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid relationship %q -> %q: %s",
		e.Candidate.FromConceptName, e.Candidate.ToConceptName, e.Reason)
}

// ExtractionError reports a failed call to the external relationship extractor.
// The build aborts with no partial writes.
type ExtractionError struct {
	ProjectID uuid.UUID
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("relationship extraction failed for project %s: %v", e.ProjectID, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// DatabaseError reports a failed store read or write. The engine performs no
// retries; retry policy belongs to the store client.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s failed: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// CircularDependencyError reports a cycle in the prerequisite graph. The
// message always contains "circular" because callers match on it.
type CircularDependencyError struct {
	ProjectID uuid.UUID
}

func (e *CircularDependencyError) Error() string {
	if e.ProjectID == uuid.Nil {
		return "circular dependency detected in prerequisite graph"
	}
	return fmt.Sprintf("circular dependency detected in prerequisite graph of project %s", e.ProjectID)
}
