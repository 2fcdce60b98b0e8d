package pipeline

import (
	"fmt"
	"strings"

	"github.com/klarven/conceptgraph/model"
)

// ValidateIdentifiedRelationship checks a relationship candidate against the
// allowed domain. It accepts exactly the five known relationship types, a
// strength within [0.0, 1.0] inclusive, and non-blank endpoint names.
// Pure function, no side effects.
func ValidateIdentifiedRelationship(candidate *model.IdentifiedRelationship) error {
	if strings.TrimSpace(candidate.FromConceptName) == "" {
		return &model.ValidationError{
			Reason:    "from_concept_name is empty",
			Candidate: *candidate,
		}
	}

	if strings.TrimSpace(candidate.ToConceptName) == "" {
		return &model.ValidationError{
			Reason:    "to_concept_name is empty",
			Candidate: *candidate,
		}
	}

	if _, ok := model.ParseRelationshipType(candidate.Type); !ok {
		return &model.ValidationError{
			Reason:    fmt.Sprintf("unknown relationship_type %q", candidate.Type),
			Candidate: *candidate,
		}
	}

	if candidate.Strength < 0.0 || candidate.Strength > 1.0 {
		return &model.ValidationError{
			Reason:    fmt.Sprintf("strength %v outside [0.0, 1.0]", candidate.Strength),
			Candidate: *candidate,
		}
	}

	return nil
}
