package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/klarven/conceptgraph/model"
)

const extractionSystemPrompt = `You identify relationships between educational concepts.
Given a list of concepts, return a JSON object of the form
{"relationships": [{"from_concept_name": "...", "to_concept_name": "...", "relationship_type": "...", "strength": 0.0, "reasoning": "..."}]}.
relationship_type must be one of: prerequisite, causal, taxonomic, temporal, contrasts_with.
strength is a number between 0.0 and 1.0 indicating how confident you are in the relationship.
Use concept names exactly as given. Only include relationships you are confident about.`

// extractionResponse is the JSON shape the extraction model is asked to produce
type extractionResponse struct {
	Relationships []*model.IdentifiedRelationship `json:"relationships"`
}

// NewOpenAIExtractor returns an ExtractFunc backed by the OpenAI chat API.
// The function performs a single completion call per invocation; retry and
// timeout policy belong to the supplied client and context.
func NewOpenAIExtractor(client *openai.Client, chatModel string) ExtractFunc {
	return func(ctx context.Context, concepts []*model.Concept) ([]*model.IdentifiedRelationship, error) {
		if len(concepts) == 0 {
			return []*model.IdentifiedRelationship{}, nil
		}

		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: extractionSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: formatConceptsPrompt(concepts),
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion failed: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("chat completion returned no choices")
		}

		var parsed extractionResponse
		err = json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed)
		if err != nil {
			return nil, fmt.Errorf("parsing extraction response: %w", err)
		}

		return parsed.Relationships, nil
	}
}

// formatConceptsPrompt renders the concept set as extraction context
func formatConceptsPrompt(concepts []*model.Concept) string {
	var sb strings.Builder
	sb.WriteString("Concepts:\n")
	for _, concept := range concepts {
		sb.WriteString(fmt.Sprintf("- %s", concept.Name))
		if concept.Definition != "" {
			sb.WriteString(fmt.Sprintf(": %s", concept.Definition))
		}
		if len(concept.KeyPoints) > 0 {
			sb.WriteString(fmt.Sprintf(" (key points: %s)", strings.Join(concept.KeyPoints, "; ")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
