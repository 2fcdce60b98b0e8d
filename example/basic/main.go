package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/klarven/conceptgraph"
	"github.com/klarven/conceptgraph/helper"
	"github.com/klarven/conceptgraph/model"
)

// sampleConcepts is a small programming curriculum to build a graph over
var sampleConcepts = []struct {
	name       string
	definition string
	keyPoints  []string
}{
	{
		name:       "Variables",
		definition: "Named storage locations holding values that can change during execution.",
		keyPoints:  []string{"declaration", "assignment", "scope"},
	},
	{
		name:       "Functions",
		definition: "Reusable blocks of logic that take parameters and return values.",
		keyPoints:  []string{"parameters", "return values", "call stack"},
	},
	{
		name:       "Loops",
		definition: "Control structures that repeat a block of code.",
		keyPoints:  []string{"for", "while", "termination condition"},
	},
	{
		name:       "Recursion",
		definition: "Functions that call themselves to solve smaller instances of a problem.",
		keyPoints:  []string{"base case", "recursive case"},
	},
}

// stubExtractor stands in for an LLM-backed extractor so the example runs
// offline. Swap in pipeline.NewOpenAIExtractor for real extraction.
func stubExtractor(ctx context.Context, concepts []*model.Concept) ([]*model.IdentifiedRelationship, error) {
	return []*model.IdentifiedRelationship{
		{FromConceptName: "Variables", ToConceptName: "Functions", Type: "prerequisite", Strength: 0.9, Reasoning: "functions operate on variables"},
		{FromConceptName: "Variables", ToConceptName: "Loops", Type: "prerequisite", Strength: 0.85, Reasoning: "loop counters are variables"},
		{FromConceptName: "Functions", ToConceptName: "Recursion", Type: "prerequisite", Strength: 0.95, Reasoning: "recursion is a function calling itself"},
		{FromConceptName: "Loops", ToConceptName: "Recursion", Type: "contrasts_with", Strength: 0.7, Reasoning: "iteration and recursion solve similar problems"},
	}, nil
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	engine, err := conceptgraph.NewEngine(dbConfig, stubExtractor, 384)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	// Create the concepts for a project
	projectID := uuid.New()
	concepts := make([]*model.Concept, 0, len(sampleConcepts))
	for _, sample := range sampleConcepts {
		concept := &model.Concept{
			ProjectID:  projectID,
			Name:       sample.name,
			Definition: sample.definition,
			KeyPoints:  sample.keyPoints,
			Tier:       "foundation",
			Metadata:   model.Metadata{"source": "basic_example"},
		}
		if err := engine.Concepts.InsertConcept(concept); err != nil {
			log.Fatalf("Failed to insert concept %s: %v", sample.name, err)
		}
		concepts = append(concepts, concept)
	}
	fmt.Printf("Inserted %d concepts for project %s\n", len(concepts), projectID)

	// Build the knowledge graph
	fmt.Println("\nBuilding knowledge graph...")
	relationships, err := engine.BuildKnowledgeGraph(context.Background(), projectID, concepts)
	if err != nil {
		log.Fatalf("Failed to build knowledge graph: %v", err)
	}
	fmt.Printf("Persisted %d relationships\n", len(relationships))

	// Check the structure
	cyclic, err := engine.HasCircularDependency(projectID)
	if err != nil {
		log.Fatalf("Failed to check for cycles: %v", err)
	}
	fmt.Printf("Circular dependency: %v\n", cyclic)

	// Compute the learning order
	ordered, err := engine.GetTopologicalOrder(projectID)
	if err != nil {
		log.Fatalf("Failed to compute learning order: %v", err)
	}

	fmt.Println("\nSuggested learning order:")
	for i, concept := range ordered {
		fmt.Printf("%d. %s\n", i+1, concept.Name)
	}

	// Inspect one concept's place in the graph
	recursion := concepts[3]
	prerequisites, err := engine.GetPrerequisites(recursion.ID)
	if err != nil {
		log.Fatalf("Failed to get prerequisites: %v", err)
	}

	fmt.Printf("\nPrerequisites of %s:\n", recursion.Name)
	for _, prerequisite := range prerequisites {
		fmt.Printf("- %s\n", prerequisite.Name)
	}

	fmt.Println("\nBasic example completed successfully!")
}
