// Seed script for creating demo topics in topicgraph.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Harshitk-cp/topicgraph/internal/config"
	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/Harshitk-cp/topicgraph/internal/service"
	"github.com/Harshitk-cp/topicgraph/internal/store"
	"go.uber.org/zap"
)

func main() {
	_ = config.Load()
	ctx := context.Background()

	backends, err := store.OpenBackends(ctx, store.BackendConfig{
		Primary:       config.TopicStore(),
		DatabaseURL:   config.DatabaseURL(),
		Neo4jURI:      config.Neo4jURI(),
		Neo4jUser:     config.Neo4jUser(),
		Neo4jPassword: config.Neo4jPassword(),
		Neo4jDatabase: config.Neo4jDatabase(),
	}, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open backends: %v", err)
	}
	defer backends.Close()

	svc := service.NewImportService(backends.Store, service.ImportConfig{
		Bases:             config.TopicBases(),
		ReservedNamespace: config.ReservedNamespace(),
	}, nil, zap.NewNop())
	for _, m := range backends.Mirrors {
		svc.AddMirror(m)
	}

	boot, err := svc.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("Failed to bootstrap vocabulary: %v", err)
	}
	fmt.Printf("Bootstrap: %d vocabulary topics written\n", boot.TopicsUpserted)

	founded := time.Date(1048, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.ImportRecord{
		{
			ID:          "norway",
			Title:       []domain.NameInput{domain.PlainName("Norway"), domain.ScopedName("Norge", "nb")},
			Description: "A kingdom in northern Europe.",
			Occurrences: []domain.OccurrenceGroup{{
				Kind:  "website",
				Items: []domain.OccurrenceInput{{URI: "https://en.wikipedia.org/wiki/Norway"}},
			}},
		},
		{
			ID:        "oslo",
			Title:     []domain.NameInput{domain.PlainName("Oslo")},
			Author:    "demo",
			CreatedAt: &founded,
			Relations: []domain.RelationLinks{
				{Key: "part_of", Targets: []domain.LinkTarget{{T2: "norway"}}},
				{Key: "category", Targets: []domain.LinkTarget{{T2: "capital-city"}}},
			},
		},
		{
			ID:       "christiania",
			Title:    []domain.NameInput{domain.PlainName("Christiania")},
			AliasFor: []string{"oslo"},
		},
	}

	report, err := svc.ImportBatch(ctx, records, service.BatchOptions{})
	if err != nil {
		log.Fatalf("Failed to import demo topics: %v", err)
	}
	for _, o := range report.Outcomes {
		fmt.Printf("Imported %-12s -> %s [%s]\n", o.Record, o.TopicID, o.Status)
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Println("\nTo look at a topic, use:")
	fmt.Printf("curl http://localhost:%d/v1/topics/oslo\n", config.ServerPort())
}
