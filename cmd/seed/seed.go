package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/model-orchestrator/internal/cli"
	"github.com/nulzo/model-orchestrator/internal/store/model"
	"github.com/nulzo/model-orchestrator/internal/store/sqlite"
)

func main() {
	repo, err := sqlite.NewSQLiteStorage("file:orchestrator.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()
	now := time.Now()

	seedBackends := []model.Backend{
		{
			Identity:     "local-echo",
			Provider:     "static",
			Capabilities: `["chat","code"]`,
			AdapterType:  "static",
			Model:        "echo-1",
			IsEnabled:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			Identity:        "openai-main",
			Provider:        "openai",
			Capabilities:    `["chat","code","vision","embedding"]`,
			AdapterType:     "http",
			BaseURL:         "https://api.openai.com/v1",
			Model:           "gpt-4o-mini",
			MaxPayloadBytes: 1 << 20,
			MaxConcurrency:  16,
			IsEnabled:       true,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}

	for i := range seedBackends {
		if err := repo.Backends().Upsert(ctx, &seedBackends[i]); err != nil {
			log.Fatalf("failed to seed backend %s: %v", seedBackends[i].Identity, err)
		}
		fmt.Printf("%s Seeded backend: %s\n", cli.CheckMark(), seedBackends[i].Identity)
		cli.PrettyPrint(seedBackends[i])
	}

	// A few sample dispatch logs so the analytics queries return something
	kinds, _ := json.Marshal([]string{"timeout"})
	logs := []model.DispatchLog{
		{
			ID:           uuid.New().String(),
			Capability:   "chat",
			ModelID:      "local-echo",
			Outcome:      "success",
			Attempts:     1,
			FailureKinds: "[]",
			PayloadBytes: 42,
			LatencyMS:    12,
			CreatedAt:    now,
		},
		{
			ID:           uuid.New().String(),
			Capability:   "chat",
			ModelID:      "local-echo",
			Outcome:      "success",
			Attempts:     2,
			FailureKinds: string(kinds),
			PayloadBytes: 128,
			LatencyMS:    240,
			CreatedAt:    now,
		},
	}

	for i := range logs {
		if err := repo.Dispatches().Log(ctx, &logs[i]); err != nil {
			log.Fatalf("failed to seed dispatch log: %v", err)
		}
	}

	fmt.Println("\nSuccessfully seeded database!")
}
