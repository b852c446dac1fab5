package main

import (
	"context"
	"fmt"
	"log"
	"os"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/blueprint/internal/config"
	neo4jrepo "github.com/efebarandurmaz/blueprint/internal/graph/neo4j"
	"github.com/efebarandurmaz/blueprint/internal/plugins"
	csharpplugin "github.com/efebarandurmaz/blueprint/internal/plugins/source/csharp"
	"github.com/efebarandurmaz/blueprint/internal/server"
	temporalmod "github.com/efebarandurmaz/blueprint/internal/temporal"
	qdrantrepo "github.com/efebarandurmaz/blueprint/internal/vector/qdrant"
)

func main() {
	configPath := "configs/blueprint.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	registry := plugins.NewRegistry()
	registry.RegisterSource(csharpplugin.New())

	ctx := context.Background()
	deps := &temporalmod.Dependencies{Registry: registry, Config: cfg}

	srv := server.NewGracefulServer(&server.HealthConfig{Version: "0.1.0"}, nil)

	if cfg.Graph.URI != "" {
		repo, err := neo4jrepo.NewNeo4j(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
		if err != nil {
			log.Fatalf("graph store: %v", err)
		}
		deps.Graph = repo
		srv.AddHook(server.GraphShutdownHook(repo.Close))
	}

	if cfg.Vector.Host != "" {
		repo, err := qdrantrepo.NewQdrant(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection)
		if err != nil {
			log.Fatalf("vector index: %v", err)
		}
		if err := repo.EnsureCollection(ctx); err != nil {
			log.Fatalf("vector collection: %v", err)
		}
		deps.Vector = repo
		srv.AddHook(server.VectorShutdownHook(repo.Close))
		srv.Health.RegisterCheck("vector", server.VectorHealthChecker(cfg.Vector.Collection, nil))
	}

	temporalmod.SetDependencies(deps)

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	srv.Health.RegisterCheck("temporal", server.TemporalHealthChecker(func(ctx context.Context) error {
		_, err := c.CheckHealth(ctx, &temporalclient.CheckHealthRequest{})
		return err
	}))

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}
	srv.AddHook(server.TemporalWorkerShutdownHook(w.Stop))

	if err := srv.Start(":8080"); err != nil {
		log.Fatalf("health server: %v", err)
	}
	fmt.Printf("Worker started on task queue: %s\n", cfg.Temporal.TaskQueue)

	srv.Wait()
	fmt.Println("Worker stopped")
}
