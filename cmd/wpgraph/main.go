package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wpgraph/wpgraph/internal/config"
	"github.com/wpgraph/wpgraph/internal/graph"
	"github.com/wpgraph/wpgraph/internal/ingest"
	"github.com/wpgraph/wpgraph/internal/version"
	"github.com/wpgraph/wpgraph/internal/wp"
)

func main() {
	// Environment supplies defaults; flags override.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	baseURL := flag.String("base-url", cfg.BaseURL, "Site root URL, e.g. https://example.com")
	apiRoot := flag.String("api-root", cfg.APIRoot, "REST prefix under the base URL")
	perPage := flag.Int("per-page", cfg.PerPage, "Page size requested from the API (1-100)")
	concurrency := flag.Int("concurrency", cfg.Concurrency, "Max in-flight page requests per endpoint")
	routes := flag.String("routes", "", "Route template overrides, e.g. post=/blog/:slug,category=/topics/:slug")
	defaultTypeName := flag.String("default-type-name", cfg.DefaultTypeName, "Display name for unnamed content types")
	storeKind := flag.String("store", cfg.Store, "Graph store backend: sqlite, neo4j or memory")
	sqlitePath := flag.String("db", cfg.SQLitePath, "SQLite database path")
	neo4jURI := flag.String("neo4j-uri", cfg.Neo4jURI, "Neo4j connection URI")
	neo4jUser := flag.String("neo4j-user", cfg.Neo4jUser, "Neo4j username")
	neo4jPass := flag.String("neo4j-pass", cfg.Neo4jPass, "Neo4j password")
	neo4jDatabase := flag.String("neo4j-database", cfg.Neo4jDatabase, "Neo4j database name")
	timeout := flag.Duration("timeout", 0, "Per-request deadline on the HTTP transport (0 disables)")
	verbose := flag.Bool("v", false, "Verbose (debug) logging")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.BuildInfo())
		os.Exit(0)
	}

	cfg.BaseURL = *baseURL
	cfg.APIRoot = *apiRoot
	cfg.PerPage = *perPage
	cfg.Concurrency = *concurrency
	cfg.DefaultTypeName = *defaultTypeName
	cfg.Store = *storeKind
	cfg.SQLitePath = *sqlitePath
	cfg.Neo4jURI = *neo4jURI
	cfg.Neo4jUser = *neo4jUser
	cfg.Neo4jPass = *neo4jPass
	cfg.Neo4jDatabase = *neo4jDatabase
	if *routes != "" {
		overrides, err := config.ParseRouteOverrides(*routes)
		if err != nil {
			log.Fatalf("Error parsing route overrides: %v", err)
		}
		cfg.RouteOverrides = overrides
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Error opening graph store", zap.Error(err))
	}
	defer store.Close(ctx)

	client := wp.NewClient(&http.Client{Timeout: *timeout})
	pipeline := ingest.NewPipeline(client, store, ingest.Options{
		BaseURL:         cfg.BaseURL,
		APIRoot:         cfg.APIRoot,
		PerPage:         cfg.PerPage,
		Concurrency:     cfg.Concurrency,
		RouteOverrides:  cfg.RouteOverrides,
		DefaultTypeName: cfg.DefaultTypeName,
	}, logger)

	start := time.Now()
	if err := pipeline.Run(ctx); err != nil {
		logger.Fatal("Ingest failed", zap.Error(err))
	}
	logger.Info("Ingest complete",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openStore(ctx context.Context, cfg *config.Config) (graph.Store, error) {
	switch cfg.Store {
	case "sqlite":
		return graph.NewSQLite(ctx, cfg.SQLitePath)
	case "neo4j":
		return graph.NewNeo4j(ctx, graph.Neo4jConfig{
			URI:      cfg.Neo4jURI,
			Username: cfg.Neo4jUser,
			Password: cfg.Neo4jPass,
			Database: cfg.Neo4jDatabase,
		})
	case "memory":
		return graph.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
