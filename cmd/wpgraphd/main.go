package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/wpgraph/wpgraph/internal/api"
	"github.com/wpgraph/wpgraph/internal/graph"
	"github.com/wpgraph/wpgraph/internal/version"
)

func main() {
	// Parse command line flags
	addr := flag.String("addr", ":3000", "HTTP service address")
	dbPath := flag.String("db", "wpgraph.db", "SQLite database path")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.BuildInfo())
		os.Exit(0)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	store, err := graph.NewSQLite(ctx, *dbPath)
	if err != nil {
		logger.Fatal("Error opening graph store", zap.Error(err))
	}
	defer store.Close(ctx)

	server := api.New(store, logger)

	logger.Info("Starting server", zap.String("addr", *addr), zap.String("db", *dbPath))
	if err := http.ListenAndServe(*addr, server.Router()); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
