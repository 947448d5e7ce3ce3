// Package config loads ingest configuration from the environment.
// Command-line flags override whatever is loaded here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults for pagination and fan-out.
const (
	DefaultAPIRoot     = "wp-json/wp/v2"
	DefaultPerPage     = 100
	DefaultConcurrency = 10
)

// Config holds one ingest run's configuration.
type Config struct {
	BaseURL         string
	APIRoot         string
	PerPage         int
	Concurrency     int
	RouteOverrides  map[string]string
	DefaultTypeName string

	// Store selection.
	Store         string // sqlite, neo4j or memory
	SQLitePath    string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPass     string
	Neo4jDatabase string
}

// Load reads configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	overrides, err := ParseRouteOverrides(getEnv("WPGRAPH_ROUTE_OVERRIDES", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseURL:         getEnv("WPGRAPH_BASE_URL", ""),
		APIRoot:         getEnv("WPGRAPH_API_ROOT", DefaultAPIRoot),
		PerPage:         getEnvInt("WPGRAPH_PER_PAGE", DefaultPerPage),
		Concurrency:     getEnvInt("WPGRAPH_CONCURRENCY", DefaultConcurrency),
		RouteOverrides:  overrides,
		DefaultTypeName: getEnv("WPGRAPH_DEFAULT_TYPE_NAME", "Post"),

		Store:         getEnv("WPGRAPH_STORE", "sqlite"),
		SQLitePath:    getEnv("WPGRAPH_SQLITE_PATH", "wpgraph.db"),
		Neo4jURI:      getEnv("WPGRAPH_NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("WPGRAPH_NEO4J_USER", "neo4j"),
		Neo4jPass:     getEnv("WPGRAPH_NEO4J_PASS", ""),
		Neo4jDatabase: getEnv("WPGRAPH_NEO4J_DATABASE", "neo4j"),
	}

	return cfg, nil
}

// Validate checks that required configuration is present and within bounds.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		return fmt.Errorf("per_page must be between 1 and 100, got %d", c.PerPage)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	switch c.Store {
	case "sqlite", "neo4j", "memory":
	default:
		return fmt.Errorf("unknown store %q (want sqlite, neo4j or memory)", c.Store)
	}
	return nil
}

// ParseRouteOverrides parses "type=template" pairs separated by commas,
// e.g. "post=/blog/:slug,category=/topics/:slug".
func ParseRouteOverrides(raw string) (map[string]string, error) {
	overrides := make(map[string]string)
	if raw == "" {
		return overrides, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		key, template, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid route override %q (want type=template)", pair)
		}
		overrides[key] = template
	}
	return overrides, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
