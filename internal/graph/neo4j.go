package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jConfig holds Neo4j connection configuration
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jStore implements Store using Neo4j.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4j creates a new Neo4j store and verifies connectivity.
func NewNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jStore{driver: driver, database: database}, nil
}

// AddType registers a node type as a (:Type) node, merged by key.
func (s *Neo4jStore) AddType(ctx context.Context, typeKey string, meta TypeMeta) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (t:Type {key: $key})
			SET t.name = $name, t.route = $route
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"key":   typeKey,
			"name":  meta.Name,
			"route": meta.Route,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("registering type %s: %w", typeKey, err)
	}
	return nil
}

// AddNode stores a node, merged by id so re-runs converge on the same
// graph. Fields and refs are stored as JSON strings since Neo4j does not
// support nested maps as properties.
func (s *Neo4jStore) AddNode(ctx context.Context, typeKey string, node *Node) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	fieldsJSON, err := json.Marshal(node.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}
	refsJSON, err := json.Marshal(node.Refs)
	if err != nil {
		return fmt.Errorf("marshaling refs: %w", err)
	}

	var date string
	if node.Date != nil {
		date = node.Date.UTC().Format(time.RFC3339)
	}

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (n:Node {id: $id})
			SET n.type = $type,
				n.title = $title,
				n.date = $date,
				n.slug = $slug,
				n.fields = $fields,
				n.refs = $refs,
				n.modified = datetime()
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":     node.ID,
			"type":   typeKey,
			"title":  node.Title,
			"date":   date,
			"slug":   node.Slug,
			"fields": string(fieldsJSON),
			"refs":   string(refsJSON),
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("storing node %s: %w", node.ID, err)
	}
	return nil
}

// GetNode retrieves a node by id.
func (s *Neo4jStore) GetNode(ctx context.Context, id string) (*Node, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (n:Node {id: $id}) RETURN n`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			return nil, fmt.Errorf("node not found: %s", id)
		}
		nodeValue, _ := result.Record().Get("n")
		return nodeFromProps(nodeValue.(neo4j.Node).Props)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Node), nil
}

// ListNodes returns all nodes of the given type, or all nodes when
// typeKey is empty, ordered by id.
func (s *Neo4jStore) ListNodes(ctx context.Context, typeKey string) ([]*Node, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `MATCH (n:Node) RETURN n ORDER BY n.id`
		params := map[string]any{}
		if typeKey != "" {
			query = `MATCH (n:Node {type: $type}) RETURN n ORDER BY n.id`
			params["type"] = typeKey
		}

		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		var nodes []*Node
		for result.Next(ctx) {
			nodeValue, _ := result.Record().Get("n")
			node, err := nodeFromProps(nodeValue.(neo4j.Node).Props)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
		return nodes, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	return result.([]*Node), nil
}

// ListTypes returns all registered types ordered by key.
func (s *Neo4jStore) ListTypes(ctx context.Context) ([]Type, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (t:Type) RETURN t ORDER BY t.key`, nil)
		if err != nil {
			return nil, err
		}

		var types []Type
		for result.Next(ctx) {
			typeValue, _ := result.Record().Get("t")
			props := typeValue.(neo4j.Node).Props
			t := Type{Key: stringProp(props, "key")}
			t.Name = stringProp(props, "name")
			t.Route = stringProp(props, "route")
			types = append(types, t)
		}
		return types, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing types: %w", err)
	}
	return result.([]Type), nil
}

// MakeUID derives a stable node id from a raw identifier.
func (s *Neo4jStore) MakeUID(raw string) string {
	return MakeUID(raw)
}

// Close closes the Neo4j connection.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func nodeFromProps(props map[string]any) (*Node, error) {
	node := &Node{
		ID:    stringProp(props, "id"),
		Type:  stringProp(props, "type"),
		Title: stringProp(props, "title"),
		Slug:  stringProp(props, "slug"),
	}

	if dateStr := stringProp(props, "date"); dateStr != "" {
		parsed, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing node date: %w", err)
		}
		node.Date = &parsed
	}
	if fieldsStr := stringProp(props, "fields"); fieldsStr != "" && fieldsStr != "null" {
		if err := json.Unmarshal([]byte(fieldsStr), &node.Fields); err != nil {
			return nil, fmt.Errorf("unmarshaling fields: %w", err)
		}
	}
	if refsStr := stringProp(props, "refs"); refsStr != "" && refsStr != "null" {
		if err := json.Unmarshal([]byte(refsStr), &node.Refs); err != nil {
			return nil, fmt.Errorf("unmarshaling refs: %w", err)
		}
	}
	return node, nil
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
