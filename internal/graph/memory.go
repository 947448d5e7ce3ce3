package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a map-backed Store for tests and dry runs.
type MemoryStore struct {
	mu    sync.RWMutex
	types map[string]TypeMeta
	nodes map[string]*Node
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		types: make(map[string]TypeMeta),
		nodes: make(map[string]*Node),
	}
}

// AddType registers a node type, overwriting any previous registration.
func (s *MemoryStore) AddType(ctx context.Context, typeKey string, meta TypeMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[typeKey] = meta
	return nil
}

// AddNode stores a node, overwriting by id.
func (s *MemoryStore) AddNode(ctx context.Context, typeKey string, node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *node
	copied.Type = typeKey
	s.nodes[copied.ID] = &copied
	return nil
}

// GetNode retrieves a node by id.
func (s *MemoryStore) GetNode(ctx context.Context, id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	copied := *node
	return &copied, nil
}

// ListNodes returns all nodes of the given type, or all nodes when
// typeKey is empty, ordered by id.
func (s *MemoryStore) ListNodes(ctx context.Context, typeKey string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var nodes []*Node
	for _, node := range s.nodes {
		if typeKey != "" && node.Type != typeKey {
			continue
		}
		copied := *node
		nodes = append(nodes, &copied)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, nil
}

// ListTypes returns all registered types ordered by key.
func (s *MemoryStore) ListTypes(ctx context.Context) ([]Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]Type, 0, len(s.types))
	for key, meta := range s.types {
		types = append(types, Type{Key: key, TypeMeta: meta})
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Key < types[j].Key })
	return types, nil
}

// MakeUID derives a stable node id from a raw identifier.
func (s *MemoryStore) MakeUID(raw string) string {
	return MakeUID(raw)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
