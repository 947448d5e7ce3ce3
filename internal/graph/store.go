package graph

import (
	"context"

	"github.com/google/uuid"
)

// Store is the interface the ingest pipeline writes through and the serve
// command reads through. SQLite, Neo4j and the in-memory store implement it.
type Store interface {
	// Write side, used by the ingest pipeline.
	AddType(ctx context.Context, typeKey string, meta TypeMeta) error
	AddNode(ctx context.Context, typeKey string, node *Node) error

	// Read side, used by the serve command.
	GetNode(ctx context.Context, id string) (*Node, error)
	ListNodes(ctx context.Context, typeKey string) ([]*Node, error)
	ListTypes(ctx context.Context) ([]Type, error)

	// MakeUID derives a stable node id from a raw identifier. It must be
	// deterministic so re-runs against the same remote data upsert the
	// same nodes.
	MakeUID(raw string) string

	Close(ctx context.Context) error
}

// uidNamespace scopes generated ids to this application. Changing it
// changes every node id, so it is fixed.
var uidNamespace = uuid.MustParse("9f2c1a4e-7b3d-4f60-8a15-c2d9e4b07f31")

// MakeUID returns the stable id for a raw identifier. All store backends
// share this derivation so graphs are portable between them.
func MakeUID(raw string) string {
	return uuid.NewSHA1(uidNamespace, []byte(raw)).String()
}
