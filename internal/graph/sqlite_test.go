package graph

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

func TestSQLiteTypeRoundTrip(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.AddType(ctx, "post", TypeMeta{Name: "Posts", Route: "/:year/:month/:day/:slug"}))
	require.NoError(t, store.AddType(ctx, "category", TypeMeta{Name: "Categories", Route: "/category/:slug"}))

	types, err := store.ListTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	require.Equal(t, "category", types[0].Key)
	require.Equal(t, "Categories", types[0].Name)
	require.Equal(t, "/:year/:month/:day/:slug", types[1].Route)
}

func TestSQLiteTypeReRegistrationOverwrites(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.AddType(ctx, "post", TypeMeta{Name: "Posts", Route: "/a/:slug"}))
	require.NoError(t, store.AddType(ctx, "post", TypeMeta{Name: "Posts", Route: "/b/:slug"}))

	types, err := store.ListTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	require.Equal(t, "/b/:slug", types[0].Route)
}

func TestSQLiteNodeRoundTrip(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	date := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	node := &Node{
		ID:    store.MakeUID("post-1"),
		Title: "Hello",
		Date:  &date,
		Slug:  "hello",
		Fields: map[string]any{
			"content": "<p>body</p>",
			"excerpt": "teaser",
		},
		Refs: map[string][]string{
			"category": {store.MakeUID("term-3"), store.MakeUID("term-7")},
		},
	}
	require.NoError(t, store.AddNode(ctx, "post", node))

	got, err := store.GetNode(ctx, node.ID)
	require.NoError(t, err)
	require.Equal(t, "post", got.Type)
	require.Equal(t, "Hello", got.Title)
	require.Equal(t, "hello", got.Slug)
	require.NotNil(t, got.Date)
	require.True(t, got.Date.Equal(date))
	require.Equal(t, "<p>body</p>", got.Fields["content"])
	require.Equal(t, []string{store.MakeUID("term-3"), store.MakeUID("term-7")}, got.Refs["category"])
}

func TestSQLiteNodeNilDateAndRefs(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	node := &Node{ID: store.MakeUID("term-3"), Title: "News", Slug: "news", Fields: map[string]any{"count": 1}}
	require.NoError(t, store.AddNode(ctx, "category", node))

	got, err := store.GetNode(ctx, node.ID)
	require.NoError(t, err)
	require.Nil(t, got.Date)
	require.Nil(t, got.Refs)
	require.EqualValues(t, 1, got.Fields["count"])
}

func TestSQLiteUpsertByID(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	node := &Node{ID: store.MakeUID("post-1"), Title: "First", Slug: "first"}
	require.NoError(t, store.AddNode(ctx, "post", node))

	node.Title = "First (edited)"
	require.NoError(t, store.AddNode(ctx, "post", node))

	nodes, err := store.ListNodes(ctx, "post")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "First (edited)", nodes[0].Title)
}

func TestSQLiteListNodesFiltersByType(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.AddNode(ctx, "post", &Node{ID: store.MakeUID("post-1"), Slug: "p"}))
	require.NoError(t, store.AddNode(ctx, "category", &Node{ID: store.MakeUID("term-1"), Slug: "c"}))

	posts, err := store.ListNodes(ctx, "post")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "p", posts[0].Slug)

	all, err := store.ListNodes(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSQLiteGetNodeNotFound(t *testing.T) {
	store := newTestSQLite(t)

	_, err := store.GetNode(context.Background(), "missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
