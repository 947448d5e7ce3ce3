package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wpgraph/wpgraph/internal/graph"
	"github.com/wpgraph/wpgraph/internal/wp"
)

// newSiteServer fakes a small WordPress site: two posts across two pages,
// one page, two categories and one tag.
func newSiteServer(t *testing.T, failPostsPage int) *httptest.Server {
	t.Helper()

	writeCollection := func(w http.ResponseWriter, total, pages int, body string) {
		w.Header().Set(wp.TotalHeader, strconv.Itoa(total))
		w.Header().Set(wp.TotalPagesHeader, strconv.Itoa(pages))
		w.Write([]byte(body))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"namespace": "wp/v2"}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/types", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"post": {"name": "Posts", "rest_base": "posts"},
			"page": {"name": "Pages", "rest_base": "pages"},
			"attachment": {"name": "Media", "rest_base": "media"}
		}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/taxonomies", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"category": {"name": "Categories", "rest_base": "categories"},
			"post_tag": {"name": "Tags", "rest_base": "tags"}
		}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			page = 1
		}
		if page == failPostsPage {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
			return
		}
		if page == 1 {
			writeCollection(w, 2, 2, `[{
				"id": 1,
				"title": {"rendered": "First"},
				"date": "2024-01-02T08:00:00",
				"slug": "first",
				"content": {"rendered": "<p>one</p>"},
				"excerpt": {"rendered": "one"},
				"categories": [3, 7],
				"tags": []
			}]`)
			return
		}
		writeCollection(w, 2, 2, `[{
			"id": 2,
			"title": {"rendered": "Second"},
			"date": "2024-02-03T09:00:00",
			"slug": "second",
			"content": {"rendered": "<p>two</p>"},
			"excerpt": {"rendered": "two"}
		}]`)
	})
	mux.HandleFunc("/wp-json/wp/v2/pages", func(w http.ResponseWriter, r *http.Request) {
		writeCollection(w, 1, 1, `[{
			"id": 100,
			"title": {"rendered": "About"},
			"slug": "about"
		}]`)
	})
	mux.HandleFunc("/wp-json/wp/v2/categories", func(w http.ResponseWriter, r *http.Request) {
		writeCollection(w, 2, 1, `[
			{"id": 3, "name": "News", "slug": "news", "count": 1},
			{"id": 7, "name": "Tech", "slug": "tech", "count": 4}
		]`)
	})
	mux.HandleFunc("/wp-json/wp/v2/tags", func(w http.ResponseWriter, r *http.Request) {
		writeCollection(w, 0, 0, `[]`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(baseURL string) Options {
	return Options{
		BaseURL:         baseURL,
		APIRoot:         "wp-json/wp/v2",
		PerPage:         1,
		Concurrency:     4,
		DefaultTypeName: "Post",
	}
}

func TestPipelineRun(t *testing.T) {
	srv := newSiteServer(t, 0)
	store := graph.NewMemory()
	p := NewPipeline(wp.NewClient(nil), store, testOptions(srv.URL), zap.NewNop())

	require.NoError(t, p.Run(context.Background()))

	ctx := context.Background()

	posts, err := store.ListNodes(ctx, "post")
	require.NoError(t, err)
	require.Len(t, posts, 2)

	pages, err := store.ListNodes(ctx, "page")
	require.NoError(t, err)
	require.Len(t, pages, 1)

	terms, err := store.ListNodes(ctx, "category")
	require.NoError(t, err)
	require.Len(t, terms, 2)

	// Post 1 references both categories by their term stable ids; its
	// empty-but-present tags property yields an empty ref list, while
	// post 2 carries no refs at all.
	post1, err := store.GetNode(ctx, graph.MakeUID("post-1"))
	require.NoError(t, err)
	require.Equal(t, "First", post1.Title)
	require.Equal(t, []string{graph.MakeUID("term-3"), graph.MakeUID("term-7")}, post1.Refs["category"])
	require.Empty(t, post1.Refs["post_tag"])
	require.Contains(t, post1.Refs, "post_tag")

	post2, err := store.GetNode(ctx, graph.MakeUID("post-2"))
	require.NoError(t, err)
	require.Nil(t, post2.Refs)

	// Reference targets resolve to real term nodes.
	news, err := store.GetNode(ctx, post1.Refs["category"][0])
	require.NoError(t, err)
	require.Equal(t, "News", news.Title)
	require.EqualValues(t, 1, news.Fields["count"])

	// All content types share the post namespace, mirroring WordPress's
	// single posts table with globally unique ids.
	require.Equal(t, graph.MakeUID("post-100"), pages[0].ID)
}

func TestPipelineRunIsIdempotent(t *testing.T) {
	srv := newSiteServer(t, 0)
	store := graph.NewMemory()
	p := NewPipeline(wp.NewClient(nil), store, testOptions(srv.URL), zap.NewNop())

	require.NoError(t, p.Run(context.Background()))
	first, err := store.ListNodes(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, p.Run(context.Background()))
	second, err := store.ListNodes(context.Background(), "")
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestPipelineFailingEndpointEmitsNothing(t *testing.T) {
	srv := newSiteServer(t, 2)
	store := graph.NewMemory()
	p := NewPipeline(wp.NewClient(nil), store, testOptions(srv.URL), zap.NewNop())

	err := p.Run(context.Background())
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))

	// Graph building only happens after an endpoint's fetch completes in
	// full, so the failing posts endpoint contributes no nodes even
	// though its first page was fetched.
	nodes, listErr := store.ListNodes(context.Background(), "post")
	require.NoError(t, listErr)
	require.Empty(t, nodes)

	// Endpoints that completed before the failure keep their nodes; a
	// corrective re-run upserts the same ids.
	pages, listErr := store.ListNodes(context.Background(), "page")
	require.NoError(t, listErr)
	require.Len(t, pages, 1)
}

func TestPipelineUnreachableSite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	store := graph.NewMemory()
	p := NewPipeline(wp.NewClient(nil), store, testOptions(baseURL), zap.NewNop())

	err := p.Run(context.Background())
	var unreachable *UnreachableAPIError
	require.True(t, errors.As(err, &unreachable))
	require.Contains(t, err.Error(), fmt.Sprintf("%s/wp-json/wp/v2", baseURL))

	nodes, listErr := store.ListNodes(context.Background(), "")
	require.NoError(t, listErr)
	require.Empty(t, nodes)
}
