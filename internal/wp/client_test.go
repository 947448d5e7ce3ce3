package wp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReturnsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set(TotalHeader, "42")
		w.Header().Set(TotalPagesHeader, "5")
		w.Write([]byte(`[{"id": 1}]`))
	}))
	defer srv.Close()

	resp, err := NewClient(nil).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, `[{"id": 1}]`, string(resp.Body))
	require.Equal(t, 42, resp.Total())
	require.Equal(t, 5, resp.TotalPages())
}

func TestGetNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(nil).Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestGetTransportFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(nil).Get(context.Background(), url)
	require.Error(t, err)
}

func TestMissingPaginationHeadersAreZero(t *testing.T) {
	resp := &Response{Header: http.Header{}}
	require.Equal(t, 0, resp.Total())
	require.Equal(t, 0, resp.TotalPages())
}

func TestPageURL(t *testing.T) {
	got := PageURL("https://example.com/wp-json/wp/v2/posts", 100, 3)
	require.Equal(t, "https://example.com/wp-json/wp/v2/posts?page=3&per_page=100", got)
}

func TestPageURLKeepsExistingQuery(t *testing.T) {
	got := PageURL("https://example.com/posts?status=publish", 10, 1)
	require.Equal(t, "https://example.com/posts?page=1&per_page=10&status=publish", got)
}
