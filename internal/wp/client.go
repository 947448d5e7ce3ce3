// Package wp is a minimal client for the WordPress REST API. It does
// exactly what the ingest pipeline needs: GET a URL, surface status,
// headers and body, and fail on anything that is not a 2xx. Retries and
// caching are deliberately absent; callers that want deadlines supply an
// http.Client with one.
package wp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Pagination metadata headers reported by the WordPress REST API.
const (
	TotalHeader      = "X-WP-Total"
	TotalPagesHeader = "X-WP-TotalPages"
)

// Response is one successful GET result.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Total returns the total item count from pagination headers, or 0 when
// the header is absent or unparseable.
func (r *Response) Total() int {
	return headerInt(r.Header, TotalHeader)
}

// TotalPages returns the total page count from pagination headers, or 0
// when the header is absent or unparseable.
func (r *Response) TotalPages() int {
	return headerInt(r.Header, TotalPagesHeader)
}

func headerInt(h http.Header, key string) int {
	n, err := strconv.Atoi(h.Get(key))
	if err != nil {
		return 0
	}
	return n
}

// Client issues GET requests against a WordPress-style REST API.
type Client struct {
	http *http.Client
}

// NewClient creates a client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient}
}

// Get issues a GET request and returns the response. Transport failures
// and non-2xx statuses are errors.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

// PageURL appends per_page and page query parameters to a collection URL.
func PageURL(endpoint string, perPage, page int) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		// Leave an unparseable URL alone; the request will fail with a
		// useful error instead.
		return endpoint
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
