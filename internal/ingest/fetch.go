package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/wpgraph/wpgraph/internal/queue"
	"github.com/wpgraph/wpgraph/internal/wp"
)

// Endpoint describes one REST collection to fetch in full.
type Endpoint struct {
	URL         string
	PerPage     int
	Concurrency int
}

// Fetcher retrieves full paginated collections from the API.
type Fetcher struct {
	client *wp.Client
	log    *zap.Logger
}

// NewFetcher creates a fetcher.
func NewFetcher(client *wp.Client, log *zap.Logger) *Fetcher {
	return &Fetcher{client: client, log: log}
}

// FetchAll retrieves every record of a collection. Page 1 is fetched
// synchronously to learn the total page count from response headers;
// remaining pages fan out across at most ep.Concurrency concurrent
// requests. Records keep their intra-page order; pages are appended in
// completion order. The first page failure or malformed body aborts
// outstanding work and fails the whole fetch with no partial results.
func (f *Fetcher) FetchAll(ctx context.Context, ep Endpoint) ([]Record, error) {
	firstURL := wp.PageURL(ep.URL, ep.PerPage, 1)
	resp, err := f.client.Get(ctx, firstURL)
	if err != nil {
		return nil, &FetchError{URL: firstURL, Err: err}
	}

	records, err := normalizeBody(firstURL, resp.Body)
	if err != nil {
		return nil, err
	}

	total := resp.Total()
	pages := resp.TotalPages()
	f.log.Debug("fetched first page",
		zap.String("endpoint", ep.URL),
		zap.Int("total", total),
		zap.Int("pages", pages),
	)

	if total == 0 || pages <= 1 {
		return records, nil
	}

	q := queue.New[[]Record](ctx, ep.Concurrency, pages-1)
	for page := 2; page <= pages; page++ {
		pageURL := wp.PageURL(ep.URL, ep.PerPage, page)
		q.Go(func(taskCtx context.Context) ([]Record, error) {
			resp, err := f.client.Get(taskCtx, pageURL)
			if err != nil {
				return nil, &FetchError{URL: pageURL, Err: err}
			}
			return normalizeBody(pageURL, resp.Body)
		})
	}
	q.Seal()

	// Single consumer serializes appends even though fetches run in
	// parallel.
	for res := range q.Results() {
		if res.Err != nil {
			q.Stop()
			return nil, res.Err
		}
		records = append(records, res.Value...)
	}

	// A canceled parent context tears the queue down mid-fan-out: the
	// results channel closes with pending pages dropped, so whatever
	// drained is incomplete.
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: ep.URL, Err: err}
	}

	f.log.Debug("fetched collection",
		zap.String("endpoint", ep.URL),
		zap.Int("records", len(records)),
	)
	return records, nil
}
