package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wpgraph/wpgraph/internal/graph"
	"github.com/wpgraph/wpgraph/internal/wp"
)

// excludedType is skipped during content type registration: binary
// attachments carry no node content.
const excludedType = "attachment"

// defaultRoutes are the built-in URL route templates. Caller-supplied
// overrides take precedence per type key.
var defaultRoutes = map[string]string{
	"post":     "/:year/:month/:day/:slug",
	"post_tag": "/tag/:slug",
	"category": "/category/:slug",
}

// ContentType is one discovered content type and the REST base used to
// build its fetch endpoint.
type ContentType struct {
	Key      string
	Name     string
	RestBase string
}

// TaxonomyType is one discovered taxonomy. RefProperty is the JSON
// property under which content records embed term ids for this taxonomy;
// the WordPress REST API uses the taxonomy's rest_base for it.
type TaxonomyType struct {
	Key         string
	Name        string
	RestBase    string
	RefProperty string
}

// typeListing is the shape of one entry in /types and /taxonomies.
type typeListing struct {
	Name     string `json:"name"`
	RestBase string `json:"rest_base"`
}

// Discoverer queries the API for its content and taxonomy types and
// registers each as a graph type.
type Discoverer struct {
	client *wp.Client
	store  graph.Store
	log    *zap.Logger
}

// NewDiscoverer creates a discoverer.
func NewDiscoverer(client *wp.Client, store graph.Store, log *zap.Logger) *Discoverer {
	return &Discoverer{client: client, store: store, log: log}
}

// Discover verifies the API root is reachable, fetches the type and
// taxonomy listings, registers every kept type with the store, and
// returns the types in deterministic (key) order. An unreachable root
// fails fast with UnreachableAPIError before any other work.
func (d *Discoverer) Discover(ctx context.Context, apiURL string, overrides map[string]string, defaultTypeName string) ([]ContentType, []TaxonomyType, error) {
	if _, err := d.client.Get(ctx, apiURL); err != nil {
		return nil, nil, &UnreachableAPIError{BaseURL: apiURL, Err: err}
	}

	var typeEntries, taxEntries map[string]typeListing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		typeEntries, err = d.fetchListing(gctx, apiURL+"/types")
		return err
	})
	g.Go(func() error {
		var err error
		taxEntries, err = d.fetchListing(gctx, apiURL+"/taxonomies")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	contentTypes, err := d.registerContentTypes(ctx, typeEntries, overrides, defaultTypeName)
	if err != nil {
		return nil, nil, err
	}
	taxonomies, err := d.registerTaxonomies(ctx, taxEntries, overrides)
	if err != nil {
		return nil, nil, err
	}

	d.log.Info("discovered schema",
		zap.Int("content_types", len(contentTypes)),
		zap.Int("taxonomies", len(taxonomies)),
	)
	return contentTypes, taxonomies, nil
}

func (d *Discoverer) fetchListing(ctx context.Context, url string) (map[string]typeListing, error) {
	resp, err := d.client.Get(ctx, url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	var entries map[string]typeListing
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, newMalformedResponseError(url, resp.Body)
	}
	return entries, nil
}

func (d *Discoverer) registerContentTypes(ctx context.Context, entries map[string]typeListing, overrides map[string]string, defaultTypeName string) ([]ContentType, error) {
	var types []ContentType
	for _, key := range sortedKeys(entries) {
		if key == excludedType {
			continue
		}
		entry := entries[key]
		name := entry.Name
		if name == "" {
			name = defaultTypeName
		}
		restBase := entry.RestBase
		if restBase == "" {
			restBase = key
		}

		meta := graph.TypeMeta{Name: name, Route: routeFor(key, overrides)}
		if err := d.store.AddType(ctx, key, meta); err != nil {
			return nil, fmt.Errorf("registering content type %s: %w", key, err)
		}
		types = append(types, ContentType{Key: key, Name: name, RestBase: restBase})
	}
	return types, nil
}

// registerTaxonomies registers every discovered taxonomy as a graph type,
// override or not.
func (d *Discoverer) registerTaxonomies(ctx context.Context, entries map[string]typeListing, overrides map[string]string) ([]TaxonomyType, error) {
	var taxonomies []TaxonomyType
	for _, key := range sortedKeys(entries) {
		entry := entries[key]
		restBase := entry.RestBase
		if restBase == "" {
			restBase = key
		}

		meta := graph.TypeMeta{Name: entry.Name, Route: routeFor(key, overrides)}
		if err := d.store.AddType(ctx, key, meta); err != nil {
			return nil, fmt.Errorf("registering taxonomy %s: %w", key, err)
		}
		taxonomies = append(taxonomies, TaxonomyType{
			Key:         key,
			Name:        entry.Name,
			RestBase:    restBase,
			RefProperty: restBase,
		})
	}
	return taxonomies, nil
}

func routeFor(typeKey string, overrides map[string]string) string {
	if route, ok := overrides[typeKey]; ok {
		return route
	}
	return defaultRoutes[typeKey]
}

func sortedKeys(entries map[string]typeListing) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
