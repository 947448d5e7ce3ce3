package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wpgraph/wpgraph/internal/graph"
)

// Namespace prefixes keep content item ids and taxonomy term ids from
// colliding: the prefix disambiguates the raw id before normalization.
const (
	postPrefix = "post-"
	termPrefix = "term-"
)

// wpDateLayout is the timestamp format the WordPress REST API uses for
// post dates (site-local time, no zone designator).
const wpDateLayout = "2006-01-02T15:04:05"

// Builder projects raw API records into typed graph nodes.
type Builder struct {
	store graph.Store
	log   *zap.Logger
}

// NewBuilder creates a builder emitting into the given store.
func NewBuilder(store graph.Store, log *zap.Logger) *Builder {
	return &Builder{store: store, log: log}
}

// ContentID returns the stable node id for a remote content item id.
func (b *Builder) ContentID(remoteID int64) string {
	return b.store.MakeUID(postPrefix + strconv.FormatInt(remoteID, 10))
}

// TermID returns the stable node id for a remote taxonomy term id.
func (b *Builder) TermID(remoteID int64) string {
	return b.store.MakeUID(termPrefix + strconv.FormatInt(remoteID, 10))
}

// BuildContent converts raw content records into nodes under typeKey.
// Taxonomy references are resolved by constructing the target term's
// stable id; the target need not exist yet.
func (b *Builder) BuildContent(ctx context.Context, typeKey string, taxonomies []TaxonomyType, records []Record) error {
	for _, rec := range records {
		remoteID, ok := numericField(rec, "id")
		if !ok {
			b.log.Warn("skipping content record without numeric id", zap.String("type", typeKey))
			continue
		}

		node := &graph.Node{
			ID:    b.ContentID(remoteID),
			Title: renderedField(rec, "title"),
			Slug:  stringField(rec, "slug"),
			Fields: map[string]any{
				"content": renderedField(rec, "content"),
				"excerpt": renderedField(rec, "excerpt"),
			},
			Refs: b.resolveRefs(rec, taxonomies),
		}
		if date, ok := dateField(rec, "date"); ok {
			node.Date = &date
		}

		if err := b.store.AddNode(ctx, typeKey, node); err != nil {
			return fmt.Errorf("adding %s node %s: %w", typeKey, node.ID, err)
		}
	}
	return nil
}

// BuildTerms converts raw taxonomy term records into nodes under typeKey.
func (b *Builder) BuildTerms(ctx context.Context, typeKey string, records []Record) error {
	for _, rec := range records {
		remoteID, ok := numericField(rec, "id")
		if !ok {
			b.log.Warn("skipping term record without numeric id", zap.String("taxonomy", typeKey))
			continue
		}

		count, _ := numericField(rec, "count")
		node := &graph.Node{
			ID:     b.TermID(remoteID),
			Title:  stringField(rec, "name"),
			Slug:   stringField(rec, "slug"),
			Fields: map[string]any{"count": count},
		}

		if err := b.store.AddNode(ctx, typeKey, node); err != nil {
			return fmt.Errorf("adding %s node %s: %w", typeKey, node.ID, err)
		}
	}
	return nil
}

// resolveRefs maps each taxonomy whose reference property is present on
// the record to the stable ids of the referenced terms. Absent properties
// produce no key at all.
func (b *Builder) resolveRefs(rec Record, taxonomies []TaxonomyType) map[string][]string {
	refs := make(map[string][]string)
	for _, tax := range taxonomies {
		raw, ok := rec[tax.RefProperty]
		if !ok {
			continue
		}
		ids, ok := raw.([]any)
		if !ok {
			continue
		}

		targets := make([]string, 0, len(ids))
		for _, v := range ids {
			if remoteID, ok := asInt64(v); ok {
				targets = append(targets, b.TermID(remoteID))
			}
		}
		refs[tax.Key] = targets
	}
	if len(refs) == 0 {
		return nil
	}
	return refs
}

// renderedField extracts the rendered form of a field like
// {"title": {"rendered": "..."}}. A plain string value is accepted too.
// Absent fields yield the empty string.
func renderedField(rec Record, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case map[string]any:
		if rendered, ok := v["rendered"].(string); ok {
			return rendered
		}
	}
	return ""
}

func stringField(rec Record, key string) string {
	s, _ := rec[key].(string)
	return s
}

func numericField(rec Record, key string) (int64, bool) {
	return asInt64(rec[key])
}

// asInt64 converts a decoded JSON value to an integer id. encoding/json
// decodes numbers into float64 inside untyped maps.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func dateField(rec Record, key string) (time.Time, bool) {
	raw := stringField(rec, key)
	if raw == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(wpDateLayout, raw); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}
