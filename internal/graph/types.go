package graph

import (
	"time"
)

// TypeMeta describes a registered node type.
type TypeMeta struct {
	Name  string `json:"name"`
	Route string `json:"route"`
}

// Type is a registered node type together with its key.
type Type struct {
	Key string `json:"key"`
	TypeMeta
}

// Node is one materialized content graph node. Fields holds the
// type-specific payload (content/excerpt for posts, count for terms).
// Refs maps a taxonomy type key to the stable ids of referenced terms;
// a taxonomy absent from the source record has no key here.
type Node struct {
	ID     string              `json:"id"`
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Date   *time.Time          `json:"date,omitempty"`
	Slug   string              `json:"slug"`
	Fields map[string]any      `json:"fields,omitempty"`
	Refs   map[string][]string `json:"refs,omitempty"`
}
