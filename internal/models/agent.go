// Package models defines the domain types for Ansuz.
package models

import "github.com/avila-roffe/ansuz/internal/frontmatter"

// Agent represents a parsed agent document in the collection.
type Agent struct {
	Path string            `json:"path"`
	Meta *frontmatter.Meta `json:"meta,omitempty"`
	Body string            `json:"body"`
}

// Category is a top-level folder of the collection. It is derived from
// paths, not stored anywhere.
type Category struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Count int    `json:"count"`
}
