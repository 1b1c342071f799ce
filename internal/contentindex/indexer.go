// Package contentindex implements the per-MIME-family content indexers
// (§4.4): small plugins that pull indexable text out of a variant stream
// and feed it to the full-text index.
package contentindex

import (
	"context"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/contentvault/resourcestore/internal/restype"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// TextSink is the subset of the full-text index the Manager exposes to
// indexers: "add this text to this resource's entry, inside the current
// transaction".
type TextSink interface {
	AddText(ctx context.Context, id restype.ResourceId, text string) error
}

// Indexer extracts zero or more text strings from a variant stream and
// feeds them to sink. Implementations must rewind content to the start on
// entry and on exit so the Blob Driver can persist it afterward.
type Indexer interface {
	Index(ctx context.Context, meta *restype.ResourceMetadata, mimeType string, content io.ReadSeeker, sink TextSink) error
}

// FlatJSONIndexer is the generic indexer parametrized by a MIME family and
// a list of top-level fields to index. Any string-valued or string-array
// field is indexed; anything else is a silent no-op for that field.
type FlatJSONIndexer struct {
	Family string
	Fields []string
}

// NewPlacesIndexer accepts application/x-places+json and indexes the
// "url" and "title" string fields.
func NewPlacesIndexer() FlatJSONIndexer {
	return FlatJSONIndexer{Family: "application/x-places+json", Fields: []string{"url", "title"}}
}

// NewContactsIndexer accepts application/x-contacts+json and indexes
// "name" (string) plus "phone" and "email" (string or string array).
func NewContactsIndexer() FlatJSONIndexer {
	return FlatJSONIndexer{Family: "application/x-contacts+json", Fields: []string{"name", "phone", "email"}}
}

// Index implements Indexer.
func (idx FlatJSONIndexer) Index(ctx context.Context, meta *restype.ResourceMetadata, mimeType string, content io.ReadSeeker, sink TextSink) error {
	if mimeType != idx.Family {
		return nil
	}

	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return restype.IOError(err)
	}
	defer content.Seek(0, io.SeekStart)

	data, err := io.ReadAll(content)
	if err != nil {
		return restype.IOError(err)
	}

	var raw map[string]jsoniter.RawMessage
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		// A malformed blob is a codec failure on the content itself, not a
		// single-field mismatch, so it is fatal to the indexing call.
		return restype.CodecError(err)
	}

	for _, field := range idx.Fields {
		value, ok := raw[field]
		if !ok {
			continue
		}

		var text string
		if err := jsonAPI.Unmarshal(value, &text); err == nil {
			if err := sink.AddText(ctx, meta.ID, text); err != nil {
				return err
			}
			continue
		}

		var items []string
		if err := jsonAPI.Unmarshal(value, &items); err == nil {
			for _, item := range items {
				if err := sink.AddText(ctx, meta.ID, item); err != nil {
					return err
				}
			}
			continue
		}

		// Neither a string nor a string array: no-op for this field.
	}

	return nil
}

// Registry holds the indexers registered with a Manager, dispatched in
// insertion order (§9 design note: "small capability interfaces, each
// registered... and iterated in insertion order").
type Registry struct {
	indexers []Indexer
}

// NewRegistry builds a registry from an ordered list of indexers.
func NewRegistry(indexers ...Indexer) *Registry {
	return &Registry{indexers: indexers}
}

// Register appends an indexer, to be tried after every indexer already
// registered.
func (r *Registry) Register(idx Indexer) {
	r.indexers = append(r.indexers, idx)
}

// IndexAll runs every registered indexer over content in turn. Each
// indexer is responsible for filtering on mimeType and no-op'ing when it
// doesn't apply.
func (r *Registry) IndexAll(ctx context.Context, meta *restype.ResourceMetadata, mimeType string, content io.ReadSeeker, sink TextSink) error {
	for _, idx := range r.indexers {
		if err := idx.Index(ctx, meta, mimeType, content, sink); err != nil {
			return err
		}
	}
	return nil
}
