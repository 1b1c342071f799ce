// Package blobstore is the blob driver the Manager treats as a black box:
// it persists a metadata blob and named variant blobs per resource id
// (§4.2). Only the file-backed implementation lives in this core; the
// NameProvider and Transformer hooks let an embedder swap storage layout
// or wrap streams (compression, encryption) without the Manager knowing.
package blobstore

import (
	"context"
	"io"

	"github.com/contentvault/resourcestore/internal/restype"
)

// Content is the optional payload accompanying a Create/Update call: one
// named variant's bytes, read from the start.
type Content struct {
	Variant string
	Reader  io.Reader
}

// Driver is the blob store interface the Manager depends on. All methods
// may fail with a *restype.StoreError of kind Io, NotFound (NoSuchResource),
// or AlreadyExists.
type Driver interface {
	// Create persists a new metadata blob and, if content is non-nil, one
	// variant blob. It fails with AlreadyExists if a metadata blob for
	// meta.ID already exists.
	Create(ctx context.Context, meta *restype.ResourceMetadata, content *Content) error

	// Update overwrites the metadata blob and, if content is non-nil, one
	// variant blob, atomically from the caller's point of view.
	Update(ctx context.Context, meta *restype.ResourceMetadata, content *Content) error

	// UpdateDefaultFromBytes is the fast path for rewriting a container's
	// default variant (its serialized child-id listing) without touching
	// the metadata blob.
	UpdateDefaultFromBytes(ctx context.Context, id restype.ResourceId, data []byte) error

	// Delete removes the metadata blob and every variant blob named in it.
	Delete(ctx context.Context, id restype.ResourceId) error

	// DeleteVariant removes a single variant blob.
	DeleteVariant(ctx context.Context, id restype.ResourceId, name string) error

	// GetMetadata reads back a resource's persisted metadata.
	GetMetadata(ctx context.Context, id restype.ResourceId) (*restype.ResourceMetadata, error)

	// GetVariant opens a variant's content stream for reading.
	GetVariant(ctx context.Context, id restype.ResourceId, name string) (io.ReadCloser, error)

	// GetFull reads metadata and opens one variant's stream together.
	GetFull(ctx context.Context, id restype.ResourceId, variant string) (*restype.ResourceMetadata, io.ReadCloser, error)

	// HasVariant reports whether a named variant blob exists.
	HasVariant(ctx context.Context, id restype.ResourceId, name string) (bool, error)

	// HasObject reports whether a metadata blob exists for id.
	HasObject(ctx context.Context, id restype.ResourceId) (bool, error)
}

// NameProvider maps (id, variant) to storage names. Swapping it changes
// on-disk layout without the Manager or Driver callers noticing.
type NameProvider interface {
	MetaName(id restype.ResourceId) string
	VariantName(id restype.ResourceId, variant string) string
}

// DefaultNameProvider implements the canonical layout from §6:
// "{id}.meta" and "{id}.content.{variant}".
type DefaultNameProvider struct{}

func (DefaultNameProvider) MetaName(id restype.ResourceId) string {
	return id.String() + ".meta"
}

func (DefaultNameProvider) VariantName(id restype.ResourceId, variant string) string {
	return id.String() + ".content." + variant
}

// Transformer wraps read/write streams, e.g. for compression or
// encryption. The Manager never inspects or relies on it.
type Transformer interface {
	WrapReader(r io.Reader) (io.Reader, error)
	WrapWriter(w io.Writer) (io.Writer, error)
}

// NoopTransformer passes streams through unchanged; it is the default.
type NoopTransformer struct{}

func (NoopTransformer) WrapReader(r io.Reader) (io.Reader, error) { return r, nil }
func (NoopTransformer) WrapWriter(w io.Writer) (io.Writer, error) { return w, nil }
