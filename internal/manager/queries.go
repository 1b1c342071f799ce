package manager

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/contentvault/resourcestore/internal/blobstore"
	"github.com/contentvault/resourcestore/internal/metadataindex"
	"github.com/contentvault/resourcestore/internal/restype"
	"github.com/contentvault/resourcestore/internal/storelog"
)

// GetMetadata implements the re-hydration path of §4.6.4: LRU, then
// index, then (on index miss) the Blob Driver, re-populating the index
// from the blob on success.
func (m *Manager) GetMetadata(ctx context.Context, id restype.ResourceId) (*restype.ResourceMetadata, error) {
	if meta, ok := m.cache.Get(id); ok {
		return meta.Clone(), nil
	}

	meta, err := m.index.GetMetadata(ctx, id)
	if err == nil {
		m.cache.Add(id, meta.Clone())
		return meta, nil
	}
	if !restype.IsNoSuchResource(err) {
		return nil, err
	}

	return m.rehydrate(ctx, id)
}

// rehydrate reads a resource back from the Blob Driver and replays the
// index-population side of create() for it (rows, tags, variants, fts)
// without touching blobs again, per §4.6.4. A blob-side miss surfaces
// NoSuchResource unchanged.
func (m *Manager) rehydrate(ctx context.Context, id restype.ResourceId) (*restype.ResourceMetadata, error) {
	storelog.Logf("rehydrating %s from blob store, index miss", id)

	blobMeta, err := m.blob.GetMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	var content *blobstore.Content
	if v, ok := blobMeta.Variant(restype.DefaultVariantName); ok {
		stream, streamErr := m.blob.GetVariant(ctx, id, restype.DefaultVariantName)
		if streamErr == nil {
			data, readErr := io.ReadAll(stream)
			stream.Close()
			if readErr != nil {
				return nil, restype.IOError(readErr)
			}
			content = &blobstore.Content{Variant: v.Name, Reader: bytes.NewReader(data)}
		} else if !restype.IsNoSuchResource(streamErr) {
			return nil, streamErr
		}
	}

	err = m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		if err := m.index.InsertResource(ctx, tx, blobMeta); err != nil {
			return err
		}
		return m.indexContentVariant(ctx, tx, blobMeta, content)
	})
	if err != nil {
		return nil, err
	}

	m.cache.Add(id, blobMeta.Clone())
	return blobMeta, nil
}

// GetRoot returns the root container and its direct children.
func (m *Manager) GetRoot(ctx context.Context) (*restype.ResourceMetadata, []restype.ResourceId, error) {
	return m.GetContainer(ctx, restype.Root)
}

// GetContainer implements get_container(id): the index's own children
// query is authoritative (Open Question resolved), but any id named in
// the blob's serialized listing that is absent from the index is pulled
// in via GetMetadata first, per the implicit re-hydration rule of
// §4.6.4.
func (m *Manager) GetContainer(ctx context.Context, id restype.ResourceId) (*restype.ResourceMetadata, []restype.ResourceId, error) {
	meta, err := m.GetMetadata(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if meta.Kind != restype.KindContainer {
		return nil, nil, restype.InvalidContainerID(id)
	}

	listed, err := m.listedChildren(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	children, err := m.index.Children(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[restype.ResourceId]bool, len(children))
	for _, c := range children {
		known[c] = true
	}

	rehydratedAny := false
	for _, cid := range listed {
		if known[cid] {
			continue
		}
		if _, err := m.GetMetadata(ctx, cid); err != nil {
			if restype.IsNoSuchResource(err) {
				continue
			}
			return nil, nil, err
		}
		rehydratedAny = true
	}

	if rehydratedAny {
		children, err = m.index.Children(ctx, id)
		if err != nil {
			return nil, nil, err
		}
	}

	return meta, children, nil
}

// listedChildren decodes the child ids recorded in a container's
// default-variant blob, the rebuild hint used only to discover ids the
// index doesn't yet know about.
func (m *Manager) listedChildren(ctx context.Context, id restype.ResourceId) ([]restype.ResourceId, error) {
	stream, err := m.blob.GetVariant(ctx, id, restype.DefaultVariantName)
	if err != nil {
		if restype.IsNoSuchResource(err) {
			return nil, nil
		}
		return nil, err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, restype.IOError(err)
	}
	ids, err := restype.DecodeChildList(data)
	if err != nil {
		return nil, restype.CodecError(err)
	}
	return ids, nil
}

// GetLeaf implements get_leaf(id, variant): metadata plus the
// requested variant's content stream.
func (m *Manager) GetLeaf(ctx context.Context, id restype.ResourceId, variant string) (*restype.ResourceMetadata, io.ReadCloser, error) {
	meta, err := m.GetMetadata(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !meta.HasVariant(variant) {
		return nil, nil, restype.InvalidVariant(variant)
	}
	stream, err := m.blob.GetVariant(ctx, id, variant)
	if err != nil {
		return nil, nil, err
	}
	return meta, stream, nil
}

// ByName implements by_name(name, optional tag). An empty name fails
// with Custom (§8 boundary behaviors).
func (m *Manager) ByName(ctx context.Context, name string, tag string) ([]restype.ResourceId, error) {
	if name == "" {
		return nil, restype.Custom("by_name: name must not be empty")
	}
	return m.index.ByName(ctx, name, tag)
}

// ChildByName implements child_by_name(parent, name), the lookup
// import_from_path uses to detect name collisions.
func (m *Manager) ChildByName(ctx context.Context, parent restype.ResourceId, name string) (restype.ResourceId, error) {
	if name == "" {
		return restype.ResourceId{}, restype.Custom("child_by_name: name must not be empty")
	}
	return m.index.ChildByName(ctx, parent, name)
}

// ByTag implements by_tag(tag). An empty tag fails with Custom.
func (m *Manager) ByTag(ctx context.Context, tag string) ([]restype.ResourceId, error) {
	if tag == "" {
		return nil, restype.Custom("by_tag: tag must not be empty")
	}
	return m.index.ByTag(ctx, tag)
}

// ByText implements by_text(query, optional tag) (§4.3, L4). An empty
// query fails with Custom.
func (m *Manager) ByText(ctx context.Context, query string, tag string) ([]restype.ResourceId, error) {
	if strings.TrimSpace(query) == "" {
		return nil, restype.Custom("by_text: query must not be empty")
	}
	return m.index.ByText(ctx, query, tag)
}

// TopByFrecency implements top_by_frecency(n). n must be positive.
func (m *Manager) TopByFrecency(ctx context.Context, n int) ([]restype.ResourceId, error) {
	if n <= 0 {
		return nil, restype.Custom("top_by_frecency: n must be positive")
	}
	return m.index.TopByFrecency(ctx, n)
}

// LastModified implements last_modified(n). n must be positive.
func (m *Manager) LastModified(ctx context.Context, n int) ([]restype.ResourceId, error) {
	if n <= 0 {
		return nil, restype.Custom("last_modified: n must be positive")
	}
	return m.index.LastModified(ctx, n)
}

// GetFullPath implements get_full_path(id): walk parent links from id
// to root, detecting cycles with a visited set, returning metadata
// ordered root→target.
func (m *Manager) GetFullPath(ctx context.Context, id restype.ResourceId) ([]*restype.ResourceMetadata, error) {
	visited := make(map[restype.ResourceId]bool)
	var chain []*restype.ResourceMetadata

	cur := id
	for {
		if visited[cur] {
			return nil, restype.ResourceCycle(id)
		}
		visited[cur] = true

		meta, err := m.GetMetadata(ctx, cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, meta)
		if cur == restype.Root {
			break
		}
		cur = meta.Parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// ContainerSize implements container_size(id): the sum of variant
// sizes over id's transitive closure (including id itself).
func (m *Manager) ContainerSize(ctx context.Context, id restype.ResourceId) (int64, error) {
	ids, err := m.collectDescendants(ctx, id)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, did := range ids {
		meta, err := m.GetMetadata(ctx, did)
		if err != nil {
			return 0, err
		}
		for _, v := range meta.Variants {
			total += v.Size
		}
	}
	return total, nil
}
