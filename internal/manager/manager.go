// Package manager implements the Manager subsystem (§4.6): the
// orchestrator that enforces the tree/typing invariants, drives the
// two-phase write protocol between the Metadata Index and the Blob
// Driver, owns the metadata LRU, and exposes the store's public API.
package manager

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/contentvault/resourcestore/internal/blobstore"
	"github.com/contentvault/resourcestore/internal/contentindex"
	"github.com/contentvault/resourcestore/internal/metadataindex"
	"github.com/contentvault/resourcestore/internal/restype"
	"github.com/contentvault/resourcestore/internal/scorer"
	"github.com/contentvault/resourcestore/internal/storelog"
)

// defaultCacheCapacity is used when the configured capacity is not a
// positive integer.
const defaultCacheCapacity = 1024

// Manager composes the Metadata Index and Blob Driver exclusively;
// neither collaborator holds a back-pointer to it (§9 design notes).
type Manager struct {
	index    *metadataindex.Store
	blob     blobstore.Driver
	indexers *contentindex.Registry
	cache    *lru.Cache[restype.ResourceId, *restype.ResourceMetadata]
}

// New builds a Manager over an already-open index and blob driver.
// cacheCapacity configures the metadata LRU (§4.6.6); non-positive
// values fall back to a small default rather than failing, since cache
// sizing is advisory.
func New(index *metadataindex.Store, blob blobstore.Driver, indexers *contentindex.Registry, cacheCapacity int) (*Manager, error) {
	if cacheCapacity <= 0 {
		cacheCapacity = defaultCacheCapacity
	}
	cache, err := lru.New[restype.ResourceId, *restype.ResourceMetadata](cacheCapacity)
	if err != nil {
		return nil, restype.IOError(err)
	}
	return &Manager{index: index, blob: blob, indexers: indexers, cache: cache}, nil
}

// txTextSink adapts a Store+Tx pair to contentindex.TextSink so
// indexers can feed the full-text index inside the caller's
// transaction without knowing about *metadataindex.Tx.
type txTextSink struct {
	store *metadataindex.Store
	tx    *metadataindex.Tx
}

func (t *txTextSink) AddText(ctx context.Context, id restype.ResourceId, text string) error {
	return t.store.AddText(ctx, t.tx, id, text)
}

// indexContentVariant (re)populates the FTS rows for a resource: its
// name is always indexed (I6), and if content is supplied its bytes are
// buffered and run through the content indexer registry keyed by the
// content variant's declared mime type. Buffering content.Reader here
// means the caller's subsequent Blob Driver call still sees the full
// payload, since indexers must rewind on exit but the Driver call
// happens after this one in the two-phase protocol.
func (m *Manager) indexContentVariant(ctx context.Context, tx *metadataindex.Tx, meta *restype.ResourceMetadata, content *blobstore.Content) error {
	if err := m.index.ClearText(ctx, tx, meta.ID); err != nil {
		return err
	}
	sink := &txTextSink{store: m.index, tx: tx}
	if err := sink.AddText(ctx, meta.ID, meta.Name); err != nil {
		return err
	}
	if content == nil || content.Reader == nil {
		return nil
	}

	data, err := io.ReadAll(content.Reader)
	if err != nil {
		return restype.IOError(err)
	}
	content.Reader = bytes.NewReader(data)

	var mimeType string
	if v, ok := meta.Variant(content.Variant); ok {
		mimeType = v.MimeType
	}
	if m.indexers == nil {
		return nil
	}
	return m.indexers.IndexAll(ctx, meta, mimeType, bytes.NewReader(data), sink)
}

// Create implements create(meta, optional content) (§4.6.5). Root
// creation (meta.ID == meta.Parent) is the unique case where the
// parent-is-a-container precheck is skipped.
func (m *Manager) Create(ctx context.Context, meta *restype.ResourceMetadata, content *blobstore.Content) error {
	isRoot := meta.ID == meta.Parent

	if isRoot {
		if meta.Kind != restype.KindContainer {
			return restype.InvalidContainerID(meta.ID)
		}
	} else {
		n, err := m.index.CountByIDAndKind(ctx, meta.Parent, restype.KindContainer)
		if err != nil {
			return err
		}
		if n == 0 {
			return restype.InvalidContainerID(meta.Parent)
		}
	}

	now := time.Now()
	if meta.Created.IsZero() {
		meta.Created = now
	}
	meta.Modified = meta.Created

	err := m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		if err := m.index.InsertResource(ctx, tx, meta); err != nil {
			return err
		}
		if err := m.indexContentVariant(ctx, tx, meta, content); err != nil {
			return err
		}
		return m.blob.Create(ctx, meta, content)
	})
	if err != nil {
		storelog.Error("create", meta.ID, err)
		return err
	}
	storelog.Event("create", meta.ID, meta.Name)

	m.cache.Add(meta.ID, meta.Clone())

	if !isRoot {
		return m.rewriteContainerListing(ctx, meta.Parent)
	}
	return nil
}

// Update implements update(meta, optional content): replaces the
// resource row and variant set, permitting reparenting provided I3/I4
// continue to hold (Open Question resolved in favor of allowing it).
func (m *Manager) Update(ctx context.Context, meta *restype.ResourceMetadata, content *blobstore.Content) error {
	existing, err := m.GetMetadata(ctx, meta.ID)
	if err != nil {
		return err
	}

	reparenting := meta.ID != restype.Root && meta.Parent != existing.Parent
	if reparenting {
		if meta.ID == meta.Parent {
			return restype.InvalidContainerID(meta.ID)
		}
		n, err := m.index.CountByIDAndKind(ctx, meta.Parent, restype.KindContainer)
		if err != nil {
			return err
		}
		if n == 0 {
			return restype.InvalidContainerID(meta.Parent)
		}
		if err := m.checkNoCycle(ctx, meta.ID, meta.Parent); err != nil {
			return err
		}
	}

	if meta.Created.IsZero() {
		meta.Created = existing.Created
	}
	meta.Modified = time.Now()

	oldParent := existing.Parent

	err = m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		if err := m.index.UpdateResourceRow(ctx, tx, meta); err != nil {
			return err
		}
		if err := m.indexContentVariant(ctx, tx, meta, content); err != nil {
			return err
		}
		return m.blob.Update(ctx, meta, content)
	})
	if err != nil {
		storelog.Error("update", meta.ID, err)
		return err
	}
	storelog.Event("update", meta.ID, meta.Name)

	m.cache.Remove(meta.ID)

	if reparenting {
		if err := m.rewriteContainerListing(ctx, oldParent); err != nil {
			return err
		}
	}
	if meta.ID != restype.Root {
		return m.rewriteContainerListing(ctx, meta.Parent)
	}
	return nil
}

// checkNoCycle walks newParent's ancestry to root; it fails with
// ResourceCycle if it ever revisits id (the node being reparented) or
// any node already seen.
func (m *Manager) checkNoCycle(ctx context.Context, id, newParent restype.ResourceId) error {
	visited := make(map[restype.ResourceId]bool)
	cur := newParent
	for {
		if cur == id || visited[cur] {
			return restype.ResourceCycle(id)
		}
		visited[cur] = true
		if cur == restype.Root {
			return nil
		}
		parent, err := m.index.ParentOf(ctx, cur)
		if err != nil {
			return err
		}
		cur = parent
	}
}

// UpdateVariant implements update_variant(id, VariantContent): adds or
// replaces a single declared variant.
func (m *Manager) UpdateVariant(ctx context.Context, id restype.ResourceId, variant restype.Variant, reader io.Reader) error {
	existing, err := m.GetMetadata(ctx, id)
	if err != nil {
		return err
	}

	updated := existing.Clone()
	updated.SetVariant(variant)
	updated.Modified = time.Now()

	content := &blobstore.Content{Variant: variant.Name, Reader: reader}

	err = m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		if err := m.index.SetVariant(ctx, tx, id, variant); err != nil {
			return err
		}
		if err := m.index.UpdateScorer(ctx, tx, id, updated.Scorer.Encode(), updated.Modified); err != nil {
			return err
		}
		if err := m.indexContentVariant(ctx, tx, updated, content); err != nil {
			return err
		}
		return m.blob.Update(ctx, updated, content)
	})
	if err != nil {
		return err
	}

	m.cache.Remove(id)
	return nil
}

// DeleteVariant implements delete_variant(id, name): a container's
// default variant cannot be removed while it still has children.
// Deleting a leaf's last remaining variant is permitted (Open Question
// resolved to match the original).
func (m *Manager) DeleteVariant(ctx context.Context, id restype.ResourceId, name string) error {
	existing, err := m.GetMetadata(ctx, id)
	if err != nil {
		return err
	}
	if !existing.HasVariant(name) {
		return restype.InvalidVariant(name)
	}
	if existing.Kind == restype.KindContainer && name == restype.DefaultVariantName {
		children, err := m.index.Children(ctx, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return restype.InvalidVariant(name)
		}
	}

	modified := time.Now()

	err = m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		if err := m.index.RemoveVariant(ctx, tx, id, name); err != nil {
			return err
		}
		if err := m.index.UpdateScorer(ctx, tx, id, existing.Scorer.Encode(), modified); err != nil {
			return err
		}
		return m.blob.DeleteVariant(ctx, id, name)
	})
	if err != nil {
		return err
	}

	m.cache.Remove(id)
	return nil
}

// Visit implements visit(id, VisitEntry): load, append to the scorer,
// rewrite only the scorer column, evict the LRU. No blob write (§4.6.5).
func (m *Manager) Visit(ctx context.Context, id restype.ResourceId, entry scorer.VisitEntry) error {
	meta, err := m.GetMetadata(ctx, id)
	if err != nil {
		return err
	}
	sc := meta.Scorer
	sc.Add(entry)

	err = m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		return m.index.UpdateScorer(ctx, tx, id, sc.Encode(), meta.Modified)
	})
	if err != nil {
		return err
	}

	m.cache.Remove(id)
	return nil
}

// Delete implements delete(id): the iterative cascade of §4.6.3. Root
// cannot be deleted.
func (m *Manager) Delete(ctx context.Context, id restype.ResourceId) error {
	if id == restype.Root {
		return restype.InvalidContainerID(id)
	}

	meta, err := m.GetMetadata(ctx, id)
	if err != nil {
		return err
	}
	parent := meta.Parent

	ids, err := m.collectDescendants(ctx, id)
	if err != nil {
		return err
	}

	err = m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		if err := m.index.DeleteResources(ctx, tx, ids); err != nil {
			return err
		}
		for _, did := range ids {
			if err := m.blob.Delete(ctx, did); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		storelog.Error("delete", id, err)
		return err
	}
	storelog.Event("delete", id, fmt.Sprintf("cascaded %d resources", len(ids)))

	for _, did := range ids {
		m.cache.Remove(did)
	}
	return m.rewriteContainerListing(ctx, parent)
}

// collectDescendants expands id into itself plus every transitive
// child, using a worklist rather than recursion (§4.6.3). It walks the
// index's parent/child edges only; the Manager is the index's
// exclusive writer so this is always consistent with committed state.
func (m *Manager) collectDescendants(ctx context.Context, root restype.ResourceId) ([]restype.ResourceId, error) {
	seen := map[restype.ResourceId]bool{root: true}
	result := []restype.ResourceId{root}
	worklist := []restype.ResourceId{root}

	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]

		children, err := m.index.Children(ctx, cur)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if seen[c] {
				continue
			}
			seen[c] = true
			result = append(result, c)
			worklist = append(worklist, c)
		}
	}
	return result, nil
}

// rewriteContainerListing implements §4.6.2: after any mutation that
// changes parent's children, rewrite its default variant to the
// serialized ordered child-id list and keep the index's own bookkeeping
// of that blob's size current.
func (m *Manager) rewriteContainerListing(ctx context.Context, parent restype.ResourceId) error {
	children, err := m.index.Children(ctx, parent)
	if err != nil {
		return err
	}
	payload := restype.EncodeChildList(children)

	err = m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		if err := m.index.SetVariantSize(ctx, tx, parent, restype.DefaultVariantName, int64(len(payload))); err != nil {
			return err
		}
		return m.blob.UpdateDefaultFromBytes(ctx, parent, payload)
	})
	if err != nil {
		return err
	}

	m.cache.Remove(parent)
	return nil
}

// EnsureRoot bootstraps the root container if absent (SUPPLEMENTED
// FEATURES: idempotent under concurrent callers since a losing Create
// surfaces AlreadyExists, which is swallowed here).
func (m *Manager) EnsureRoot(ctx context.Context) error {
	has, err := m.HasObject(ctx, restype.Root)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	now := time.Now()
	root := &restype.ResourceMetadata{
		ID:       restype.Root,
		Parent:   restype.Root,
		Kind:     restype.KindContainer,
		Name:     "/",
		Variants: []restype.Variant{{Name: restype.DefaultVariantName, MimeType: "inode/directory", Size: 0}},
		Created:  now,
		Modified: now,
	}
	err = m.Create(ctx, root, nil)
	if restype.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// Clear implements the SUPPLEMENTED clear(): it truncates the index
// only. The blob store remains the source of truth, so get_root/
// get_container re-hydrate the reachable subtree afterward (P4).
func (m *Manager) Clear(ctx context.Context) error {
	err := m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		return m.index.ClearAll(ctx, tx)
	})
	if err != nil {
		return err
	}
	m.cache.Purge()
	return nil
}

// HasObject implements the SUPPLEMENTED has_object(id): present in the
// index, or (failing that) in the blob store.
func (m *Manager) HasObject(ctx context.Context, id restype.ResourceId) (bool, error) {
	n, err := m.index.CountByID(ctx, id)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	return m.blob.HasObject(ctx, id)
}

// ResourceCount implements the SUPPLEMENTED resource_count().
func (m *Manager) ResourceCount(ctx context.Context) (int, error) {
	return m.index.ResourceCount(ctx)
}

// AddTag implements the SUPPLEMENTED tag-add operation.
func (m *Manager) AddTag(ctx context.Context, id restype.ResourceId, tag string) error {
	if tag == "" {
		return restype.Custom("add_tag: tag must not be empty")
	}
	existing, err := m.GetMetadata(ctx, id)
	if err != nil {
		return err
	}
	updated := existing.Clone()
	if !slices.Contains(updated.Tags, tag) {
		updated.Tags = append(updated.Tags, tag)
	}
	err = m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		if err := m.index.AddTag(ctx, tx, id, tag); err != nil {
			return err
		}
		return m.blob.Update(ctx, updated, nil)
	})
	if err != nil {
		return err
	}
	m.cache.Remove(id)
	return nil
}

// RemoveTag implements the SUPPLEMENTED tag-remove operation.
func (m *Manager) RemoveTag(ctx context.Context, id restype.ResourceId, tag string) error {
	if tag == "" {
		return restype.Custom("remove_tag: tag must not be empty")
	}
	existing, err := m.GetMetadata(ctx, id)
	if err != nil {
		return err
	}
	updated := existing.Clone()
	updated.Tags = slices.DeleteFunc(updated.Tags, func(t string) bool { return t == tag })
	err = m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		if err := m.index.RemoveTag(ctx, tx, id, tag); err != nil {
			return err
		}
		return m.blob.Update(ctx, updated, nil)
	})
	if err != nil {
		return err
	}
	m.cache.Remove(id)
	return nil
}
