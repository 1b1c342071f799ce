package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contentvault/resourcestore/internal/metadataindex"
	"github.com/contentvault/resourcestore/internal/restype"
)

func TestGetContainerRehydratesIDsKnownOnlyToTheBlobListing(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	dir := containerMeta(restype.Root, "dir")
	require.NoError(t, m.Create(ctx, dir, nil))
	leaf := leafMeta(dir.ID, "child.txt")
	require.NoError(t, m.Create(ctx, leaf, nil))

	// Drop the leaf's index row only, leaving its blob and dir's
	// blob-borne listing (which still names it) intact.
	require.NoError(t, m.index.WithTx(ctx, func(tx *metadataindex.Tx) error {
		return m.index.DeleteResources(ctx, tx, []restype.ResourceId{leaf.ID})
	}))
	m.cache.Remove(leaf.ID)

	_, children, err := m.GetContainer(ctx, dir.ID)
	require.NoError(t, err)
	require.Contains(t, children, leaf.ID)
}

func TestByNameAndChildByName(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	leaf := leafMeta(restype.Root, "unique-name.txt")
	require.NoError(t, m.Create(ctx, leaf, nil))

	ids, err := m.ByName(ctx, "unique-name.txt", "")
	require.NoError(t, err)
	require.Contains(t, ids, leaf.ID)

	got, err := m.ChildByName(ctx, restype.Root, "unique-name.txt")
	require.NoError(t, err)
	require.Equal(t, leaf.ID, got)

	_, err = m.ChildByName(ctx, restype.Root, "does-not-exist.txt")
	require.True(t, restype.IsNoSuchResource(err))
}

func TestLastModifiedOrdersMostRecentFirst(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := leafMeta(restype.Root, "first.txt")
	require.NoError(t, m.Create(ctx, first, nil))
	second := leafMeta(restype.Root, "second.txt")
	second.Created = first.Created.Add(time.Second)
	second.Modified = second.Created
	require.NoError(t, m.Create(ctx, second, nil))

	ids, err := m.LastModified(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, second.ID, ids[0])
}

func TestGetLeafRejectsUndeclaredVariant(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	leaf := leafMeta(restype.Root, "solo.txt")
	require.NoError(t, m.Create(ctx, leaf, nil))

	_, _, err := m.GetLeaf(ctx, leaf.ID, "thumbnail")
	require.True(t, restype.IsInvalidVariant(err))
}
