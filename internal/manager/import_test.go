package manager

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/contentvault/resourcestore/internal/restype"
)

func writeSourceFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestImportFromPathCreatesLeafWithGuessedMime(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	src := afero.NewMemMapFs()
	writeSourceFile(t, src, "/staging/import.txt", "hello world")

	meta, err := m.ImportFromPath(ctx, restype.Root, src, "/staging/import.txt", false)
	require.NoError(t, err)
	require.Equal(t, "import.txt", meta.Name)
	require.Equal(t, restype.KindLeaf, meta.Kind)

	v, ok := meta.Variant(restype.DefaultVariantName)
	require.True(t, ok)
	require.Equal(t, "text/plain; charset=utf-8", v.MimeType)

	exists, err := afero.Exists(src, "/staging/import.txt")
	require.NoError(t, err)
	require.True(t, exists, "move=false must leave the source file in place")
}

func TestImportFromPathDisambiguatesNameCollision(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	src := afero.NewMemMapFs()
	writeSourceFile(t, src, "/a/import.txt", "first")
	writeSourceFile(t, src, "/b/import.txt", "second")

	first, err := m.ImportFromPath(ctx, restype.Root, src, "/a/import.txt", false)
	require.NoError(t, err)
	require.Equal(t, "import.txt", first.Name)

	second, err := m.ImportFromPath(ctx, restype.Root, src, "/b/import.txt", false)
	require.NoError(t, err)
	require.Equal(t, "import(1).txt", second.Name)
}

func TestImportFromPathMoveRemovesSource(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	src := afero.NewMemMapFs()
	writeSourceFile(t, src, "/staging/gone.txt", "bye")

	_, err := m.ImportFromPath(ctx, restype.Root, src, "/staging/gone.txt", true)
	require.NoError(t, err)

	exists, err := afero.Exists(src, "/staging/gone.txt")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestImportFromPathRejectsNonContainerParent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	src := afero.NewMemMapFs()
	writeSourceFile(t, src, "/staging/x.txt", "x")

	leaf := leafMeta(restype.Root, "not-a-dir.txt")
	require.NoError(t, m.Create(ctx, leaf, nil))

	_, err := m.ImportFromPath(ctx, leaf.ID, src, "/staging/x.txt", false)
	require.True(t, restype.IsInvalidContainerID(err))
}
