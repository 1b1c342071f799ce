package manager

import (
	"context"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/contentvault/resourcestore/internal/blobstore"
	"github.com/contentvault/resourcestore/internal/restype"
)

// ImportFromPath implements import_from_path(parent, path, move?): it
// creates a new leaf under parent with fs's file's basename, guessing a
// MIME type from the extension (falling back to
// "application/octet-stream" the way other content stores in the pack
// do it), disambiguating the name against existing siblings. When move
// is true the source file is removed after a successful create.
func (m *Manager) ImportFromPath(ctx context.Context, parent restype.ResourceId, fs afero.Fs, path string, move bool) (*restype.ResourceMetadata, error) {
	n, err := m.index.CountByIDAndKind(ctx, parent, restype.KindContainer)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, restype.InvalidContainerID(parent)
	}

	info, err := fs.Stat(path)
	if err != nil {
		return nil, restype.IOError(err)
	}

	name, err := m.disambiguateName(ctx, parent, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	file, err := fs.Open(path)
	if err != nil {
		return nil, restype.IOError(err)
	}
	defer file.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	now := time.Now()
	meta := &restype.ResourceMetadata{
		ID:      restype.NewResourceId(),
		Parent:  parent,
		Kind:    restype.KindLeaf,
		Name:    name,
		Variants: []restype.Variant{{
			Name:     restype.DefaultVariantName,
			MimeType: mimeType,
			Size:     info.Size(),
		}},
		Created:  now,
		Modified: now,
	}

	content := &blobstore.Content{Variant: restype.DefaultVariantName, Reader: file}
	if err := m.Create(ctx, meta, content); err != nil {
		return nil, err
	}

	if move {
		if err := fs.Remove(path); err != nil {
			return nil, restype.IOError(err)
		}
	}

	return meta, nil
}

// disambiguateName picks base if no sibling of parent already has that
// name, else appends "(n)" before the extension with the smallest n>=1
// that is unique, matching spec's deterministic rule.
func (m *Manager) disambiguateName(ctx context.Context, parent restype.ResourceId, base string) (string, error) {
	_, err := m.index.ChildByName(ctx, parent, base)
	if restype.IsNoSuchResource(err) {
		return base, nil
	}
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 1; ; i++ {
		candidate := stem + "(" + strconv.Itoa(i) + ")" + ext
		_, err := m.index.ChildByName(ctx, parent, candidate)
		if restype.IsNoSuchResource(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}
