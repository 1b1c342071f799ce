package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"

	"github.com/contentvault/resourcestore/internal/restype"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// FileDriver is a Driver backed by an afero.Fs, mirroring the original
// two-file-per-resource layout ("{id}.meta", "{id}.content.{variant}")
// from costaeres' file_store.rs: metadata and every declared variant live
// as flat files under a single root directory.
type FileDriver struct {
	fs        afero.Fs
	root      string
	names     NameProvider
	transform Transformer
}

// Option configures a FileDriver's pluggable hooks.
type Option func(*FileDriver)

// WithNameProvider overrides the default "{id}.meta"/"{id}.content.{variant}"
// naming scheme.
func WithNameProvider(p NameProvider) Option {
	return func(d *FileDriver) { d.names = p }
}

// WithTransformer wraps every read/write stream, e.g. to add compression
// or encryption.
func WithTransformer(t Transformer) Option {
	return func(d *FileDriver) { d.transform = t }
}

// NewFileDriver creates (if needed) root on fs and returns a Driver over it.
func NewFileDriver(fs afero.Fs, root string, opts ...Option) (*FileDriver, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, restype.IOError(err)
	}
	d := &FileDriver{
		fs:        fs,
		root:      root,
		names:     DefaultNameProvider{},
		transform: NoopTransformer{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

var _ Driver = (*FileDriver)(nil)

func (d *FileDriver) metaPath(id restype.ResourceId) string {
	return filepath.Join(d.root, d.names.MetaName(id))
}

func (d *FileDriver) variantPath(id restype.ResourceId, variant string) string {
	return filepath.Join(d.root, d.names.VariantName(id, variant))
}

func (d *FileDriver) exists(path string) (bool, error) {
	ok, err := afero.Exists(d.fs, path)
	if err != nil {
		return false, restype.IOError(err)
	}
	return ok, nil
}

func (d *FileDriver) writeMeta(meta *restype.ResourceMetadata) error {
	data, err := jsonAPI.Marshal(meta)
	if err != nil {
		return restype.CodecError(err)
	}
	return d.writeFile(d.metaPath(meta.ID), bytes.NewReader(data))
}

func (d *FileDriver) writeFile(path string, r io.Reader) error {
	f, err := d.fs.Create(path)
	if err != nil {
		return restype.IOError(err)
	}
	defer f.Close()

	wrapped, err := d.transform.WrapWriter(f)
	if err != nil {
		return restype.IOError(err)
	}
	if _, err := io.Copy(wrapped, r); err != nil {
		return restype.IOError(err)
	}
	if closer, ok := wrapped.(io.Closer); ok && wrapped != io.Writer(f) {
		if err := closer.Close(); err != nil {
			return restype.IOError(err)
		}
	}
	if err := f.Sync(); err != nil {
		return restype.IOError(err)
	}
	return nil
}

func (d *FileDriver) writeVariant(id restype.ResourceId, c *Content) error {
	if c == nil {
		return nil
	}
	return d.writeFile(d.variantPath(id, c.Variant), c.Reader)
}

// Create implements Driver.
func (d *FileDriver) Create(ctx context.Context, meta *restype.ResourceMetadata, content *Content) error {
	exists, err := d.exists(d.metaPath(meta.ID))
	if err != nil {
		return err
	}
	if exists {
		return restype.AlreadyExists(meta.ID)
	}
	if err := d.writeMeta(meta); err != nil {
		return err
	}
	return d.writeVariant(meta.ID, content)
}

// Update implements Driver.
func (d *FileDriver) Update(ctx context.Context, meta *restype.ResourceMetadata, content *Content) error {
	if err := d.writeMeta(meta); err != nil {
		return err
	}
	return d.writeVariant(meta.ID, content)
}

// UpdateDefaultFromBytes implements Driver.
func (d *FileDriver) UpdateDefaultFromBytes(ctx context.Context, id restype.ResourceId, data []byte) error {
	return d.writeFile(d.variantPath(id, restype.DefaultVariantName), bytes.NewReader(data))
}

// Delete implements Driver.
func (d *FileDriver) Delete(ctx context.Context, id restype.ResourceId) error {
	meta, err := d.GetMetadata(ctx, id)
	if err != nil {
		return err
	}
	for _, v := range meta.Variants {
		if err := d.fs.Remove(d.variantPath(id, v.Name)); err != nil && !os.IsNotExist(err) {
			return restype.IOError(err)
		}
	}
	if err := d.fs.Remove(d.metaPath(id)); err != nil && !os.IsNotExist(err) {
		return restype.IOError(err)
	}
	return nil
}

// DeleteVariant implements Driver.
func (d *FileDriver) DeleteVariant(ctx context.Context, id restype.ResourceId, name string) error {
	if err := d.fs.Remove(d.variantPath(id, name)); err != nil && !os.IsNotExist(err) {
		return restype.IOError(err)
	}
	return nil
}

// GetMetadata implements Driver.
func (d *FileDriver) GetMetadata(ctx context.Context, id restype.ResourceId) (*restype.ResourceMetadata, error) {
	f, err := d.fs.Open(d.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, restype.NoSuchResource(id)
		}
		return nil, restype.IOError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, restype.IOError(err)
	}
	var meta restype.ResourceMetadata
	if err := jsonAPI.Unmarshal(data, &meta); err != nil {
		return nil, restype.CodecError(err)
	}
	return &meta, nil
}

type readCloser struct {
	io.Reader
	closeFn func() error
}

func (r readCloser) Close() error {
	if r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}

// GetVariant implements Driver.
func (d *FileDriver) GetVariant(ctx context.Context, id restype.ResourceId, name string) (io.ReadCloser, error) {
	f, err := d.fs.Open(d.variantPath(id, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, restype.NoSuchResource(id)
		}
		return nil, restype.IOError(err)
	}
	wrapped, err := d.transform.WrapReader(f)
	if err != nil {
		f.Close()
		return nil, restype.IOError(err)
	}
	return readCloser{Reader: wrapped, closeFn: f.Close}, nil
}

// GetFull implements Driver.
func (d *FileDriver) GetFull(ctx context.Context, id restype.ResourceId, variant string) (*restype.ResourceMetadata, io.ReadCloser, error) {
	meta, err := d.GetMetadata(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	stream, err := d.GetVariant(ctx, id, variant)
	if err != nil {
		return nil, nil, err
	}
	return meta, stream, nil
}

// HasVariant implements Driver.
func (d *FileDriver) HasVariant(ctx context.Context, id restype.ResourceId, name string) (bool, error) {
	return d.exists(d.variantPath(id, name))
}

// HasObject implements Driver.
func (d *FileDriver) HasObject(ctx context.Context, id restype.ResourceId) (bool, error) {
	return d.exists(d.metaPath(id))
}
