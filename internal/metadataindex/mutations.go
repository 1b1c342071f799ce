package metadataindex

import (
	"context"
	"time"

	"github.com/contentvault/resourcestore/internal/restype"
)

const timeLayout = time.RFC3339Nano

// InsertResource writes a brand-new resource row plus its tags and
// variants inside tx. It fails with AlreadyExists if id is already
// present, and also with AlreadyExists if a sibling under the same
// parent already has this name (I3).
func (s *Store) InsertResource(ctx context.Context, tx *Tx, meta *restype.ResourceMetadata) error {
	scorerBytes := meta.Scorer.Encode()
	_, err := tx.conn.ExecContext(ctx, `
		INSERT INTO resources (id, parent, kind, name, created, modified, scorer)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, meta.ID.String(), meta.Parent.String(), int(meta.Kind), meta.Name,
		meta.Created.Format(timeLayout), meta.Modified.Format(timeLayout), scorerBytes)
	if err != nil {
		if isUniqueConstraint(err) {
			return restype.AlreadyExists(meta.ID)
		}
		return wrapDBError("insert resource", err)
	}
	if err := s.replaceTags(ctx, tx, meta.ID, meta.Tags); err != nil {
		return err
	}
	return s.ReplaceVariants(ctx, tx, meta.ID, meta.Variants)
}

// UpdateResourceRow rewrites the whole resource: core columns (parent,
// name, modified, scorer), tags, and the variant set, matching update()'s
// contract that it "replaces the resource row and variant set" (§4.6.5).
func (s *Store) UpdateResourceRow(ctx context.Context, tx *Tx, meta *restype.ResourceMetadata) error {
	_, err := tx.conn.ExecContext(ctx, `
		UPDATE resources SET parent = ?, name = ?, modified = ?, scorer = ?
		WHERE id = ?
	`, meta.Parent.String(), meta.Name, meta.Modified.Format(timeLayout), meta.Scorer.Encode(), meta.ID.String())
	if err != nil {
		if isUniqueConstraint(err) {
			return restype.AlreadyExists(meta.ID)
		}
		return wrapDBError("update resource", err)
	}
	if err := s.replaceTags(ctx, tx, meta.ID, meta.Tags); err != nil {
		return err
	}
	return s.ReplaceVariants(ctx, tx, meta.ID, meta.Variants)
}

// UpdateScorer rewrites just the scorer blob and modified timestamp,
// the hot path for Visit().
func (s *Store) UpdateScorer(ctx context.Context, tx *Tx, id restype.ResourceId, sc []byte, modified time.Time) error {
	_, err := tx.conn.ExecContext(ctx, `
		UPDATE resources SET scorer = ?, modified = ? WHERE id = ?
	`, sc, modified.Format(timeLayout), id.String())
	return wrapDBError("update scorer", err)
}

func (s *Store) replaceTags(ctx context.Context, tx *Tx, id restype.ResourceId, tags []string) error {
	if _, err := tx.conn.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id.String()); err != nil {
		return wrapDBError("clear tags", err)
	}
	for _, tag := range tags {
		if _, err := tx.conn.ExecContext(ctx, `INSERT OR IGNORE INTO tags (id, tag) VALUES (?, ?)`, id.String(), tag); err != nil {
			return wrapDBError("insert tag", err)
		}
	}
	return nil
}

// AddTag inserts a single tag without disturbing the rest of the row
// (SUPPLEMENTED FEATURES: tag add/remove as distinct operations).
func (s *Store) AddTag(ctx context.Context, tx *Tx, id restype.ResourceId, tag string) error {
	_, err := tx.conn.ExecContext(ctx, `INSERT OR IGNORE INTO tags (id, tag) VALUES (?, ?)`, id.String(), tag)
	return wrapDBError("add tag", err)
}

// RemoveTag deletes a single tag; removing a tag that isn't present is a
// no-op, matching the original's semantics.
func (s *Store) RemoveTag(ctx context.Context, tx *Tx, id restype.ResourceId, tag string) error {
	_, err := tx.conn.ExecContext(ctx, `DELETE FROM tags WHERE id = ? AND tag = ?`, id.String(), tag)
	return wrapDBError("remove tag", err)
}

// ReplaceVariants overwrites the full variant set for id.
func (s *Store) ReplaceVariants(ctx context.Context, tx *Tx, id restype.ResourceId, variants []restype.Variant) error {
	if _, err := tx.conn.ExecContext(ctx, `DELETE FROM variants WHERE id = ?`, id.String()); err != nil {
		return wrapDBError("clear variants", err)
	}
	for _, v := range variants {
		if _, err := tx.conn.ExecContext(ctx, `
			INSERT INTO variants (id, name, mime_type, size) VALUES (?, ?, ?, ?)
		`, id.String(), v.Name, v.MimeType, v.Size); err != nil {
			return wrapDBError("insert variant", err)
		}
	}
	return nil
}

// SetVariant upserts a single variant row, the path update_variant uses
// rather than rewriting the whole set.
func (s *Store) SetVariant(ctx context.Context, tx *Tx, id restype.ResourceId, v restype.Variant) error {
	_, err := tx.conn.ExecContext(ctx, `
		INSERT INTO variants (id, name, mime_type, size) VALUES (?, ?, ?, ?)
		ON CONFLICT (id, name) DO UPDATE SET mime_type = excluded.mime_type, size = excluded.size
	`, id.String(), v.Name, v.MimeType, v.Size)
	return wrapDBError("set variant", err)
}

// RemoveVariant deletes a single variant row.
func (s *Store) RemoveVariant(ctx context.Context, tx *Tx, id restype.ResourceId, name string) error {
	_, err := tx.conn.ExecContext(ctx, `DELETE FROM variants WHERE id = ? AND name = ?`, id.String(), name)
	return wrapDBError("remove variant", err)
}

// SetVariantSize rewrites just a variant's recorded size, the path
// Manager uses after rewriting a container's default listing so the
// index's own bookkeeping of that blob's size stays current without
// touching its declared mime_type.
func (s *Store) SetVariantSize(ctx context.Context, tx *Tx, id restype.ResourceId, name string, size int64) error {
	_, err := tx.conn.ExecContext(ctx, `
		UPDATE variants SET size = ? WHERE id = ? AND name = ?
	`, size, id.String(), name)
	return wrapDBError("set variant size", err)
}

// DeleteResources removes every row (resources, and by foreign-key
// cascade tags/variants/fts) for the given ids in one statement. The
// Manager is responsible for expanding a single delete into the full
// cascade worklist (I2) before calling this; the index itself does not
// walk the parent/child graph.
func (s *Store) DeleteResources(ctx context.Context, tx *Tx, ids []restype.ResourceId) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := idList(ids)
	_, err := tx.conn.ExecContext(ctx, `DELETE FROM resources WHERE id IN (`+placeholders+`)`, args...)
	return wrapDBError("delete resources", err)
}

// ClearAll truncates every table, for the SUPPLEMENTED Manager.Clear().
func (s *Store) ClearAll(ctx context.Context, tx *Tx) error {
	for _, stmt := range []string{
		`DELETE FROM fts`,
		`DELETE FROM variants`,
		`DELETE FROM tags`,
		`DELETE FROM resources`,
	} {
		if _, err := tx.conn.ExecContext(ctx, stmt); err != nil {
			return wrapDBError("clear all", err)
		}
	}
	return nil
}

func idList(ids []restype.ResourceId) (string, []any) {
	placeholders := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args[i] = id.String()
	}
	return placeholders, args
}
