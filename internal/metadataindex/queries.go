package metadataindex

import (
	"context"
	"database/sql"
	"time"

	"github.com/contentvault/resourcestore/internal/restype"
	"github.com/contentvault/resourcestore/internal/scorer"
)

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// GetMetadata loads a resource's full row, tags, and variants. It
// returns NoSuchResource if id isn't present — the Manager falls back
// to blob re-hydration on this error (§4.6.4).
func (s *Store) GetMetadata(ctx context.Context, id restype.ResourceId) (*restype.ResourceMetadata, error) {
	var parent, name, created, modified string
	var kind int
	var scorerBytes []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT parent, kind, name, created, modified, scorer FROM resources WHERE id = ?
	`, id.String()).Scan(&parent, &kind, &name, &created, &modified, &scorerBytes)
	if isNoRows(err) {
		return nil, restype.NoSuchResource(id)
	}
	if err != nil {
		return nil, wrapDBError("get metadata", err)
	}

	parentID, err := restype.ParseResourceId(parent)
	if err != nil {
		return nil, restype.CodecError(err)
	}
	sc, err := scorer.Decode(scorerBytes)
	if err != nil {
		return nil, restype.CodecError(err)
	}

	tags, err := s.tagsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	variants, err := s.variantsFor(ctx, id)
	if err != nil {
		return nil, err
	}

	return &restype.ResourceMetadata{
		ID:       id,
		Parent:   parentID,
		Kind:     restype.ResourceKind(kind),
		Name:     name,
		Tags:     tags,
		Variants: variants,
		Created:  parseTime(created),
		Modified: parseTime(modified),
		Scorer:   *sc,
	}, nil
}

func (s *Store) tagsFor(ctx context.Context, id restype.ResourceId) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag FROM tags WHERE id = ? ORDER BY tag`, id.String())
	if err != nil {
		return nil, wrapDBError("query tags", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, wrapDBError("scan tag", err)
		}
		tags = append(tags, tag)
	}
	return tags, wrapDBError("iterate tags", rows.Err())
}

func (s *Store) variantsFor(ctx context.Context, id restype.ResourceId) ([]restype.Variant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, mime_type, size FROM variants WHERE id = ? ORDER BY name
	`, id.String())
	if err != nil {
		return nil, wrapDBError("query variants", err)
	}
	defer rows.Close()

	var variants []restype.Variant
	for rows.Next() {
		var v restype.Variant
		if err := rows.Scan(&v.Name, &v.MimeType, &v.Size); err != nil {
			return nil, wrapDBError("scan variant", err)
		}
		variants = append(variants, v)
	}
	return variants, wrapDBError("iterate variants", rows.Err())
}

// CountByID reports whether id is present at all.
func (s *Store) CountByID(ctx context.Context, id restype.ResourceId) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources WHERE id = ?`, id.String()).Scan(&n)
	return n, wrapDBError("count by id", err)
}

// CountByIDAndKind reports whether id is present with the given kind,
// the check create() uses to confirm a parent is actually a container
// (I6/InvalidContainerId).
func (s *Store) CountByIDAndKind(ctx context.Context, id restype.ResourceId, kind restype.ResourceKind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM resources WHERE id = ? AND kind = ?
	`, id.String(), int(kind)).Scan(&n)
	return n, wrapDBError("count by id and kind", err)
}

// ResourceCount returns the total number of rows in the index
// (SUPPLEMENTED FEATURES: Manager.ResourceCount).
func (s *Store) ResourceCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&n)
	return n, wrapDBError("resource count", err)
}

// Children lists parent's direct children. For Root, rows that are
// their own parent (the root bootstrap row) are excluded so Root never
// appears as its own child.
func (s *Store) Children(ctx context.Context, parent restype.ResourceId) ([]restype.ResourceId, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM resources WHERE parent = ? AND id != ? ORDER BY name
	`, parent.String(), parent.String())
	if err != nil {
		return nil, wrapDBError("children", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ParentOf returns id's parent.
func (s *Store) ParentOf(ctx context.Context, id restype.ResourceId) (restype.ResourceId, error) {
	var parent string
	err := s.db.QueryRowContext(ctx, `SELECT parent FROM resources WHERE id = ?`, id.String()).Scan(&parent)
	if isNoRows(err) {
		return restype.ResourceId{}, restype.NoSuchResource(id)
	}
	if err != nil {
		return restype.ResourceId{}, wrapDBError("parent of", err)
	}
	parentID, err := restype.ParseResourceId(parent)
	if err != nil {
		return restype.ResourceId{}, restype.CodecError(err)
	}
	return parentID, nil
}

// ByName finds resources with the given name, optionally restricted to
// those carrying tag.
func (s *Store) ByName(ctx context.Context, name string, tag string) ([]restype.ResourceId, error) {
	var rows *sql.Rows
	var err error
	if tag == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id FROM resources WHERE name = ?`, name)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT r.id FROM resources r
			JOIN tags t ON t.id = r.id
			WHERE r.name = ? AND t.tag = ?
		`, name, tag)
	}
	if err != nil {
		return nil, wrapDBError("by name", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ChildByName finds the single child of parent with the given name,
// the lookup backing import_from_path.
func (s *Store) ChildByName(ctx context.Context, parent restype.ResourceId, name string) (restype.ResourceId, error) {
	var idStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM resources WHERE parent = ? AND name = ?
	`, parent.String(), name).Scan(&idStr)
	if isNoRows(err) {
		return restype.ResourceId{}, restype.NoSuchResource(parent)
	}
	if err != nil {
		return restype.ResourceId{}, wrapDBError("child by name", err)
	}
	return restype.ParseResourceId(idStr)
}

// ByTag lists every resource carrying tag.
func (s *Store) ByTag(ctx context.Context, tag string) ([]restype.ResourceId, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM tags WHERE tag = ? ORDER BY id
	`, tag)
	if err != nil {
		return nil, wrapDBError("by tag", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// TopByFrecency lists the n resources with the highest frecency score,
// evaluated by the frecency() SQL function registered on every
// connection opened through this package.
func (s *Store) TopByFrecency(ctx context.Context, n int) ([]restype.ResourceId, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM resources ORDER BY frecency(scorer) DESC, id LIMIT ?
	`, n)
	if err != nil {
		return nil, wrapDBError("top by frecency", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// LastModified lists the n most recently modified resources.
func (s *Store) LastModified(ctx context.Context, n int) ([]restype.ResourceId, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM resources ORDER BY modified DESC, id LIMIT ?
	`, n)
	if err != nil {
		return nil, wrapDBError("last modified", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]restype.ResourceId, error) {
	var ids []restype.ResourceId
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, wrapDBError("scan id", err)
		}
		id, err := restype.ParseResourceId(idStr)
		if err != nil {
			return nil, restype.CodecError(err)
		}
		ids = append(ids, id)
	}
	return ids, wrapDBError("iterate ids", rows.Err())
}
