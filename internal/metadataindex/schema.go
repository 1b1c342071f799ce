package metadataindex

import "context"

// schema is applied in one shot on a fresh database. The store has no
// history of released schema versions yet, so there is a single
// "current" layout rather than a migrations/ directory of incremental
// steps; that structure is adopted wholesale once a second version
// exists.
const schema = `
CREATE TABLE IF NOT EXISTS resources (
	id       TEXT PRIMARY KEY,
	parent   TEXT NOT NULL,
	kind     INTEGER NOT NULL,
	name     TEXT NOT NULL,
	created  TEXT NOT NULL,
	modified TEXT NOT NULL,
	scorer   BLOB NOT NULL,
	UNIQUE (parent, name)
);

CREATE INDEX IF NOT EXISTS idx_resources_parent ON resources(parent);

CREATE TABLE IF NOT EXISTS tags (
	id  TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
	tag TEXT NOT NULL,
	PRIMARY KEY (id, tag)
);

CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);

CREATE TABLE IF NOT EXISTS variants (
	id        TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
	name      TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	size      INTEGER NOT NULL,
	PRIMARY KEY (id, name)
);

CREATE TABLE IF NOT EXISTS fts (
	id    TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
	ngram TEXT NOT NULL,
	PRIMARY KEY (id, ngram)
);

CREATE INDEX IF NOT EXISTS idx_fts_ngram ON fts(ngram);
`

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return wrapDBError("migrate schema", err)
	}
	return nil
}
