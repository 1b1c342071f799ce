package metadataindex

import (
	"context"

	"github.com/contentvault/resourcestore/internal/fts"
	"github.com/contentvault/resourcestore/internal/restype"
)

// AddText implements contentindex.TextSink: it breaks text into its
// n-gram postings (§4.3) and records one (id, ngram) row per distinct
// n-gram, inside the caller's transaction. It is the only way rows ever
// land in the fts table.
func (s *Store) AddText(ctx context.Context, tx *Tx, id restype.ResourceId, text string) error {
	for _, ngram := range fts.NGrams(text) {
		if _, err := tx.conn.ExecContext(ctx, `
			INSERT OR IGNORE INTO fts (id, ngram) VALUES (?, ?)
		`, id.String(), ngram); err != nil {
			return wrapDBError("insert ngram", err)
		}
	}
	return nil
}

// ClearText removes every posting for id, the step before re-indexing a
// resource whose content variant changed.
func (s *Store) ClearText(ctx context.Context, tx *Tx, id restype.ResourceId) error {
	_, err := tx.conn.ExecContext(ctx, `DELETE FROM fts WHERE id = ?`, id.String())
	return wrapDBError("clear text", err)
}

// ByText finds resources whose indexed text contains every whitespace
// token of query as a substring (the naive n-gram index's matching
// rule, §4.3), ranked by frecency, optionally restricted to tag. Tokens
// longer than fts.MaxNgram runes are truncated first, so only their
// leading MaxNgram runes have to match.
func (s *Store) ByText(ctx context.Context, query string, tag string) ([]restype.ResourceId, error) {
	tokens := fts.Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(tokens))
	var lookups []any
	for _, tok := range tokens {
		truncated := fts.TruncateForLookup(tok)
		if _, ok := seen[truncated]; ok {
			continue
		}
		seen[truncated] = struct{}{}
		lookups = append(lookups, truncated)
	}

	placeholders := ""
	for i := range lookups {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
	}

	q := `
		SELECT r.id FROM resources r
		JOIN (
			SELECT id FROM fts WHERE ngram IN (` + placeholders + `)
			GROUP BY id HAVING COUNT(DISTINCT ngram) = ?
		) matched ON matched.id = r.id
	`
	args := append(append([]any{}, lookups...), len(lookups))

	if tag != "" {
		q += ` JOIN tags t ON t.id = r.id AND t.tag = ?`
		args = append(args, tag)
	}
	q += ` ORDER BY frecency(r.scorer) DESC, r.id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapDBError("by text", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}
