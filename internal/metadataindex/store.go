// Package metadataindex is the relational Metadata Index (§4.5): the
// authoritative catalog of resource rows, tags, variants, and the
// full-text postings list, backed by SQLite through the pure-Go
// ncruces/go-sqlite3 driver. It also registers the frecency() SQL
// function so ORDER BY frecency(scorer) can run inside the engine.
package metadataindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	sqlite3 "github.com/ncruces/go-sqlite3"
	sqlite3driver "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/contentvault/resourcestore/internal/restype"
	"github.com/contentvault/resourcestore/internal/scorer"
)

// driverName is registered once, separately from the package's default
// "sqlite3" registration, so every connection opened through it carries
// the frecency() function without clashing with any other package in
// the process that also imports the plain driver.
const driverName = "rstore_sqlite3"

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(driverName, &sqlite3driver.Driver{
			ConnectHook: func(c *sqlite3.Conn) error {
				return c.CreateFunction("frecency", 1, sqlite3.DETERMINISTIC, frecencyFunc)
			},
		})
	})
}

// frecencyFunc implements the frecency(scorer_blob) SQL scalar: decode the
// encoded Scorer and return its current frecency score. A blob that fails
// to decode (NULL, wrong length, corrupt) scores zero rather than aborting
// the query, since rows with a missing scorer should sort last, not break
// the whole statement.
func frecencyFunc(ctx sqlite3.Context, args ...sqlite3.Value) {
	blob := args[0].Blob()
	s, err := scorer.Decode(blob)
	if err != nil {
		ctx.ResultInt64(0)
		return
	}
	ctx.ResultInt64(int64(s.Frecency()))
}

// Store is the Metadata Index handle. Its pool holds a single connection
// that serves both reads and writes; calls from any number of goroutines
// are safe and wait their turn for that connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// brings its schema up to date.
func Open(ctx context.Context, path string) (*Store, error) {
	registerDriver()

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(wal)&_pragma=foreign_keys(on)", path)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, restype.IOError(err)
	}
	// A single connection avoids SQLITE_BUSY storms under our own
	// retrying BEGIN IMMEDIATE; reads share that same connection, so reads
	// and writes are serialized through it.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is one Metadata Index transaction: a dedicated connection holding a
// BEGIN IMMEDIATE lock, matching the protocol the Manager drives (index
// writes happen, then the caller performs its blob-store side effect,
// then the whole thing commits or rolls back as one unit from the
// index's point of view).
type Tx struct {
	conn *sql.Conn
}

// isBusy reports whether err is SQLite's "database is locked"/SQLITE_BUSY,
// the only condition beginImmediate retries on.
func isBusy(err error) bool {
	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.BUSY
	}
	return false
}

func beginImmediate(ctx context.Context, conn *sql.Conn) error {
	op := func() error {
		_, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err != nil && isBusy(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second

	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// WithTx runs fn inside a BEGIN IMMEDIATE transaction on a dedicated
// connection, committing on success and rolling back on any error fn
// returns (including one surfaced from the caller's own blob-store side
// effect, which fn is expected to invoke before returning).
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return restype.IOError(err)
	}
	defer conn.Close()

	if err := beginImmediate(ctx, conn); err != nil {
		return restype.IOError(err)
	}

	tx := &Tx{conn: conn}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return restype.IOError(err)
	}
	committed = true
	return nil
}
