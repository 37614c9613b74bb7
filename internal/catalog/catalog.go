// Package catalog maintains an optional side index, in Postgres, of
// block provenance metadata: which blocks exist, when they were last
// written, and their checksum. The engine's correctness never depends on
// the catalog; it exists purely so an admin console or a reconciliation
// job can query "what's written" without listing an entire bucket.
package catalog

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// BlockRecord is one row of the block_catalog table.
type BlockRecord struct {
	ScaleKey  string    `db:"scale_key"`
	Name      string    `db:"name"`
	SizeBytes int64     `db:"size_bytes"`
	Checksum  string    `db:"checksum"`
	WrittenAt time.Time `db:"written_at"`
}

// Catalog wraps a Postgres connection pool.
type Catalog struct {
	db *sqlx.DB
}

// Open connects to dsn (a postgres:// connection string) and verifies
// connectivity with a ping.
func Open(dsn string) (*Catalog, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() error { return c.db.Close() }

// Migrate creates the block_catalog table if it does not already exist.
func (c *Catalog) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS block_catalog (
			scale_key  TEXT NOT NULL,
			name       TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			checksum   TEXT NOT NULL,
			written_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (scale_key, name)
		)
	`)
	return err
}

// RecordWrite upserts a block's provenance row. Block.Save does not call
// it; within this module nothing records writes into the catalog.
func (c *Catalog) RecordWrite(ctx context.Context, rec BlockRecord) error {
	_, err := c.db.NamedExecContext(ctx, `
		INSERT INTO block_catalog (scale_key, name, size_bytes, checksum, written_at)
		VALUES (:scale_key, :name, :size_bytes, :checksum, :written_at)
		ON CONFLICT (scale_key, name) DO UPDATE
		SET size_bytes = EXCLUDED.size_bytes,
		    checksum = EXCLUDED.checksum,
		    written_at = EXCLUDED.written_at
	`, rec)
	return err
}

// BlocksForScale lists every catalogued block for scaleKey, most
// recently written first.
func (c *Catalog) BlocksForScale(ctx context.Context, scaleKey string) ([]BlockRecord, error) {
	var recs []BlockRecord
	err := c.db.SelectContext(ctx, &recs, `
		SELECT scale_key, name, size_bytes, checksum, written_at
		FROM block_catalog
		WHERE scale_key = $1
		ORDER BY written_at DESC
	`, scaleKey)
	return recs, err
}

// TotalBytes sums size_bytes across every catalogued block for scaleKey.
func (c *Catalog) TotalBytes(ctx context.Context, scaleKey string) (int64, error) {
	var total int64
	err := c.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(size_bytes), 0) FROM block_catalog WHERE scale_key = $1
	`, scaleKey)
	return total, err
}
