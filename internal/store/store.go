package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mapleads-engine/internal/domain"
)

// DB mirrors exported leads into sqlite so later runs can skip places that
// were already enriched.
type DB struct {
	Pool *sql.DB
}

func Open(path string) (*DB, error) {
	// modernc sqlite DSN: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	d := &DB{Pool: pool}
	if err := d.migrate(); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error { return d.Pool.Close() }

func (d *DB) migrate() error {
	_, err := d.Pool.Exec(`
CREATE TABLE IF NOT EXISTS leads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  place_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  website TEXT NOT NULL DEFAULT '',
  source_url TEXT NOT NULL DEFAULT '',
  region TEXT NOT NULL DEFAULT '',
  scraped_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_region ON leads(region);
`)
	return err
}

// UpsertLead inserts a lead if its place is new. An existing row gets its
// email/website backfilled when a later run found what an earlier one missed.
func (d *DB) UpsertLead(ctx context.Context, l domain.EnrichedListing) (bool, error) {
	if l.ID == "" {
		return false, fmt.Errorf("lead without place id")
	}
	at := l.ScrapedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	res, err := d.Pool.ExecContext(ctx, `
INSERT OR IGNORE INTO leads(place_id, name, address, phone, email, website, source_url, region, scraped_at)
VALUES(?,?,?,?,?,?,?,?,?);`,
		l.ID, l.Name, l.Address, l.Phone, l.Email, l.Website, l.SourceURL, l.Region,
		at.Format(time.RFC3339),
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n == 0 && (l.Email != "" || l.Website != "") {
		_, _ = d.Pool.ExecContext(ctx, `
UPDATE leads
SET email = CASE WHEN email = '' THEN ? ELSE email END,
    website = CASE WHEN website = '' THEN ? ELSE website END
WHERE place_id = ?;`,
			l.Email, l.Website, l.ID,
		)
	}
	return n > 0, nil
}

// KnownPlaceIDs returns the set of already-stored place identifiers.
func (d *DB) KnownPlaceIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := d.Pool.QueryContext(ctx, `SELECT place_id FROM leads;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
