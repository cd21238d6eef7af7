package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func init() {
	goose.AddMigrationContext(upAddFetchHost, downDropFetchHost)
}

// upAddFetchHost adds the host column and fills it from the stored URLs.
// SQLite has no URL parsing, so the backfill runs in Go.
func upAddFetchHost(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `ALTER TABLE fetches ADD COLUMN host TEXT NOT NULL DEFAULT ''`)
	if err != nil {
		return fmt.Errorf("adding host column : %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT id, url FROM fetches")
	if err != nil {
		return fmt.Errorf("getting all rows: %w", err)
	}
	defer rows.Close()

	hosts := make(map[string]string)
	for rows.Next() {
		var id, rawURL string
		if err := rows.Scan(&id, &rawURL); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		parsed, err := url.Parse(rawURL)
		if err != nil {
			continue
		}
		hosts[id] = parsed.Host
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	for id, host := range hosts {
		if _, err := tx.ExecContext(ctx, "UPDATE fetches SET host = ? WHERE id = ?", host, id); err != nil {
			return fmt.Errorf("updating row %s : %w", id, err)
		}
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_fetches_host ON fetches(host)`)
	if err != nil {
		return fmt.Errorf("creating host index : %w", err)
	}
	return nil
}

func downDropFetchHost(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_fetches_host`); err != nil {
		return fmt.Errorf("dropping host index : %w", err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE fetches DROP COLUMN host`); err != nil {
		return fmt.Errorf("dropping host column : %w", err)
	}
	return nil
}
