package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteLookup resolves account names against a local chart-of-accounts
// database, for deployments that ship the chart as a file instead of
// running the lookup API.
type SQLiteLookup struct {
	db *sql.DB
}

// OpenSQLiteLookup opens (or creates) a chart-of-accounts database and
// ensures its schema.
func OpenSQLiteLookup(path string) (*SQLiteLookup, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts database %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS accounts (
		id   TEXT NOT NULL,
		name TEXT NOT NULL COLLATE NOCASE,
		PRIMARY KEY (name)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure accounts schema: %w", err)
	}

	return &SQLiteLookup{db: db}, nil
}

// Close releases the underlying database handle.
func (l *SQLiteLookup) Close() error {
	return l.db.Close()
}

// LookupName implements Lookup with a case-insensitive exact match.
func (l *SQLiteLookup) LookupName(ctx context.Context, name string) (string, error) {
	var id string
	err := l.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE name = ? COLLATE NOCASE LIMIT 1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("accounts query failed: %w", err)
	}
	return id, nil
}

// Available reports whether the database answers a ping.
func (l *SQLiteLookup) Available(ctx context.Context) bool {
	return l.db.PingContext(ctx) == nil
}

// ImportAccounts loads a chart of accounts, replacing entries that
// share a name. Used to seed the database from an exported chart.
func (l *SQLiteLookup) ImportAccounts(ctx context.Context, accounts map[string]string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO accounts (id, name) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET id = excluded.id`)
	if err != nil {
		return fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	for name, id := range accounts {
		if name == "" || id == "" {
			return fmt.Errorf("account name and id cannot be empty")
		}
		if _, err := stmt.ExecContext(ctx, id, name); err != nil {
			return fmt.Errorf("failed to import account %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}
