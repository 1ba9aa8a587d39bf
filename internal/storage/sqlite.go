package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/HelloDanni/billflow/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every collection as one row in the collections table.
// Saves are whole-document upserts inside a single transaction, so readers
// never observe a half-written snapshot.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (ledger.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, body FROM collections`)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	docs := make(map[string][]byte, 4)
	for rows.Next() {
		var name string
		var body []byte
		if err := rows.Scan(&name, &body); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("scan collection: %w", err)
		}
		docs[name] = body
	}
	if err := rows.Err(); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("iterate collections: %w", err)
	}

	snap := decodeSnapshot(ctx, docs)
	slog.InfoContext(ctx, "Snapshot loaded from SQLite",
		"bills", len(snap.Bills),
		"incomes", len(snap.Incomes))
	return snap, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap ledger.Snapshot) error {
	docs, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for name, body := range docs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collections (name, body, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(name) DO UPDATE SET
				body = excluded.body,
				updated_at = excluded.updated_at`,
			name, body)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
