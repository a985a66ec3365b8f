// internal/repository/postgres/search_history_repo.go
package postgres

import (
	"context"
	"fmt"

	"retention-service/internal/domain/history"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

const defaultHistoryTable = "search_history"

type SearchHistoryRepository struct {
	db    *DB
	table string
}

func NewSearchHistoryRepository(db *DB, table string) *SearchHistoryRepository {
	if table == "" {
		table = defaultHistoryTable
	}
	return &SearchHistoryRepository{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureSchema creates the history table when it does not exist.
func (r *SearchHistoryRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          BIGSERIAL PRIMARY KEY,
			agency      TEXT NOT NULL,
			term        TEXT NOT NULL,
			searched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (agency, term)
		)
	`, r.table)

	if _, err := r.db.Pool().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create search history table: %w", err)
	}
	return nil
}

// Add records a search, moving an existing term to the front, and trims the
// agency history to limit entries.
func (r *SearchHistoryRepository) Add(ctx context.Context, entry *history.Entry, limit int) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return r.add(ctx, tx, entry, limit)
	})
}

func (r *SearchHistoryRepository) add(ctx context.Context, tx pgx.Tx, entry *history.Entry, limit int) error {
	upsert := fmt.Sprintf(`
		INSERT INTO %s (agency, term, searched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (agency, term) DO UPDATE SET searched_at = EXCLUDED.searched_at
	`, r.table)
	if _, err := tx.Exec(ctx, upsert, entry.Agency, entry.Term, entry.SearchedAt); err != nil {
		return fmt.Errorf("failed to save search: %w", err)
	}

	trim := fmt.Sprintf(`
		DELETE FROM %[1]s
		WHERE agency = $1 AND id NOT IN (
			SELECT id FROM %[1]s
			WHERE agency = $1
			ORDER BY searched_at DESC, id DESC
			LIMIT $2
		)
	`, r.table)
	if _, err := tx.Exec(ctx, trim, entry.Agency, limit); err != nil {
		return fmt.Errorf("failed to trim search history: %w", err)
	}

	return nil
}

// List returns the most recent searches of an agency, newest first.
func (r *SearchHistoryRepository) List(ctx context.Context, agency string, limit int) ([]history.Entry, error) {
	query := fmt.Sprintf(`
		SELECT agency, term, searched_at
		FROM %s
		WHERE agency = $1
		ORDER BY searched_at DESC, id DESC
		LIMIT $2
	`, r.table)

	rows, err := r.db.Pool().Query(ctx, query, agency, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	defer rows.Close()

	entries := []history.Entry{}
	for rows.Next() {
		var e history.Entry
		if err := rows.Scan(&e.Agency, &e.Term, &e.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search history: %w", err)
	}
	return entries, nil
}

// Remove deletes the given terms, or the whole agency history when none.
func (r *SearchHistoryRepository) Remove(ctx context.Context, agency string, terms ...string) error {
	var err error
	if len(terms) == 0 {
		_, err = r.db.Pool().Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE agency = $1`, r.table), agency)
	} else {
		_, err = r.db.Pool().Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE agency = $1 AND term = ANY($2)`, r.table),
			agency, pq.Array(terms),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to remove search history: %w", err)
	}
	return nil
}
