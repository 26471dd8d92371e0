// Package corpus persists raw source posts in SQLite so the bot can
// rebuild its chain model without refetching every feed. Only texts are
// stored; the trained model itself never survives a run.
package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// SetupSchema initializes the corpus table in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const schemaPosts = `
CREATE TABLE IF NOT EXISTS corpus_posts (
    post_id INTEGER PRIMARY KEY,
    source TEXT NOT NULL,
    post_text TEXT NOT NULL,
    added_at TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE (source, post_text)
);
`

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing. If it fails, this will clean up.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaPosts); err != nil {
		return fmt.Errorf("could not create corpus schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store provides access to the persistent corpus. It holds the database
// connection and prepared statements for the hot paths.
type Store struct {
	db              *sql.DB
	stmtInsertPost  *sql.Stmt
	stmtAllTexts    *sql.Stmt
	stmtSourceTexts *sql.Stmt
	stmtAllRows     *sql.Stmt
	stmtCounts      *sql.Stmt
	logger          *slog.Logger
}

// NewStore creates a Store over an initialized database, pre-compiling its
// SQL statements. It returns an error if any preparation fails.
func NewStore(db *sql.DB) (*Store, error) {
	stmtInsertPost, err := db.Prepare(`INSERT OR IGNORE INTO corpus_posts (source, post_text) VALUES (?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtAllTexts, err := db.Prepare(`SELECT post_text FROM corpus_posts ORDER BY post_id;`)
	if err != nil {
		return nil, err
	}

	stmtSourceTexts, err := db.Prepare(`SELECT post_text FROM corpus_posts WHERE source = ? ORDER BY post_id;`)
	if err != nil {
		return nil, err
	}

	stmtAllRows, err := db.Prepare(`SELECT post_id, post_text FROM corpus_posts;`)
	if err != nil {
		return nil, err
	}

	stmtCounts, err := db.Prepare(`SELECT source, COUNT(*) FROM corpus_posts GROUP BY source;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:              db,
		stmtInsertPost:  stmtInsertPost,
		stmtAllTexts:    stmtAllTexts,
		stmtSourceTexts: stmtSourceTexts,
		stmtAllRows:     stmtAllRows,
		stmtCounts:      stmtCounts,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtInsertPost.Close()
	_ = s.stmtAllTexts.Close()
	_ = s.stmtSourceTexts.Close()
	_ = s.stmtAllRows.Close()
	_ = s.stmtCounts.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// AddPosts inserts texts under a source label inside one transaction.
// Posts already stored for that source are skipped; the returned count is
// the number of newly inserted rows.
func (s *Store) AddPosts(ctx context.Context, source string, texts []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmt := tx.StmtContext(ctx, s.stmtInsertPost)

	var added int
	for _, text := range texts {
		res, err := stmt.ExecContext(ctx, source, text)
		if err != nil {
			return 0, fmt.Errorf("could not insert post: %w", err)
		}
		n, _ := res.RowsAffected()
		added += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.Info("Corpus updated",
		slog.String("source", source),
		slog.Int("posts_seen", len(texts)),
		slog.Int("posts_added", added),
	)

	return added, nil
}

// Texts returns every stored post text in insertion order.
func (s *Store) Texts(ctx context.Context) ([]string, error) {
	return s.queryTexts(ctx, s.stmtAllTexts)
}

// TextsBySource returns the stored post texts for one source label, in
// insertion order.
func (s *Store) TextsBySource(ctx context.Context, source string) ([]string, error) {
	return s.queryTexts(ctx, s.stmtSourceTexts, source)
}

func (s *Store) queryTexts(ctx context.Context, stmt *sql.Stmt, args ...any) ([]string, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var texts []string
	for rows.Next() {
		var text string
		if err = rows.Scan(&text); err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

// Prune deletes every stored post whose text matches the pattern. The
// match runs in Go because SQLite has no built-in REGEXP; rows are removed
// in batches to stay under the variable limit.
func (s *Store) Prune(ctx context.Context, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("invalid prune pattern %q: %w", pattern, err)
	}

	rows, err := s.stmtAllRows.QueryContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not query corpus for pruning: %w", err)
	}

	var matched []any
	for rows.Next() {
		var id int
		var text string
		if err = rows.Scan(&id, &text); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("could not scan corpus row: %w", err)
		}
		if re.MatchString(text) {
			matched = append(matched, id)
		}
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("error after iterating corpus rows: %w", err)
	}

	if len(matched) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err = batchDelete(ctx, tx, matched); err != nil {
		return 0, fmt.Errorf("could not prune corpus: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.Info("Corpus pruned",
		slog.String("pattern", pattern),
		slog.Int("posts_removed", len(matched)),
	)

	return len(matched), nil
}

// Counts returns the number of stored posts per source label.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.stmtCounts.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err = rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		counts[source] = n
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// batchDelete removes rows by ID in chunks small enough for SQLite's
// default variable limit.
func batchDelete(ctx context.Context, tx *sql.Tx, ids []any) error {
	const batchSize = 500

	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]

		query := fmt.Sprintf("DELETE FROM corpus_posts WHERE post_id IN (?%s)", strings.Repeat(",?", len(batch)-1))

		if _, err := tx.ExecContext(ctx, query, batch...); err != nil {
			return err
		}
	}
	return nil
}
