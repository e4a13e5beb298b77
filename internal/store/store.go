// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/session"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	_ session.TextSource    = (*Store)(nil)
	_ session.ResultSink    = (*Store)(nil)
	_ session.PositionStore = (*Positions)(nil)
)

// Store wraps SQLite access for users, passages, results and resume positions.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// Results and positions are written from concurrent goroutines.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Positions returns the resume position view of the store.
func (s *Store) Positions() *Positions {
	return &Positions{db: s.db}
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS passages (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			description TEXT NOT NULL,
			content TEXT NOT NULL,
			word_count INTEGER NOT NULL,
			is_public INTEGER NOT NULL,
			user_id INTEGER NOT NULL REFERENCES users(id),
			personal_best INTEGER NOT NULL DEFAULT 0,
			added_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			passage_id INTEGER NOT NULL REFERENCES passages(id),
			date TEXT NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			error_count INTEGER NOT NULL,
			elapsed_seconds INTEGER NOT NULL,
			chars_typed INTEGER NOT NULL,
			word_index INTEGER NOT NULL,
			window_words INTEGER NOT NULL,
			is_partial INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS positions (
			user_id INTEGER NOT NULL,
			passage_id INTEGER NOT NULL,
			word_index INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, passage_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_date ON results(date);`,
		`CREATE INDEX IF NOT EXISTS idx_results_user ON results(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_passages_user ON passages(user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// EnsureUser returns the user with the given name, creating it if needed.
func (s *Store) EnsureUser(ctx context.Context, name string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, errors.New("user name is empty")
	}
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (name) VALUES (?)`, name); err != nil {
		return model.User{}, fmt.Errorf("ensure user %q: %w", name, err)
	}
	user := model.User{Name: name}
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE name = ?`, name).Scan(&user.ID); err != nil {
		return model.User{}, fmt.Errorf("ensure user %q: %w", name, err)
	}
	return user, nil
}

// User returns the user with the given id.
func (s *Store) User(ctx context.Context, id int64) (model.User, error) {
	user := model.User{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, id).Scan(&user.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("user %d: %w", id, err)
	}
	return user, nil
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
