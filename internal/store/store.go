// Package store keeps IPC sections, legal templates and query history in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

// ErrNotFound is returned when a lookup by key matches nothing.
var ErrNotFound = errors.New("not found")

// Section is one IPC section as presented to callers.
type Section struct {
	Number      string `json:"section"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Context     string `json:"context"`
	Punishment  string `json:"punishment"`
	Category    string `json:"category"`
}

// Template is a downloadable legal document template.
type Template struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// QueryRecord is one saved question/answer pair.
type QueryRecord struct {
	ID        int64     `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

const schema = `
CREATE TABLE IF NOT EXISTS ipc_sections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	section_number TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	applicable_context TEXT NOT NULL,
	punishment TEXT NOT NULL,
	category TEXT NOT NULL,
	keywords TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS legal_templates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	template_name TEXT NOT NULL,
	category TEXT NOT NULL,
	template_content TEXT NOT NULL,
	description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS query_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT NOT NULL,
	response TEXT NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

const sectionColumns = `section_number, title, description, applicable_context, punishment, category`

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (or creates) the database at path, creates the schema and seeds
// sample data when the sections table is empty. Use ":memory:" for tests.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s, err := New(ctx, db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New initializes a Store on an already opened database.
func New(ctx context.Context, db *sql.DB, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{db: db, log: log.Named("store")}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := s.seed(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SearchSections matches q against keywords, section number and title.
func (s *Store) SearchSections(ctx context.Context, q string) ([]Section, error) {
	like := "%" + q + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sectionColumns+`
		FROM ipc_sections
		WHERE keywords LIKE ? OR section_number LIKE ? OR title LIKE ?
		ORDER BY section_number`, like, like, like)
	if err != nil {
		return nil, fmt.Errorf("search sections: %w", err)
	}
	return scanSections(rows)
}

// AllSections returns every section in numeric order.
func (s *Store) AllSections(ctx context.Context) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sectionColumns+`
		FROM ipc_sections
		ORDER BY CAST(section_number AS INTEGER), section_number`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return scanSections(rows)
}

// Section returns the section with the exact number, or ErrNotFound.
func (s *Store) Section(ctx context.Context, number string) (Section, error) {
	var sec Section
	err := s.db.QueryRowContext(ctx, `
		SELECT `+sectionColumns+`
		FROM ipc_sections
		WHERE section_number = ?`, number).
		Scan(&sec.Number, &sec.Title, &sec.Description, &sec.Context, &sec.Punishment, &sec.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return Section{}, fmt.Errorf("section %s: %w", number, ErrNotFound)
	}
	if err != nil {
		return Section{}, fmt.Errorf("get section %s: %w", number, err)
	}
	return sec, nil
}

// Templates returns templates, filtered by category unless it is empty.
func (s *Store) Templates(ctx context.Context, category string) ([]Template, error) {
	query := `SELECT template_name, category, template_content, description FROM legal_templates`
	var args []interface{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.Name, &t.Category, &t.Content, &t.Description); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Categories returns the distinct template categories, sorted.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM legal_templates ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveQuery appends a question and its answer to the history.
func (s *Store) SaveQuery(ctx context.Context, query, response string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO query_history (query, response) VALUES (?, ?)`, query, response); err != nil {
		return fmt.Errorf("save query: %w", err)
	}
	return nil
}

// RecentQueries returns up to limit history entries, newest first.
func (s *Store) RecentQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, response, timestamp
		FROM query_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer rows.Close()

	var out []QueryRecord
	for rows.Next() {
		var r QueryRecord
		if err := rows.Scan(&r.ID, &r.Query, &r.Response, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanSections(rows *sql.Rows) ([]Section, error) {
	defer rows.Close()

	var out []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.Number, &sec.Title, &sec.Description, &sec.Context, &sec.Punishment, &sec.Category); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return out, nil
}
