package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sales-dashboard/dataset"
	apperrors "sales-dashboard/errors"
	"sales-dashboard/history"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps the current dataset and the conversation in Postgres.
// It satisfies both dataset.Persister and history.Store.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s := &PostgresStore{DB: db}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the required tables if they do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS current_dataset (
            id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
            content TEXT NOT NULL,
            fingerprint TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS messages (
            seq BIGSERIAL PRIMARY KEY,
            id UUID UNIQUE NOT NULL,
            role TEXT NOT NULL,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// Save replaces the stored dataset with f, encoded as CSV.
func (s *PostgresStore) Save(ctx context.Context, f *dataset.Frame) error {
	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	query := `
		INSERT INTO current_dataset (id, content, fingerprint, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, fingerprint = EXCLUDED.fingerprint, updated_at = NOW()
	`
	if _, err := s.DB.ExecContext(ctx, query, buf.String(), f.Fingerprint()); err != nil {
		return fmt.Errorf("failed to store dataset: %w", err)
	}
	return nil
}

// Load returns the stored dataset or errors.ErrNotFound.
func (s *PostgresStore) Load(ctx context.Context) (*dataset.Frame, error) {
	var content string
	err := s.DB.QueryRowContext(ctx, `SELECT content FROM current_dataset WHERE id = 1`).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return dataset.ReadCSV(strings.NewReader(content))
}

func (s *PostgresStore) Append(ctx context.Context, t history.Turn) error {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		id = uuid.New()
	}
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `INSERT INTO messages (id, role, content, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.DB.ExecContext(ctx, query, id, t.Role, t.Content, createdAt); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

func (s *PostgresStore) LastN(ctx context.Context, n int) ([]history.Turn, error) {
	if n <= 0 {
		return []history.Turn{}, nil
	}
	query := `
		SELECT id, role, content, created_at FROM (
			SELECT seq, id, role, content, created_at FROM messages
			ORDER BY seq DESC LIMIT $1
		) recent ORDER BY seq ASC
	`
	return s.queryTurns(ctx, query, n)
}

func (s *PostgresStore) All(ctx context.Context) ([]history.Turn, error) {
	return s.queryTurns(ctx, `SELECT id, role, content, created_at FROM messages ORDER BY seq ASC`)
}

func (s *PostgresStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

func (s *PostgresStore) queryTurns(ctx context.Context, query string, args ...any) ([]history.Turn, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []history.Turn{}
	for rows.Next() {
		var t history.Turn
		var id uuid.UUID
		if err := rows.Scan(&id, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.ID = id.String()
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return turns, nil
}
