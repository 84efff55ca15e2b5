// Package sqlite provides an ArtifactStore backed by a local SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/raildock/raildoc/internal/core/domain"
	"github.com/raildock/raildoc/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id            TEXT PRIMARY KEY,
	category      TEXT NOT NULL,
	category_name TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	total_count   INTEGER NOT NULL,
	run_metadata  TEXT,
	items         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_category ON artifacts(category, created_at DESC);
`

// Store persists batch artifacts in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite artifact store in dataDir. If dataDir is
// empty, defaults to ~/.raildoc/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".raildoc", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "artifacts.db")

	// WAL mode for better concurrency with the CLI's short-lived runs.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveArtifact stores an artifact and its items. Saving an existing ID
// replaces it.
func (s *Store) SaveArtifact(ctx context.Context, artifact *domain.BatchArtifact) error {
	items, err := json.Marshal(artifact.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	var runMetadata []byte
	if artifact.RunMetadata != nil {
		runMetadata, err = json.Marshal(artifact.RunMetadata)
		if err != nil {
			return fmt.Errorf("encode run metadata: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO artifacts
			(id, category, category_name, created_at, total_count, run_metadata, items)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		artifact.ID,
		string(artifact.Category),
		artifact.CategoryName,
		artifact.CreatedAt.UTC().Format(time.RFC3339Nano),
		artifact.TotalCount,
		nullableText(runMetadata),
		string(items),
	)
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", artifact.ID, err)
	}
	return nil
}

// GetArtifact retrieves an artifact by ID.
func (s *Store) GetArtifact(ctx context.Context, id string) (*domain.BatchArtifact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, category_name, created_at, total_count, run_metadata, items
		FROM artifacts WHERE id = ?`, id)

	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: artifact %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s: %w", id, err)
	}
	return artifact, nil
}

// ListArtifacts returns artifacts for a category, newest first. An
// empty category lists all artifacts.
func (s *Store) ListArtifacts(ctx context.Context, category domain.Category) ([]domain.BatchArtifact, error) {
	query := `
		SELECT id, category, category_name, created_at, total_count, run_metadata, items
		FROM artifacts`
	args := []any{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, string(category))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []domain.BatchArtifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, *artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return artifacts, nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*domain.BatchArtifact, error) {
	var (
		artifact    domain.BatchArtifact
		category    string
		createdAt   string
		runMetadata sql.NullString
		items       string
	)

	err := row.Scan(&artifact.ID, &category, &artifact.CategoryName,
		&createdAt, &artifact.TotalCount, &runMetadata, &items)
	if err != nil {
		return nil, err
	}

	artifact.Category = domain.Category(category)

	artifact.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	if runMetadata.Valid && runMetadata.String != "" {
		if err := json.Unmarshal([]byte(runMetadata.String), &artifact.RunMetadata); err != nil {
			return nil, fmt.Errorf("decode run metadata: %w", err)
		}
	}

	if err := json.Unmarshal([]byte(items), &artifact.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	return &artifact, nil
}

func nullableText(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
