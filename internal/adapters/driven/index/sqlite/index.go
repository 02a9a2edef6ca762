// Package sqlite provides a persistent VectorIndex backed by SQLite.
// Entries live in a single table keyed by (collection, id); similarity
// search is a brute-force cosine scan over the collection, which is
// exact and fast enough for study-document corpora.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/studykit/studyrag-cli/internal/adapters/driven/index/sqlite/migrations"
	"github.com/studykit/studyrag-cli/internal/core/domain"
	"github.com/studykit/studyrag-cli/internal/core/ports/driven"
	"github.com/studykit/studyrag-cli/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultCollection = "study_documents"
	DefaultDimensions = 768

	// DefaultMaxResults is the hard cap on query result length,
	// regardless of the requested k.
	DefaultMaxResults = 20
)

// Config holds configuration for the SQLite vector index.
type Config struct {
	// DataDir is where the database file lives. Empty defaults to
	// ~/.studyrag/data.
	DataDir string

	// Collection names the entry namespace (default: study_documents).
	Collection string

	// Dimensions is the vector size accepted by the collection.
	Dimensions int

	// MaxResults caps query result length (default: 20).
	MaxResults int
}

// Index is a SQLite-backed vector collection.
type Index struct {
	db         *sql.DB
	path       string
	collection string
	dimensions int
	maxResults int

	// mu serialises structural mutations (upsert, delete, reset) so
	// concurrent writers cannot interleave half-applied batches.
	mu sync.Mutex
}

// New opens (or creates) the index database and runs migrations.
func New(cfg Config) (*Index, error) {
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".studyrag", "data")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "index.db")

	// WAL mode lets reads proceed concurrently with writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{
		db:         db,
		path:       dbPath,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		maxResults: cfg.MaxResults,
	}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return idx, nil
}

// migrate runs all pending migrations.
func (i *Index) migrate(fsys embed.FS) error {
	_, err := i.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := i.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := i.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := i.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert inserts or replaces entries by ID in a single transaction.
// Replaced entries keep their original insertion order.
func (i *Index) Upsert(ctx context.Context, entries []driven.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if len(e.Vector) != i.dimensions {
			return fmt.Errorf("%w: entry %s has %d dimensions, collection expects %d",
				domain.ErrInvalidInput, e.ID, len(e.Vector), i.dimensions)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", domain.ErrIndex, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var nextSeq int64
	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM entries WHERE collection = ?", i.collection)
	if err := row.Scan(&nextSeq); err != nil {
		return fmt.Errorf("%w: next seq: %v", domain.ErrIndex, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (collection, id, seq, vector, content, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			vector = excluded.vector,
			content = excluded.content,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %v", domain.ErrIndex, err)
	}
	defer stmt.Close()

	for _, e := range entries {
		metadataJSON, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("%w: marshal metadata for %s: %v", domain.ErrIndex, e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, i.collection, e.ID, nextSeq,
			float32SliceToBytes(e.Vector), e.Content, string(metadataJSON)); err != nil {
			return fmt.Errorf("%w: upsert %s: %v", domain.ErrIndex, e.ID, err)
		}
		nextSeq++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %v", domain.ErrIndex, err)
	}

	logger.Debug("Upserted %d entries into collection %s", len(entries), i.collection)
	return nil
}

// scored pairs a hit with its insertion order for tie-breaking.
type scored struct {
	chunk domain.RelevantChunk
	seq   int64
}

// Query returns up to k nearest entries by cosine distance, ascending.
// Equal distances resolve to the earlier-inserted entry.
func (i *Index) Query(ctx context.Context, vector []float32, k int) ([]domain.RelevantChunk, error) {
	if len(vector) != i.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection expects %d",
			domain.ErrInvalidInput, len(vector), i.dimensions)
	}
	if k <= 0 {
		return []domain.RelevantChunk{}, nil
	}
	if k > i.maxResults {
		k = i.maxResults
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT seq, vector, content, metadata
		FROM entries
		WHERE collection = ?
		ORDER BY seq
	`, i.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %v", domain.ErrIndex, err)
	}
	defer rows.Close()

	var hits []scored
	for rows.Next() {
		var (
			seq          int64
			vectorBlob   []byte
			content      string
			metadataJSON string
		)
		if err := rows.Scan(&seq, &vectorBlob, &content, &metadataJSON); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", domain.ErrIndex, err)
		}

		var metadata map[string]any
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, fmt.Errorf("%w: corrupt metadata: %v", domain.ErrIndex, err)
		}

		hits = append(hits, scored{
			chunk: domain.RelevantChunk{
				Content:  content,
				Metadata: metadata,
				Distance: cosineDistance(vector, bytesToFloat32Slice(vectorBlob)),
			},
			seq: seq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate entries: %v", domain.ErrIndex, err)
	}

	// Rows arrive in seq order; a stable sort keeps that order for ties.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].chunk.Distance < hits[b].chunk.Distance
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	results := make([]domain.RelevantChunk, len(hits))
	for idx, h := range hits {
		results[idx] = h.chunk
	}
	return results, nil
}

// Delete removes all entries whose metadata matches the filter and
// returns the count removed.
func (i *Index) Delete(ctx context.Context, filter map[string]any) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: empty delete filter", domain.ErrInvalidInput)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin delete: %v", domain.ErrIndex, err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx,
		"SELECT id, metadata FROM entries WHERE collection = ?", i.collection)
	if err != nil {
		return 0, fmt.Errorf("%w: scan for delete: %v", domain.ErrIndex, err)
	}

	var ids []string
	for rows.Next() {
		var id, metadataJSON string
		if err := rows.Scan(&id, &metadataJSON); err != nil {
			rows.Close()
			return 0, fmt.Errorf("%w: scan entry: %v", domain.ErrIndex, err)
		}
		var metadata map[string]any
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			rows.Close()
			return 0, fmt.Errorf("%w: corrupt metadata: %v", domain.ErrIndex, err)
		}
		if metadataMatches(metadata, filter) {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("%w: iterate entries: %v", domain.ErrIndex, err)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM entries WHERE collection = ? AND id = ?", i.collection, id); err != nil {
			return 0, fmt.Errorf("%w: delete %s: %v", domain.ErrIndex, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit delete: %v", domain.ErrIndex, err)
	}

	logger.Debug("Deleted %d entries from collection %s", len(ids), i.collection)
	return len(ids), nil
}

// Count returns the number of entries in the collection.
func (i *Index) Count(ctx context.Context) (int, error) {
	var count int
	row := i.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE collection = ?", i.collection)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count entries: %v", domain.ErrIndex, err)
	}
	return count, nil
}

// Reset atomically drops all entries, keeping the collection
// configuration.
func (i *Index) Reset(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, err := i.db.ExecContext(ctx,
		"DELETE FROM entries WHERE collection = ?", i.collection); err != nil {
		return fmt.Errorf("%w: reset collection: %v", domain.ErrIndex, err)
	}
	logger.Info("Reset collection %s", i.collection)
	return nil
}

// Collection returns the collection name.
func (i *Index) Collection() string {
	return i.collection
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// metadataMatches reports whether every filter key equals the
// corresponding metadata value. Values are compared by their JSON
// string form so numeric types round-tripped through storage still
// match.
func metadataMatches(metadata, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}
