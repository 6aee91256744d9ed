package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-index/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-index/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// maxParams bounds the number of ids bound in one IN (...) clause.
const maxParams = 500

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-index/data/vectors.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-index", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// WAL for concurrent readers; foreign keys per connection so cascades apply on every pooled conn
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
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
		// "001_vectors.up.sql" -> 1
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
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// CreateCollection creates or replaces a collection.
func (s *Store) CreateCollection(ctx context.Context, name string, dim int, distance domain.Distance) error {
	if name == "" || dim <= 0 {
		return fmt.Errorf("%w: collection %q with dimension %d", domain.ErrInvalidInput, name, dim)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM points WHERE collection = ?", name); err != nil {
		return fmt.Errorf("clearing points: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO collections (name, dimension, distance) VALUES (?, ?, ?)",
		name, dim, string(distance),
	); err != nil {
		return fmt.Errorf("inserting collection: %w", err)
	}
	return tx.Commit()
}

// CollectionInfo describes a collection.
func (s *Store) CollectionInfo(ctx context.Context, name string) (*domain.CollectionInfo, error) {
	info := &domain.CollectionInfo{Name: name}
	var distance string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.dimension, c.distance, (SELECT COUNT(*) FROM points p WHERE p.collection = c.name)
		FROM collections c WHERE c.name = ?`, name,
	).Scan(&info.Dimension, &distance, &info.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	info.Distance = domain.Distance(distance)
	return info, nil
}

// DeleteCollection removes a collection and its points.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM points WHERE collection = ?", name); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return tx.Commit()
}

// Upsert inserts or replaces points in one transaction.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.Point) error {
	dim, err := s.dimension(ctx, collection)
	if err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != dim {
			return &domain.DimensionMismatchError{Collection: collection, Want: dim, Got: len(p.Vector)}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO points (collection, id, content, vector, norm)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			content = excluded.content,
			vector = excluded.vector,
			norm = excluded.norm
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, collection, p.ID, p.Content, vecmath.Encode(p.Vector), vecmath.Norm(p.Vector)); err != nil {
			return fmt.Errorf("upserting point %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// UpdateVectors replaces the vector of an existing point.
func (s *Store) UpdateVectors(ctx context.Context, collection string, id int64, vector []float32) error {
	dim, err := s.dimension(ctx, collection)
	if err != nil {
		return err
	}
	if len(vector) != dim {
		return &domain.DimensionMismatchError{Collection: collection, Want: dim, Got: len(vector)}
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE points SET vector = ?, norm = ? WHERE collection = ? AND id = ?",
		vecmath.Encode(vector), vecmath.Norm(vector), collection, id,
	)
	if err != nil {
		return fmt.Errorf("updating vector: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("point %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes points by id.
func (s *Store) Delete(ctx context.Context, collection string, ids []int64) error {
	if _, err := s.dimension(ctx, collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, chunk := range chunkIDs(ids) {
		args := append([]any{collection}, idArgs(chunk)...)
		query := "DELETE FROM points WHERE collection = ? AND id IN (" + placeholders(len(chunk)) + ")"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deleting points: %w", err)
		}
	}
	return tx.Commit()
}

// Search scans the collection and returns the best cosine matches.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int, threshold *float64) ([]domain.ScoredPoint, error) {
	dim, err := s.dimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, &domain.DimensionMismatchError{Collection: collection, Want: dim, Got: len(vector)}
	}

	qnorm := vecmath.Norm(vector)
	if qnorm == 0 {
		return []domain.ScoredPoint{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, vector, norm FROM points WHERE collection = ? AND norm > 0", collection)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var hits []domain.ScoredPoint
	for rows.Next() {
		var (
			id      int64
			content string
			blob    []byte
			norm    float64
		)
		if err := rows.Scan(&id, &content, &blob, &norm); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		vec, err := vecmath.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding point %d: %w", id, err)
		}
		score := vecmath.CosineNorms(vector, vec, qnorm, norm)
		if !vecmath.Passes(score, threshold) {
			continue
		}
		hits = append(hits, domain.ScoredPoint{ID: id, Score: score, Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}
	if hits == nil {
		hits = []domain.ScoredPoint{}
	}
	return vecmath.Rank(hits, limit), nil
}

// Retrieve returns the points that exist among ids, in request order.
func (s *Store) Retrieve(ctx context.Context, collection string, ids []int64, withVectors bool) ([]domain.Point, error) {
	if _, err := s.dimension(ctx, collection); err != nil {
		return nil, err
	}

	found := make(map[int64]domain.Point, len(ids))
	for _, chunk := range chunkIDs(ids) {
		args := append([]any{collection}, idArgs(chunk)...)
		query := "SELECT id, content, vector FROM points WHERE collection = ? AND id IN (" + placeholders(len(chunk)) + ")"
		if err := s.collect(ctx, query, args, true, withVectors, func(p domain.Point) {
			found[p.ID] = p
		}); err != nil {
			return nil, err
		}
	}

	out := make([]domain.Point, 0, len(found))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
			delete(found, id)
		}
	}
	return out, nil
}

// Scroll pages through the collection by id. The cursor is the id of the
// first point of the next page.
func (s *Store) Scroll(ctx context.Context, collection string, req domain.ScrollRequest) (*domain.ScrollPage, error) {
	if _, err := s.dimension(ctx, collection); err != nil {
		return nil, err
	}

	var from int64
	if req.Cursor != "" {
		var err error
		from, err = strconv.ParseInt(req.Cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cursor %q", domain.ErrInvalidInput, req.Cursor)
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultScrollPageSize
	}

	page := &domain.ScrollPage{Points: make([]domain.Point, 0, limit)}
	query := "SELECT id, content, vector FROM points WHERE collection = ? AND id >= ? ORDER BY id LIMIT ?"
	err := s.collect(ctx, query, []any{collection, from, limit + 1}, req.WithPayload, req.WithVectors, func(p domain.Point) {
		if len(page.Points) == limit {
			page.Next = strconv.FormatInt(p.ID, 10)
			return
		}
		page.Points = append(page.Points, p)
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// collect runs a point query and hands each row to fn.
func (s *Store) collect(ctx context.Context, query string, args []any, withPayload, withVectors bool, fn func(domain.Point)) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p       domain.Point
			content string
			blob    []byte
		)
		if err := rows.Scan(&p.ID, &content, &blob); err != nil {
			return fmt.Errorf("scanning point: %w", err)
		}
		if withPayload {
			p.Content = content
		}
		if withVectors {
			if p.Vector, err = vecmath.Decode(blob); err != nil {
				return fmt.Errorf("decoding point %d: %w", p.ID, err)
			}
		}
		fn(p)
	}
	return rows.Err()
}

// dimension returns the dimension of a collection.
func (s *Store) dimension(ctx context.Context, collection string) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx, "SELECT dimension FROM collections WHERE name = ?", collection).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, collection)
	}
	if err != nil {
		return 0, fmt.Errorf("querying collection: %w", err)
	}
	return dim, nil
}

func chunkIDs(ids []int64) [][]int64 {
	var chunks [][]int64
	for start := 0; start < len(ids); start += maxParams {
		chunks = append(chunks, ids[start:min(start+maxParams, len(ids))])
	}
	return chunks
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
