package store

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"
	_ "modernc.org/sqlite"
)

// On-disk layout inside Config.Dir.
const (
	vectorFile  = "vectors.hnsw"
	entriesFile = "entries.db"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	chunk_id  TEXT PRIMARY KEY,
	text      TEXT NOT NULL,
	source_id TEXT NOT NULL,
	title     TEXT NOT NULL,
	page      INTEGER NOT NULL,
	url       TEXT NOT NULL,
	kind      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(source_id);
`

// Store is the persistent knowledge store: an HNSW graph for vectors
// plus a SQLite database for text and provenance metadata.
type Store struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	db     *sql.DB
	config Config

	// ID mapping (chunk ID <-> internal graph key)
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	closed bool
}

// storeMetadata holds ID mappings for persistence.
type storeMetadata struct {
	IDMap      map[string]uint64
	NextKey    uint64
	Dimensions int
}

// Open opens or creates a store in cfg.Dir.
func Open(cfg Config) (*Store, error) {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	dsn := filepath.Join(cfg.Dir, entriesFile) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open entries database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create entries schema: %w", err)
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	s := &Store{
		graph:  graph,
		db:     db,
		config: cfg,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}

	// Load a previously persisted graph if present
	vectorPath := filepath.Join(cfg.Dir, vectorFile)
	if _, err := os.Stat(vectorPath); err == nil {
		if err := s.load(vectorPath); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if s.config.Dimensions <= 0 {
		_ = db.Close()
		return nil, fmt.Errorf("store dimensions not set and no persisted index found")
	}

	return s, nil
}

// Upsert inserts or overwrites entries by chunk ID in one batch.
// Re-ingesting unchanged content keeps the entry count stable.
func (s *Store) Upsert(ctx context.Context, entries []KnowledgeEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	// Validate dimensions before touching anything
	for _, e := range entries {
		if len(e.Embedding) != s.config.Dimensions {
			return ErrDimensionMismatch{
				Expected: s.config.Dimensions,
				Got:      len(e.Embedding),
			}
		}
		if e.ChunkID == "" {
			return fmt.Errorf("entry has empty chunk ID")
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO entries (chunk_id, text, source_id, title, page, url, kind)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.ChunkID, e.Text, e.SourceID, e.Title, e.Page, e.URL, string(e.Kind)); err != nil {
			return fmt.Errorf("upsert entry %s: %w", e.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	// Update the graph after the metadata commit
	for _, e := range entries {
		// Existing IDs use lazy deletion: orphan the old key instead of
		// removing the node, which avoids graph breakage on last-node
		// deletes in coder/hnsw
		if existingKey, exists := s.idMap[e.ChunkID]; exists {
			delete(s.keyMap, existingKey)
			delete(s.idMap, e.ChunkID)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(e.Embedding))
		copy(vec, e.Embedding)
		normalizeVectorInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))

		s.idMap[e.ChunkID] = key
		s.keyMap[key] = e.ChunkID
	}

	return nil
}

// Query finds the k nearest entries to the query vector, ordered by
// ascending distance. An empty store yields an empty slice, never an error.
func (s *Store) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if k <= 0 {
		return []Hit{}, nil
	}
	if len(vector) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{
			Expected: s.config.Dimensions,
			Got:      len(vector),
		}
	}
	if s.graph.Len() == 0 {
		return []Hit{}, nil
	}

	normalized := make([]float32, len(vector))
	copy(normalized, vector)
	normalizeVectorInPlace(normalized)

	// Overfetch when filtering so post-filter results can still fill k
	fetch := k
	if filter != (Filter{}) {
		fetch = k * 4
		if fetch < 20 {
			fetch = 20
		}
	}
	// Lazy deletion leaves orphaned nodes in the graph. Re-upserted
	// content carries identical vectors, so orphans tie the live nodes
	// on distance and would eat the fetch budget; widen by their count
	fetch += s.graph.Len() - len(s.keyMap)

	nodes := s.graph.Search(normalized, fetch)

	hits := make([]Hit, 0, len(nodes))
	for _, node := range nodes {
		id, exists := s.keyMap[node.Key]
		if !exists {
			// Lazy-deleted orphan
			continue
		}

		meta, text, err := s.lookupEntry(ctx, id)
		if err != nil {
			slog.Warn("entry metadata missing for indexed vector",
				slog.String("chunk_id", id),
				slog.String("error", err.Error()))
			continue
		}

		if filter.SourceID != "" && meta.SourceID != filter.SourceID {
			continue
		}
		if filter.Kind != "" && meta.Kind != filter.Kind {
			continue
		}

		hits = append(hits, Hit{
			ChunkID:  meta.ChunkID,
			Text:     text,
			SourceID: meta.SourceID,
			Title:    meta.Title,
			Page:     meta.Page,
			URL:      meta.URL,
			Kind:     meta.Kind,
			Distance: s.graph.Distance(normalized, node.Value),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if len(hits) > k {
		hits = hits[:k]
	}

	return hits, nil
}

// lookupEntry fetches one entry's metadata and text by chunk ID.
func (s *Store) lookupEntry(ctx context.Context, chunkID string) (EntryMeta, string, error) {
	var meta EntryMeta
	var text, kind string

	row := s.db.QueryRowContext(ctx,
		`SELECT chunk_id, text, source_id, title, page, url, kind FROM entries WHERE chunk_id = ?`,
		chunkID)
	if err := row.Scan(&meta.ChunkID, &text, &meta.SourceID, &meta.Title, &meta.Page, &meta.URL, &kind); err != nil {
		return EntryMeta{}, "", err
	}
	meta.Kind = Kind(kind)
	return meta, text, nil
}

// GetBySource returns metadata for up to limit entries of one source.
// Used as the durable fallback path for reference resolution.
func (s *Store) GetBySource(ctx context.Context, sourceID string, limit int) ([]EntryMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if limit <= 0 {
		limit = 1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id, source_id, title, page, url, kind FROM entries WHERE source_id = ? LIMIT ?`,
		sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query by source: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var metas []EntryMeta
	for rows.Next() {
		var meta EntryMeta
		var kind string
		if err := rows.Scan(&meta.ChunkID, &meta.SourceID, &meta.Title, &meta.Page, &meta.URL, &kind); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		meta.Kind = Kind(kind)
		metas = append(metas, meta)
	}

	return metas, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// Save persists the vector index to disk using temp file + rename.
// The entries database persists itself.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	path := filepath.Join(s.config.Dir, vectorFile)

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}

	if err := s.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return s.saveMetadata(path + ".meta")
}

// saveMetadata saves ID mappings to a gob file.
func (s *Store) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}

	meta := storeMetadata{
		IDMap:      s.idMap,
		NextKey:    s.nextKey,
		Dimensions: s.config.Dimensions,
	}

	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode store metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close metadata file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// load restores the graph and ID mappings from disk.
func (s *Store) load(path string) error {
	metaFile, err := os.Open(path + ".meta")
	if err != nil {
		return fmt.Errorf("open store metadata: %w", err)
	}
	defer func() { _ = metaFile.Close() }()

	var meta storeMetadata
	if err := gob.NewDecoder(metaFile).Decode(&meta); err != nil {
		return fmt.Errorf("decode store metadata: %w", err)
	}

	if s.config.Dimensions == 0 {
		s.config.Dimensions = meta.Dimensions
	} else if meta.Dimensions != s.config.Dimensions {
		return fmt.Errorf("persisted index has %d dimensions, config wants %d",
			meta.Dimensions, s.config.Dimensions)
	}

	s.idMap = meta.IDMap
	s.keyMap = make(map[uint64]string, len(meta.IDMap))
	s.nextKey = meta.NextKey
	for id, key := range s.idMap {
		s.keyMap[key] = id
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// bufio.Reader because coder/hnsw Import requires io.ByteReader
	if err := s.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	return nil
}

// Close saves the index and releases resources.
func (s *Store) Close() error {
	if err := s.Save(); err != nil {
		slog.Warn("failed to save vector index on close", slog.String("error", err.Error()))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil

	return s.db.Close()
}

// normalizeVectorInPlace normalizes a vector to unit length in place.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}
