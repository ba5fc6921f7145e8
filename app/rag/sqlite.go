package rag

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

const inMemoryDSN = ":memory:"

type SQLiteConfig struct {
	Path     string  `yaml:"path"`
	MinScore float32 `yaml:"min_score,omitempty"`
}

var _ Store = &SQLiteStore{}

// SQLiteStore is an embedded vector store. Similarity is computed by brute
// force over a partition; rows keep insertion order, which breaks ties.
type SQLiteStore struct {
	db       *sql.DB
	minScore float32
}

func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		dbPath = filepath.Join("data", "vectors.db")
	}
	if dbPath != inMemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if dbPath == inMemoryDSN {
		// every new connection would see its own empty database
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS partitions (
            name TEXT NOT NULL PRIMARY KEY,
            dimension INTEGER NOT NULL
        );
        CREATE TABLE IF NOT EXISTS documents (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            partition TEXT NOT NULL REFERENCES partitions (name),
            id TEXT NOT NULL,
            content TEXT NOT NULL,
            metadata TEXT NULL,
            embedding BLOB NOT NULL,
            UNIQUE (partition, id)
        );
        CREATE INDEX IF NOT EXISTS idx_documents_partition ON documents (partition);
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db, minScore: cfg.MinScore}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) HasPartition(ctx context.Context, partition string) (bool, error) {
	_, err := s.dimension(ctx, partition)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) CreatePartition(ctx context.Context, partition string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO partitions (name, dimension) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`,
		partition, dimension,
	)
	if err != nil {
		return fmt.Errorf("create partition %s: %w", partition, err)
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, partition string, docs []Document) error {
	dim, err := s.dimension(ctx, partition)
	if err != nil {
		return fmt.Errorf("partition %s: %w", partition, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range docs {
		if len(d.Vector) != dim {
			return fmt.Errorf("document %s: vector dimension %d, partition expects %d", d.ID, len(d.Vector), dim)
		}
		var metadata []byte
		if len(d.Metadata) > 0 {
			if metadata, err = json.Marshal(d.Metadata); err != nil {
				return fmt.Errorf("document %s metadata: %w", d.ID, err)
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (partition, id, content, metadata, embedding)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (partition, id) DO UPDATE SET
			     content = excluded.content,
			     metadata = excluded.metadata,
			     embedding = excluded.embedding`,
			partition, d.ID, d.Content, nullableText(metadata), encodeVector(d.Vector),
		)
		if err != nil {
			return fmt.Errorf("upsert document %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Query(ctx context.Context, partition string, vector []float32, k int) ([]Document, error) {
	dim, err := s.dimension(ctx, partition)
	if err != nil {
		return nil, fmt.Errorf("partition %s: %w", partition, err)
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("query dimension %d, partition %s expects %d", len(vector), partition, dim)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, metadata, embedding
		 FROM documents
		 WHERE partition = ?
		 ORDER BY seq ASC`,
		partition,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			doc      Document
			metadata sql.NullString
			blob     []byte
		)
		if err = rows.Scan(&doc.ID, &doc.Content, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if metadata.Valid {
			if err = json.Unmarshal([]byte(metadata.String), &doc.Metadata); err != nil {
				log.Printf("⚠️ Ignoring malformed metadata for document %s: %v", doc.ID, err)
			}
		}
		doc.Vector = decodeVector(blob)
		doc.Score = cosineSimilarity(vector, doc.Vector)
		if s.minScore > 0 && doc.Score < s.minScore {
			continue
		}
		out = append(out, doc)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (s *SQLiteStore) dimension(ctx context.Context, partition string) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx,
		`SELECT dimension FROM partitions WHERE name = ?`, partition,
	).Scan(&dim)
	return dim, err
}

func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
