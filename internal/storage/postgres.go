package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/framesight/framesight/internal/embeddings"
	"github.com/framesight/framesight/internal/knowledge"
	"github.com/framesight/framesight/internal/models"
)

// PostgresConfig holds connection details for PostgreSQL.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func (c PostgresConfig) connString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		c.User, c.Password, c.Host, c.Port, c.DBName,
	)
}

// PostgresStore persists watch results and the knowledge snapshot in
// PostgreSQL, with a pgvector embedding per watched video for similarity
// search.
type PostgresStore struct {
	pool       *pgxpool.Pool
	embeddings *embeddings.Service
}

// NewPostgresStore connects, verifies the connection, and wires an
// embedding service for summary vectors.
func NewPostgresStore(ctx context.Context, config PostgresConfig) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, config.connString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{
		pool:       pool,
		embeddings: embeddings.NewService(4),
	}, nil
}

// Close releases the pool and the embedding workers.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.embeddings != nil {
		s.embeddings.Close()
	}
}

// embed requests a vector through the worker pool so repeated content
// hits the cache. A full queue degrades to an inline computation rather
// than dropping the write.
func (s *PostgresStore) embed(ctx context.Context, content string) ([]float32, error) {
	select {
	case res := <-s.embeddings.GetEmbedding(content):
		if res.Error != nil {
			return embeddings.Embed(content), nil
		}
		return res.Embedding, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SaveResult stores one watch result with its summary embedding.
func (s *PostgresStore) SaveResult(ctx context.Context, result models.VideoComprehensionResult) error {
	embedding, err := s.embed(ctx, result.VisualSummary)
	if err != nil {
		return fmt.Errorf("embedding summary: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO watches
        (video_id, source, duration, frames_analyzed, scene_count,
         object_count, text_instances, motion_events, comprehension_score,
         visual_summary, embedding, watched_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (video_id) DO NOTHING`,
		result.VideoID, result.Source, result.Duration, result.FramesAnalyzed,
		len(result.Scenes), len(result.ObjectsSeen), len(result.TextFound),
		len(result.MotionEvents), result.ComprehensionScore,
		result.VisualSummary, pgvector.NewVector(embedding), result.WatchedAt)
	if err != nil {
		return fmt.Errorf("failed to store watch result: %w", err)
	}
	return nil
}

// SearchSimilarVideos ranks watched videos by summary similarity to the
// query text.
func (s *PostgresStore) SearchSimilarVideos(ctx context.Context, query string, limit int) ([]models.VideoSearchResult, error) {
	queryEmbedding, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT video_id, source, visual_summary,
        1 - (embedding <=> $1) AS similarity
        FROM watches
        ORDER BY embedding <=> $1
        LIMIT $2`,
		pgvector.NewVector(queryEmbedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar videos: %w", err)
	}
	defer rows.Close()

	var results []models.VideoSearchResult
	for rows.Next() {
		var r models.VideoSearchResult
		if err := rows.Scan(&r.VideoID, &r.Source, &r.Summary, &r.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search results: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Load implements knowledge.Persister over the snapshots table.
func (s *PostgresStore) Load() (knowledge.Snapshot, bool, error) {
	ctx := context.Background()

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM knowledge_snapshots ORDER BY saved_at DESC LIMIT 1`).Scan(&data)
	if err == pgx.ErrNoRows {
		return knowledge.Snapshot{}, false, nil
	}
	if err != nil {
		return knowledge.Snapshot{}, false, fmt.Errorf("loading snapshot: %w", err)
	}

	var snap knowledge.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return knowledge.Snapshot{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// Save implements knowledge.Persister: snapshots are append-only, Load
// reads the latest.
func (s *PostgresStore) Save(snap knowledge.Snapshot) error {
	ctx := context.Background()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO knowledge_snapshots (data, saved_at) VALUES ($1, $2)`,
		data, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// InitSchema creates the database schema if it doesn't exist.
func InitSchema(ctx context.Context, config PostgresConfig) error {
	conn, err := pgx.Connect(ctx, config.connString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for vector extension: %w", err)
	}
	if !exists {
		if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
	}

	_, err = conn.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS watches (
            id SERIAL PRIMARY KEY,
            video_id TEXT NOT NULL,
            source TEXT NOT NULL,
            duration DOUBLE PRECISION NOT NULL,
            frames_analyzed INTEGER NOT NULL,
            scene_count INTEGER NOT NULL,
            object_count INTEGER NOT NULL,
            text_instances INTEGER NOT NULL,
            motion_events INTEGER NOT NULL,
            comprehension_score DOUBLE PRECISION NOT NULL,
            visual_summary TEXT NOT NULL,
            embedding vector(%d),
            watched_at TIMESTAMPTZ NOT NULL,
            UNIQUE(video_id)
        );

        CREATE TABLE IF NOT EXISTS knowledge_snapshots (
            id SERIAL PRIMARY KEY,
            data JSONB NOT NULL,
            saved_at TIMESTAMPTZ NOT NULL
        );
    `, embeddings.Dimensions))
	if err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	_, err = conn.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS idx_watches_watched_at ON watches(watched_at);
        CREATE INDEX IF NOT EXISTS idx_watches_embedding ON watches USING ivfflat (embedding vector_l2_ops) WITH (lists = 100);
    `)
	if err != nil {
		return fmt.Errorf("failed to create database indexes: %w", err)
	}

	return nil
}
