// Package postgres implements core.Store and core.MessageStore on
// PostgreSQL with the pgvector extension. Vector search uses the cosine
// distance operator; keyword search uses ILIKE substring matching. Both
// exclude expired rows.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/Arephan/supaclaw/core"
)

// Interface compliance (compile-time assertions)
var (
	_ core.Store        = (*Store)(nil)
	_ core.MessageStore = (*Store)(nil)
)

// Config contains PostgreSQL connection settings.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration

	// EmbeddingDims sizes the vector column created by EnsureSchema.
	EmbeddingDims int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          5432,
		Database:      "supaclaw",
		SSLMode:       "disable",
		MaxOpenConns:  25,
		MaxIdleConns:  5,
		ConnLifetime:  5 * time.Minute,
		EmbeddingDims: 1536,
	}
}

// Store is a durable memory + message store backed by PostgreSQL.
type Store struct {
	db  *sql.DB
	cfg *Config
}

// New opens a connection pool and verifies connectivity.
func New(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, cfg: cfg}, nil
}

// NewFromDB wraps an existing connection pool (useful for tests and shared
// pools).
func NewFromDB(db *sql.DB, cfg *Config) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Store{db: db, cfg: cfg}
}

// EnsureSchema creates the memories and messages tables plus the pgvector
// extension if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS memories (
			id          TEXT PRIMARY KEY,
			agent_id    TEXT NOT NULL,
			user_id     TEXT,
			content     TEXT NOT NULL,
			category    TEXT,
			importance  DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			embedding   vector(%d),
			expires_at  TIMESTAMPTZ,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.cfg.EmbeddingDims),
		`CREATE INDEX IF NOT EXISTS memories_agent_idx ON memories (agent_id)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			session_id  TEXT NOT NULL,
			role        TEXT NOT NULL,
			content     TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS messages_session_idx ON messages (session_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// InsertMemory persists a new memory row and returns it with timestamps.
func (s *Store) InsertMemory(ctx context.Context, rec core.MemoryRecord) (core.Memory, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	var embedding interface{}
	if len(rec.Embedding) > 0 {
		embedding = vectorLiteral(rec.Embedding)
	}

	query := `
		INSERT INTO memories (id, agent_id, user_id, content, category, importance, embedding, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7, $8)
		RETURNING created_at, updated_at`

	mem := core.Memory{
		ID:         id,
		AgentID:    rec.AgentID,
		UserID:     rec.UserID,
		Content:    rec.Content,
		Category:   rec.Category,
		Importance: rec.Importance,
		Embedding:  rec.Embedding,
		ExpiresAt:  rec.ExpiresAt,
	}
	err := s.db.QueryRowContext(ctx, query,
		id, rec.AgentID, rec.UserID, rec.Content, rec.Category, rec.Importance, embedding, rec.ExpiresAt,
	).Scan(&mem.CreatedAt, &mem.UpdatedAt)
	if err != nil {
		return core.Memory{}, fmt.Errorf("insert memory: %w", err)
	}
	return mem, nil
}

// DeleteMemory removes a row permanently. Absent ids are a no-op.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

// GetMemories lists matching rows ordered by importance then recency.
func (s *Store) GetMemories(ctx context.Context, f core.Filters, limit int) ([]core.Memory, error) {
	if limit <= 0 {
		return []core.Memory{}, nil
	}
	where, args := filterClause(f, 1)
	query := fmt.Sprintf(`
		SELECT id, agent_id, COALESCE(user_id, ''), content, COALESCE(category, ''),
		       importance, embedding::text, expires_at, created_at, updated_at
		FROM memories
		WHERE %s
		ORDER BY importance DESC, created_at DESC
		LIMIT %d`, where, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// GetMemoryEmbedding returns the stored embedding for id, or
// core.ErrNotFound when the row is absent or the embedding is null.
func (s *Store) GetMemoryEmbedding(ctx context.Context, id string) ([]float32, error) {
	var text sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding::text FROM memories WHERE id = $1`, id,
	).Scan(&text)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	if !text.Valid || text.String == "" {
		return nil, core.ErrNotFound
	}
	return parseVector(text.String)
}

// VectorSearch returns rows with cosine similarity >= minSimilarity ordered
// by similarity descending. Uses the pgvector cosine distance operator.
func (s *Store) VectorSearch(ctx context.Context, vec []float32, f core.Filters, minSimilarity float64, limit int) ([]core.ScoredMemory, error) {
	if limit <= 0 {
		return []core.ScoredMemory{}, nil
	}
	where, args := filterClause(f, 2)
	args = append([]interface{}{vectorLiteral(vec)}, args...)
	query := fmt.Sprintf(`
		SELECT id, agent_id, COALESCE(user_id, ''), content, COALESCE(category, ''),
		       importance, embedding::text, expires_at, created_at, updated_at,
		       1 - (embedding <=> $1::vector) AS similarity
		FROM memories
		WHERE %s AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1::vector) >= %s
		ORDER BY similarity DESC
		LIMIT %d`, where, formatFloat(minSimilarity), limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()
	return scanScored(rows, true)
}

// KeywordSearch returns rows whose content matches the query text with
// ILIKE, ordered by importance then recency. Every hit carries a relevance
// of 1.0; ILIKE has no graded score, so rank position alone differentiates
// candidates and the engine's normalization maps hits to the top of [0,1].
func (s *Store) KeywordSearch(ctx context.Context, text string, f core.Filters, limit int) ([]core.ScoredMemory, error) {
	if limit <= 0 {
		return []core.ScoredMemory{}, nil
	}
	where, args := filterClause(f, 2)
	args = append([]interface{}{"%" + text + "%"}, args...)
	query := fmt.Sprintf(`
		SELECT id, agent_id, COALESCE(user_id, ''), content, COALESCE(category, ''),
		       importance, embedding::text, expires_at, created_at, updated_at
		FROM memories
		WHERE %s AND content ILIKE $1
		ORDER BY importance DESC, created_at DESC
		LIMIT %d`, where, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()
	return scanScored(rows, false)
}

// AppendMessage stores a session message.
func (s *Store) AppendMessage(ctx context.Context, msg core.Message) (core.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, session_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		msg.ID, msg.SessionID, msg.Role, msg.Content,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return core.Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// RecentMessages returns up to limit of the session's most recent messages
// in chronological order, oldest first.
func (s *Store) RecentMessages(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	if limit <= 0 {
		return []core.Message{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM (
			SELECT id, session_id, role, content, created_at
			FROM messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	msgs := []core.Message{}
	for rows.Next() {
		var msg core.Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// filterClause builds the shared WHERE fragment for the filter set starting
// at placeholder index start. Agent-global rows (NULL user_id) always match
// the user filter.
func filterClause(f core.Filters, start int) (string, []interface{}) {
	clauses := []string{fmt.Sprintf("agent_id = $%d", start)}
	args := []interface{}{f.AgentID}
	next := start + 1

	if f.UserID != "" {
		clauses = append(clauses, fmt.Sprintf("(user_id IS NULL OR user_id = $%d)", next))
		args = append(args, f.UserID)
		next++
	}
	if f.Category != "" {
		clauses = append(clauses, fmt.Sprintf("category = $%d", next))
		args = append(args, f.Category)
		next++
	}
	if f.MinImportance > 0 {
		clauses = append(clauses, fmt.Sprintf("importance >= $%d", next))
		args = append(args, f.MinImportance)
	}
	clauses = append(clauses, "(expires_at IS NULL OR expires_at > now())")
	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanMemories(rows rowScanner) ([]core.Memory, error) {
	mems := []core.Memory{}
	for rows.Next() {
		mem, _, err := scanMemoryRow(rows, false)
		if err != nil {
			return nil, err
		}
		mems = append(mems, mem)
	}
	return mems, rows.Err()
}

func scanScored(rows rowScanner, withSimilarity bool) ([]core.ScoredMemory, error) {
	results := []core.ScoredMemory{}
	for rows.Next() {
		mem, score, err := scanMemoryRow(rows, withSimilarity)
		if err != nil {
			return nil, err
		}
		if !withSimilarity {
			score = 1.0
		}
		results = append(results, core.ScoredMemory{Memory: mem, Score: score})
	}
	return results, rows.Err()
}

func scanMemoryRow(rows rowScanner, withSimilarity bool) (core.Memory, float64, error) {
	var (
		mem       core.Memory
		embedding sql.NullString
		expiresAt sql.NullTime
		score     float64
	)
	dest := []interface{}{
		&mem.ID, &mem.AgentID, &mem.UserID, &mem.Content, &mem.Category,
		&mem.Importance, &embedding, &expiresAt, &mem.CreatedAt, &mem.UpdatedAt,
	}
	if withSimilarity {
		dest = append(dest, &score)
	}
	if err := rows.Scan(dest...); err != nil {
		return core.Memory{}, 0, fmt.Errorf("scan memory: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		mem.ExpiresAt = &t
	}
	if embedding.Valid && embedding.String != "" {
		vec, err := parseVector(embedding.String)
		if err != nil {
			return core.Memory{}, 0, err
		}
		mem.Embedding = vec
	}
	return mem, score, nil
}

// vectorLiteral renders a float32 slice in pgvector's text format,
// e.g. "[0.1,0.2,0.3]".
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// parseVector parses pgvector's text format back into a float32 slice.
func parseVector(text string) ([]float32, error) {
	trimmed := strings.Trim(strings.TrimSpace(text), "[]")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector element %d: %w", i, err)
		}
		vec[i] = float32(v)
	}
	return vec, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
