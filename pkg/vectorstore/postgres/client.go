// Package postgres provides a PostgreSQL + pgvector implementation for vector storage.
//
// Similarity search runs inside the database using pgvector's cosine distance
// operator, and metadata filters are evaluated with JSONB containment.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
)

// Client is a PostgreSQL + pgvector client.
type Client struct {
	db             *sql.DB
	collectionName string
	dimensions     int
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	CollectionName     string
	EmbeddingModelDims int
	SSLMode            string
}

// NewClient creates a new PostgreSQL client.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	client := &Client{
		db:             db,
		collectionName: cfg.CollectionName,
		dimensions:     cfg.EmbeddingModelDims,
	}

	// Initialize pgvector extension and table structure
	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table.
func (c *Client) initTables(ctx context.Context) error {
	// Enable pgvector extension
	_, err := c.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("initTables: create extension: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			agent_id VARCHAR(255),
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB,
			state VARCHAR(16) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, c.collectionName, c.dimensions)

	_, err = c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: create table: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_user_agent ON %s(user_id, agent_id)
	`, c.collectionName, c.collectionName)
	_, err = c.db.ExecContext(ctx, indexQuery)
	if err != nil {
		return fmt.Errorf("initTables: create index: %w", err)
	}

	return nil
}

// Insert inserts a memory.
func (c *Client) Insert(ctx context.Context, memory *vectorstore.Memory) error {
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, user_id, agent_id, content, embedding, metadata, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.collectionName)

	// Convert vector to PostgreSQL vector format: "[0.1,0.2,0.3,...]"
	vectorStr := vectorToString(memory.Embedding)

	metadataJSON, err := json.Marshal(memory.Metadata)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	state := memory.State
	if state == "" {
		state = vectorstore.StateActive
	}

	now := time.Now()
	_, err = c.db.ExecContext(ctx, query,
		memory.ID,
		memory.UserID,
		memory.AgentID,
		memory.Content,
		vectorStr,
		string(metadataJSON),
		string(state),
		now,
		now,
	)

	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	return nil
}

// Search performs vector search using pgvector's cosine similarity.
//
// Only active memories are searched. Metadata filters use JSONB containment.
func (c *Client) Search(ctx context.Context, embedding []float64, opts *vectorstore.SearchOptions) ([]*vectorstore.Memory, error) {
	queryVectorStr := vectorToString(embedding)

	// Build WHERE clause (starting from $2 since $1 is the query vector)
	whereClause, filterArgs, err := buildWhereClauseWithOffset(opts.UserID, opts.AgentID, opts.Filters, true, 2)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}

	// Use pgvector's <=> operator (cosine distance, 1 - cosine similarity)
	query := fmt.Sprintf(`
		SELECT
			id, user_id, agent_id, content, embedding, metadata, state,
			created_at, updated_at,
			1 - (embedding <=> $1) as similarity
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, c.collectionName, whereClause, len(filterArgs)+2)

	allArgs := []interface{}{queryVectorStr}
	allArgs = append(allArgs, filterArgs...)
	allArgs = append(allArgs, opts.Limit)

	rows, err := c.db.QueryContext(ctx, query, allArgs...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	memories, err := c.scanMemories(rows, true)
	if err != nil {
		return nil, err
	}

	// pgvector orders by distance; the minimum-score cut still happens here.
	if opts.MinScore > 0 {
		filtered := memories[:0]
		for _, m := range memories {
			if m.Score >= opts.MinScore {
				filtered = append(filtered, m)
			}
		}
		memories = filtered
	}

	return memories, nil
}

// Get retrieves a memory by ID with optional access control.
func (c *Client) Get(ctx context.Context, id int64, opts *vectorstore.GetOptions) (*vectorstore.Memory, error) {
	if opts == nil {
		opts = &vectorstore.GetOptions{}
	}

	whereClause := "WHERE id = $1"
	args := []interface{}{id}

	if opts.UserID != "" {
		whereClause += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, opts.UserID)
	}
	if opts.AgentID != "" {
		whereClause += fmt.Sprintf(" AND agent_id = $%d", len(args)+1)
		args = append(args, opts.AgentID)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, agent_id, content, embedding, metadata, state,
		       created_at, updated_at
		FROM %s
		%s
	`, c.collectionName, whereClause)

	row := c.db.QueryRowContext(ctx, query, args...)

	memory, err := c.scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("Get: not found or access denied")
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	return memory, nil
}

// Update overwrites a memory's content, embedding, and metadata payload.
// A nil metadata map leaves the stored metadata column untouched.
func (c *Client) Update(ctx context.Context, id int64, content string, embedding []float64, metadata map[string]interface{}, opts *vectorstore.UpdateOptions) (*vectorstore.Memory, error) {
	if opts == nil {
		opts = &vectorstore.UpdateOptions{}
	}

	vectorStr := vectorToString(embedding)

	setClause := "SET content = $1, embedding = $2, updated_at = $3"
	args := []interface{}{content, vectorStr, time.Now()}

	if metadata != nil {
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
		setClause += fmt.Sprintf(", metadata = $%d", len(args)+1)
		args = append(args, string(metadataJSON))
	}

	whereClause := fmt.Sprintf("WHERE id = $%d", len(args)+1)
	args = append(args, id)

	if opts.UserID != "" {
		whereClause += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, opts.UserID)
	}
	if opts.AgentID != "" {
		whereClause += fmt.Sprintf(" AND agent_id = $%d", len(args)+1)
		args = append(args, opts.AgentID)
	}

	query := fmt.Sprintf("UPDATE %s %s %s", c.collectionName, setClause, whereClause)

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if rowsAffected == 0 {
		return nil, fmt.Errorf("Update: not found or access denied")
	}

	return c.Get(ctx, id, &vectorstore.GetOptions{
		UserID:  opts.UserID,
		AgentID: opts.AgentID,
	})
}

// UpdateState changes a memory's lifecycle state.
func (c *Client) UpdateState(ctx context.Context, id int64, state vectorstore.State, opts *vectorstore.UpdateOptions) error {
	if opts == nil {
		opts = &vectorstore.UpdateOptions{}
	}

	whereClause := "WHERE id = $3"
	args := []interface{}{string(state), time.Now(), id}

	if opts.UserID != "" {
		whereClause += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, opts.UserID)
	}
	if opts.AgentID != "" {
		whereClause += fmt.Sprintf(" AND agent_id = $%d", len(args)+1)
		args = append(args, opts.AgentID)
	}

	query := fmt.Sprintf("UPDATE %s SET state = $1, updated_at = $2 %s", c.collectionName, whereClause)

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("UpdateState: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateState: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("UpdateState: not found or access denied")
	}

	return nil
}

// Delete deletes a memory row.
func (c *Client) Delete(ctx context.Context, id int64, opts *vectorstore.DeleteOptions) error {
	if opts == nil {
		opts = &vectorstore.DeleteOptions{}
	}

	whereClause := "WHERE id = $1"
	args := []interface{}{id}

	if opts.UserID != "" {
		whereClause += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, opts.UserID)
	}
	if opts.AgentID != "" {
		whereClause += fmt.Sprintf(" AND agent_id = $%d", len(args)+1)
		args = append(args, opts.AgentID)
	}

	query := fmt.Sprintf("DELETE FROM %s %s", c.collectionName, whereClause)

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("Delete: not found or access denied")
	}

	return nil
}

// GetAll retrieves all memories with optional filtering and pagination.
func (c *Client) GetAll(ctx context.Context, opts *vectorstore.GetAllOptions) ([]*vectorstore.Memory, error) {
	whereClause, args, err := buildWhereClauseWithOffset(opts.UserID, opts.AgentID, nil, false, 1)
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}

	if opts.State != "" {
		if whereClause == "" {
			whereClause = fmt.Sprintf("WHERE state = $%d", len(args)+1)
		} else {
			whereClause += fmt.Sprintf(" AND state = $%d", len(args)+1)
		}
		args = append(args, string(opts.State))
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, agent_id, content, embedding, metadata, state,
		       created_at, updated_at
		FROM %s
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, c.collectionName, whereClause, len(args)+1, len(args)+2)

	args = append(args, opts.Limit, opts.Offset)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return c.scanMemories(rows, false)
}

// DeleteAll deletes all memories matching the given filters.
func (c *Client) DeleteAll(ctx context.Context, opts *vectorstore.DeleteAllOptions) error {
	whereClause, args, err := buildWhereClauseWithOffset(opts.UserID, opts.AgentID, nil, false, 1)
	if err != nil {
		return fmt.Errorf("DeleteAll: %w", err)
	}

	query := fmt.Sprintf("DELETE FROM %s %s", c.collectionName, whereClause)

	_, err = c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("DeleteAll: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// scanMemory scans a single memory.
func (c *Client) scanMemory(row *sql.Row) (*vectorstore.Memory, error) {
	var memory vectorstore.Memory
	var embeddingStr string
	var metadataStr []byte
	var stateStr string

	err := row.Scan(
		&memory.ID,
		&memory.UserID,
		&memory.AgentID,
		&memory.Content,
		&embeddingStr,
		&metadataStr,
		&stateStr,
		&memory.CreatedAt,
		&memory.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := fillMemory(&memory, embeddingStr, metadataStr, stateStr); err != nil {
		return nil, err
	}

	return &memory, nil
}

// scanMemories scans multiple memories.
func (c *Client) scanMemories(rows *sql.Rows, hasScore bool) ([]*vectorstore.Memory, error) {
	var memories []*vectorstore.Memory

	for rows.Next() {
		var memory vectorstore.Memory
		var embeddingStr string
		var metadataStr []byte
		var stateStr string
		var similarity float64

		if hasScore {
			err := rows.Scan(
				&memory.ID,
				&memory.UserID,
				&memory.AgentID,
				&memory.Content,
				&embeddingStr,
				&metadataStr,
				&stateStr,
				&memory.CreatedAt,
				&memory.UpdatedAt,
				&similarity,
			)
			if err != nil {
				return nil, err
			}
			memory.Score = similarity
		} else {
			err := rows.Scan(
				&memory.ID,
				&memory.UserID,
				&memory.AgentID,
				&memory.Content,
				&embeddingStr,
				&metadataStr,
				&stateStr,
				&memory.CreatedAt,
				&memory.UpdatedAt,
			)
			if err != nil {
				return nil, err
			}
		}

		if err := fillMemory(&memory, embeddingStr, metadataStr, stateStr); err != nil {
			return nil, err
		}

		memories = append(memories, &memory)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return memories, nil
}

// fillMemory parses the raw column values into the memory record.
func fillMemory(memory *vectorstore.Memory, embeddingStr string, metadataStr []byte, stateStr string) error {
	embedding, err := parseVectorString(embeddingStr)
	if err != nil {
		return fmt.Errorf("parse embedding: %w", err)
	}
	memory.Embedding = embedding

	if len(metadataStr) > 0 {
		if err := json.Unmarshal(metadataStr, &memory.Metadata); err != nil {
			return fmt.Errorf("parse metadata: %w", err)
		}
	}

	memory.State = vectorstore.State(stateStr)
	return nil
}
