// Package sqlite provides a SQLite implementation for vector storage.
//
// SQLite is a lightweight, file-based database suitable for local development
// and small self-hosted deployments. Vectors are stored as JSON strings in
// TEXT fields, and similarity search uses in-memory cosine similarity
// calculation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
)

// Client implements VectorStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// collectionName is the name of the table storing memories.
	collectionName string

	// dimensions is the dimension of embedding vectors.
	dimensions int
}

// Config contains configuration for creating a SQLite VectorStore.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CollectionName is the name of the table to use.
	CollectionName string

	// EmbeddingModelDims is the dimension of embedding vectors.
	EmbeddingModelDims int
}

// NewClient creates a new SQLite VectorStore client.
//
// Parameters:
//   - cfg: Configuration containing database path, table name, and embedding dimensions
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:             db,
		collectionName: cfg.CollectionName,
		dimensions:     cfg.EmbeddingModelDims,
	}

	// Initialize table structure
	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
//
// SQLite stores vectors as JSON strings in TEXT fields.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			agent_id TEXT,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL,
			metadata TEXT,
			state TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, c.collectionName)

	_, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_user_agent ON %s(user_id, agent_id)
	`, c.collectionName, c.collectionName)
	_, err = c.db.ExecContext(ctx, indexQuery)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// Insert inserts a memory into the SQLite database.
//
// Vectors are stored as JSON strings in TEXT fields.
func (c *Client) Insert(ctx context.Context, memory *vectorstore.Memory) error {
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, user_id, agent_id, content, embedding, metadata, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.collectionName)

	embeddingJSON, err := json.Marshal(memory.Embedding)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

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
		string(embeddingJSON),
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

// Search performs vector similarity search using cosine similarity.
//
// SQLite has no native vector operations, so similarity is calculated in
// memory after loading the candidate rows. Only active memories are
// considered: archived and paused memories are excluded at the SQL level.
// Metadata filters are applied after the metadata column is decoded.
func (c *Client) Search(ctx context.Context, embedding []float64, opts *vectorstore.SearchOptions) ([]*vectorstore.Memory, error) {
	whereClause, args := buildWhereClause(opts.UserID, opts.AgentID, true)

	query := fmt.Sprintf(`
		SELECT
			id, user_id, agent_id, content, embedding, metadata, state,
			created_at, updated_at
		FROM %s
		%s
		ORDER BY id
	`, c.collectionName, whereClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*vectorstore.Memory
	for rows.Next() {
		memory, err := c.scanMemory(rows)
		if err != nil {
			return nil, err
		}

		if !matchesFilters(memory.Metadata, opts.Filters) {
			continue
		}

		score := cosineSimilarity(embedding, memory.Embedding)
		memory.Score = score

		if score >= opts.MinScore {
			memories = append(memories, memory)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	memories = sortByScore(memories, opts.Limit)

	return memories, nil
}

// Get retrieves a memory by ID with optional access control.
func (c *Client) Get(ctx context.Context, id int64, opts *vectorstore.GetOptions) (*vectorstore.Memory, error) {
	if opts == nil {
		opts = &vectorstore.GetOptions{}
	}

	whereClause := "WHERE id = ?"
	args := []interface{}{id}

	if opts.UserID != "" {
		whereClause += " AND user_id = ?"
		args = append(args, opts.UserID)
	}
	if opts.AgentID != "" {
		whereClause += " AND agent_id = ?"
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

// Update overwrites a memory's content, embedding, and metadata payload with
// optional access control. A nil metadata map leaves the stored metadata
// column untouched.
func (c *Client) Update(ctx context.Context, id int64, content string, embedding []float64, metadata map[string]interface{}, opts *vectorstore.UpdateOptions) (*vectorstore.Memory, error) {
	if opts == nil {
		opts = &vectorstore.UpdateOptions{}
	}

	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	setClause := "SET content = ?, embedding = ?, updated_at = ?"
	args := []interface{}{content, string(embeddingJSON), time.Now()}

	if metadata != nil {
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
		setClause += ", metadata = ?"
		args = append(args, string(metadataJSON))
	}

	whereClause := "WHERE id = ?"
	args = append(args, id)

	if opts.UserID != "" {
		whereClause += " AND user_id = ?"
		args = append(args, opts.UserID)
	}
	if opts.AgentID != "" {
		whereClause += " AND agent_id = ?"
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

// UpdateState changes a memory's lifecycle state with optional access control.
func (c *Client) UpdateState(ctx context.Context, id int64, state vectorstore.State, opts *vectorstore.UpdateOptions) error {
	if opts == nil {
		opts = &vectorstore.UpdateOptions{}
	}

	whereClause := "WHERE id = ?"
	args := []interface{}{string(state), time.Now(), id}

	if opts.UserID != "" {
		whereClause += " AND user_id = ?"
		args = append(args, opts.UserID)
	}
	if opts.AgentID != "" {
		whereClause += " AND agent_id = ?"
		args = append(args, opts.AgentID)
	}

	query := fmt.Sprintf("UPDATE %s SET state = ?, updated_at = ? %s", c.collectionName, whereClause)

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

// Delete deletes a memory row by ID with optional access control.
func (c *Client) Delete(ctx context.Context, id int64, opts *vectorstore.DeleteOptions) error {
	if opts == nil {
		opts = &vectorstore.DeleteOptions{}
	}

	whereClause := "WHERE id = ?"
	args := []interface{}{id}

	if opts.UserID != "" {
		whereClause += " AND user_id = ?"
		args = append(args, opts.UserID)
	}
	if opts.AgentID != "" {
		whereClause += " AND agent_id = ?"
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
	whereClause, args := buildWhereClause(opts.UserID, opts.AgentID, false)

	if opts.State != "" {
		if whereClause == "" {
			whereClause = "WHERE state = ?"
		} else {
			whereClause += " AND state = ?"
		}
		args = append(args, string(opts.State))
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, agent_id, content, embedding, metadata, state,
		       created_at, updated_at
		FROM %s
		%s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, c.collectionName, whereClause)

	args = append(args, opts.Limit, opts.Offset)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*vectorstore.Memory
	for rows.Next() {
		memory, err := c.scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, memory)
	}

	return memories, rows.Err()
}

// DeleteAll deletes all memories matching the given filters.
func (c *Client) DeleteAll(ctx context.Context, opts *vectorstore.DeleteAllOptions) error {
	whereClause, args := buildWhereClause(opts.UserID, opts.AgentID, false)

	query := fmt.Sprintf("DELETE FROM %s %s", c.collectionName, whereClause)

	_, err := c.db.ExecContext(ctx, query, args...)
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

// scanMemory scans a memory from a database row or rows.
func (c *Client) scanMemory(scanner interface{}) (*vectorstore.Memory, error) {
	var memory vectorstore.Memory
	var embeddingStr string
	var metadataStr string
	var stateStr string

	var err error
	switch s := scanner.(type) {
	case *sql.Row:
		err = s.Scan(
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
	case *sql.Rows:
		err = s.Scan(
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
	default:
		return nil, fmt.Errorf("unsupported scanner type")
	}

	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(embeddingStr), &memory.Embedding); err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}

	if metadataStr != "" {
		if err := json.Unmarshal([]byte(metadataStr), &memory.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}

	memory.State = vectorstore.State(stateStr)

	return &memory, nil
}
