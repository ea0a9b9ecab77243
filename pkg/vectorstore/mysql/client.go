// Package mysql provides a vector store backed by MySQL-protocol databases
// with native VECTOR support, such as OceanBase.
//
// Similarity search runs server-side through the cosine_distance function.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
)

// Client is a MySQL-protocol vector store client.
type Client struct {
	db             *sql.DB
	config         *Config
	collectionName string
}

// Config contains MySQL connection configuration.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	CollectionName     string
	EmbeddingModelDims int
}

// NewClient creates a new MySQL client.
func NewClient(cfg *Config) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	client := &Client{
		db:             db,
		config:         cfg,
		collectionName: cfg.CollectionName,
	}

	// Initialize table structure
	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			user_id VARCHAR(128) NOT NULL,
			agent_id VARCHAR(128),
			content LONGTEXT NOT NULL,
			embedding VECTOR(%d),
			metadata JSON,
			state VARCHAR(16) NOT NULL DEFAULT 'active',
			created_at VARCHAR(128),
			updated_at VARCHAR(128),
			INDEX idx_user_agent (user_id, agent_id)
		)
	`, c.collectionName, c.config.EmbeddingModelDims)

	_, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// Insert inserts a memory.
func (c *Client) Insert(ctx context.Context, memory *vectorstore.Memory) error {
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, user_id, agent_id, content, embedding, metadata, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.collectionName)

	vectorStr := vectorToString(memory.Embedding)

	metadataJSON, err := json.Marshal(memory.Metadata)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	state := memory.State
	if state == "" {
		state = vectorstore.StateActive
	}

	now := time.Now().Format(time.RFC3339)

	_, err = c.db.ExecContext(ctx, query,
		memory.ID,
		memory.UserID,
		memory.AgentID,
		memory.Content,
		vectorStr,
		metadataJSON,
		string(state),
		now,
		now,
	)

	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	return nil
}

// Search performs vector search over active memories.
func (c *Client) Search(ctx context.Context, embedding []float64, opts *vectorstore.SearchOptions) ([]*vectorstore.Memory, error) {
	queryVectorStr := vectorToString(embedding)

	whereClause, args := buildWhereClause(opts.UserID, opts.AgentID, opts.Filters, true)

	query := fmt.Sprintf(`
		SELECT
			id, user_id, agent_id, content, embedding, metadata, state,
			created_at, updated_at,
			cosine_distance(embedding, ?) as distance
		FROM %s
		%s
		ORDER BY distance ASC
		LIMIT ?
	`, c.collectionName, whereClause)

	// Query vector goes first, then the filter args
	allArgs := append([]interface{}{queryVectorStr}, args...)
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

// Update overwrites a memory's content, embedding, and metadata payload.
// A nil metadata map leaves the stored metadata column untouched.
func (c *Client) Update(ctx context.Context, id int64, content string, embedding []float64, metadata map[string]interface{}, opts *vectorstore.UpdateOptions) (*vectorstore.Memory, error) {
	if opts == nil {
		opts = &vectorstore.UpdateOptions{}
	}

	vectorStr := vectorToString(embedding)
	now := time.Now().Format(time.RFC3339)

	setClause := "SET content = ?, embedding = ?, updated_at = ?"
	args := []interface{}{content, vectorStr, now}

	if metadata != nil {
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
		setClause += ", metadata = ?"
		args = append(args, metadataJSON)
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

// UpdateState changes a memory's lifecycle state.
func (c *Client) UpdateState(ctx context.Context, id int64, state vectorstore.State, opts *vectorstore.UpdateOptions) error {
	if opts == nil {
		opts = &vectorstore.UpdateOptions{}
	}

	now := time.Now().Format(time.RFC3339)

	whereClause := "WHERE id = ?"
	args := []interface{}{string(state), now, id}

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

// Delete deletes a memory row.
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
	whereClause, args := buildWhereClause(opts.UserID, opts.AgentID, nil, false)

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
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, c.collectionName, whereClause)

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
	whereClause, args := buildWhereClause(opts.UserID, opts.AgentID, nil, false)

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

// scanMemory scans a single memory.
func (c *Client) scanMemory(row *sql.Row) (*vectorstore.Memory, error) {
	var memory vectorstore.Memory
	var embeddingStr sql.NullString
	var metadataJSON []byte
	var agentID sql.NullString
	var stateStr string
	var createdAt sql.NullString
	var updatedAt sql.NullString

	err := row.Scan(
		&memory.ID,
		&memory.UserID,
		&agentID,
		&memory.Content,
		&embeddingStr,
		&metadataJSON,
		&stateStr,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := fillMemory(&memory, agentID, embeddingStr, metadataJSON, stateStr, createdAt, updatedAt); err != nil {
		return nil, err
	}

	return &memory, nil
}

// scanMemories scans multiple memories.
func (c *Client) scanMemories(rows *sql.Rows, hasScore bool) ([]*vectorstore.Memory, error) {
	var memories []*vectorstore.Memory

	for rows.Next() {
		var memory vectorstore.Memory
		var embeddingStr sql.NullString
		var metadataJSON []byte
		var agentID sql.NullString
		var stateStr string
		var createdAt sql.NullString
		var updatedAt sql.NullString
		var distance float64

		if hasScore {
			err := rows.Scan(
				&memory.ID,
				&memory.UserID,
				&agentID,
				&memory.Content,
				&embeddingStr,
				&metadataJSON,
				&stateStr,
				&createdAt,
				&updatedAt,
				&distance,
			)
			if err != nil {
				return nil, err
			}
			// Convert cosine distance to similarity score
			memory.Score = 1.0 - distance
		} else {
			err := rows.Scan(
				&memory.ID,
				&memory.UserID,
				&agentID,
				&memory.Content,
				&embeddingStr,
				&metadataJSON,
				&stateStr,
				&createdAt,
				&updatedAt,
			)
			if err != nil {
				return nil, err
			}
		}

		if err := fillMemory(&memory, agentID, embeddingStr, metadataJSON, stateStr, createdAt, updatedAt); err != nil {
			return nil, err
		}

		memories = append(memories, &memory)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return memories, nil
}

// fillMemory parses nullable and encoded columns into the memory record.
func fillMemory(memory *vectorstore.Memory, agentID, embeddingStr sql.NullString, metadataJSON []byte, stateStr string, createdAt, updatedAt sql.NullString) error {
	if agentID.Valid {
		memory.AgentID = agentID.String
	}

	if embeddingStr.Valid && embeddingStr.String != "" {
		embedding, err := stringToVector(embeddingStr.String)
		if err != nil {
			return err
		}
		memory.Embedding = embedding
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &memory.Metadata); err != nil {
			return err
		}
	}

	memory.State = vectorstore.State(stateStr)

	if createdAt.Valid {
		if t, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
			memory.CreatedAt = t
		}
	}
	if updatedAt.Valid {
		if t, err := time.Parse(time.RFC3339, updatedAt.String); err == nil {
			memory.UpdatedAt = t
		}
	}

	return nil
}
