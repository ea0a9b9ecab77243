package core

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"

	"github.com/openmemory-ai/openmemory-go/pkg/attachment"
	"github.com/openmemory-ai/openmemory-go/pkg/embedder"
	ollamaEmbedder "github.com/openmemory-ai/openmemory-go/pkg/embedder/ollama"
	openaiEmbedder "github.com/openmemory-ai/openmemory-go/pkg/embedder/openai"
	"github.com/openmemory-ai/openmemory-go/pkg/llm"
	deepseekLLM "github.com/openmemory-ai/openmemory-go/pkg/llm/deepseek"
	ollamaLLM "github.com/openmemory-ai/openmemory-go/pkg/llm/ollama"
	openaiLLM "github.com/openmemory-ai/openmemory-go/pkg/llm/openai"
	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
	mysqlStore "github.com/openmemory-ai/openmemory-go/pkg/vectorstore/mysql"
	postgresStore "github.com/openmemory-ai/openmemory-go/pkg/vectorstore/postgres"
	sqliteStore "github.com/openmemory-ai/openmemory-go/pkg/vectorstore/sqlite"
)

// Client is the main OpenMemory client for memory management.
//
// It provides a complete interface for storing, retrieving, and managing
// memories with support for:
//   - LLM-based fact extraction and deduplication
//   - Vector similarity search
//   - Attachment linking
//   - Memory lifecycle states (active, archived, paused)
//   - Metadata filtering
//
// The client is thread-safe and can be used concurrently from multiple goroutines.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient(config)
//	defer client.Close()
//
//	result, _ := client.Add(ctx, "I moved to Berlin last month",
//	    core.WithUserID("user_001"),
//	)
type Client struct {
	// config contains the client configuration.
	config *Config

	// storage is the vector store for memory persistence.
	storage vectorstore.VectorStore

	// llm is the LLM provider for extraction and resolution.
	llm llm.Provider

	// embedder is the embedding provider for vector generation.
	embedder embedder.Provider

	// attachments stores attachment blobs linked to memories.
	attachments attachment.Store

	// snowflakeNode generates unique IDs for memories.
	snowflakeNode *snowflake.Node

	// mu protects concurrent access to the client.
	mu sync.RWMutex
}

// NewClient creates a new OpenMemory client.
//
// The client is initialized with:
//   - Vector store (SQLite, PostgreSQL, or MySQL)
//   - LLM provider (OpenAI, DeepSeek, Ollama)
//   - Embedding provider (OpenAI, Ollama)
//   - In-memory attachment store sized per the attachment configuration
//
// Parameters:
//   - cfg: Configuration containing storage, LLM, and embedding settings
//
// Returns a new Client instance, or an error if initialization fails.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := initStorage(cfg.VectorStore)
	if err != nil {
		return nil, err
	}

	llmProvider, err := initLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}

	embedderProvider, err := initEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	var maxAttachmentSize int64
	if cfg.Attachment != nil {
		maxAttachmentSize = cfg.Attachment.MaxSizeBytes
	}

	return &Client{
		config:        cfg,
		storage:       store,
		llm:           llmProvider,
		embedder:      embedderProvider,
		attachments:   attachment.NewMemStore(maxAttachmentSize),
		snowflakeNode: node,
	}, nil
}

// Attachments returns the client's attachment store.
func (c *Client) Attachments() attachment.Store {
	return c.attachments
}

// Search searches for memories using vector similarity.
//
// The method:
//  1. Generates an embedding vector for the query
//  2. Performs vector similarity search in the store
//  3. Returns results sorted by similarity score
//
// Only active memories are searched; archived and paused memories are
// excluded. Results can be filtered by UserID, AgentID, and custom metadata
// filters.
//
// Example:
//
//	results, err := client.Search(ctx, "where does the user live",
//	    core.WithUserIDForSearch("user_001"),
//	    core.WithLimit(10),
//	    core.WithMinScore(0.7),
//	)
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) ([]*Memory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	searchOpts := applySearchOptions(opts)

	queryEmbedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, NewMemoryError("Search", err)
	}

	memories, err := c.storage.Search(ctx, queryEmbedding, &vectorstore.SearchOptions{
		UserID:   searchOpts.UserID,
		AgentID:  searchOpts.AgentID,
		Limit:    searchOpts.Limit,
		MinScore: searchOpts.MinScore,
		Filters:  searchOpts.Filters,
	})
	if err != nil {
		return nil, NewMemoryError("Search", err)
	}

	return fromStoreMemories(memories), nil
}

// Get retrieves a memory by its ID with optional access control.
//
// Example:
//
//	memory, err := client.Get(ctx, memoryID, core.WithUserIDForGet("user_001"))
func (c *Client) Get(ctx context.Context, id int64, opts ...GetOption) (*Memory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	getOpts := applyGetOptions(opts)

	memory, err := c.storage.Get(ctx, id, &vectorstore.GetOptions{
		UserID:  getOpts.UserID,
		AgentID: getOpts.AgentID,
	})
	if err != nil {
		return nil, NewMemoryError("Get", err)
	}

	return fromStoreMemory(memory), nil
}

// Update updates an existing memory's content with optional access control.
//
// The method generates a new embedding vector for the updated content and
// overwrites the stored memory. Metadata, including attachment references,
// is left unchanged.
//
// Example:
//
//	memory, err := client.Update(ctx, memoryID, "new content",
//	    core.WithUserIDForUpdate("user_001"))
func (c *Client) Update(ctx context.Context, id int64, content string, opts ...UpdateOption) (*Memory, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	updateOpts := applyUpdateOptions(opts)

	embedding, err := c.embedder.Embed(ctx, content)
	if err != nil {
		return nil, NewMemoryError("Update", err)
	}

	memory, err := c.storage.Update(ctx, id, content, embedding, nil, &vectorstore.UpdateOptions{
		UserID:  updateOpts.UserID,
		AgentID: updateOpts.AgentID,
	})
	if err != nil {
		return nil, NewMemoryError("Update", err)
	}

	return fromStoreMemory(memory), nil
}

// Delete deletes a memory by its ID with optional access control. The
// memory's attachments are not touched.
//
// Example:
//
//	err := client.Delete(ctx, memoryID, core.WithUserIDForDelete("user_001"))
func (c *Client) Delete(ctx context.Context, id int64, opts ...DeleteOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleteOpts := applyDeleteOptions(opts)

	if err := c.storage.Delete(ctx, id, &vectorstore.DeleteOptions{
		UserID:  deleteOpts.UserID,
		AgentID: deleteOpts.AgentID,
	}); err != nil {
		return NewMemoryError("Delete", err)
	}

	return nil
}

// DeleteMemories deletes a batch of memories. When deleteAttachments is
// true, each deleted memory's attachments are removed from the attachment
// store as well; by default they are left in place, even when no other
// memory references them.
//
// Deletion is independent per memory: a failure on one does not stop the
// others. The first error encountered is returned after the batch finishes.
//
// Example:
//
//	err := client.DeleteMemories(ctx, []int64{id1, id2}, false,
//	    core.WithUserIDForDelete("user_001"))
func (c *Client) DeleteMemories(ctx context.Context, ids []int64, deleteAttachments bool, opts ...DeleteOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleteOpts := applyDeleteOptions(opts)

	storeOpts := &vectorstore.DeleteOptions{
		UserID:  deleteOpts.UserID,
		AgentID: deleteOpts.AgentID,
	}

	var firstErr error
	for _, id := range ids {
		var attachmentIDs []string
		if deleteAttachments {
			memory, err := c.storage.Get(ctx, id, &vectorstore.GetOptions{
				UserID:  deleteOpts.UserID,
				AgentID: deleteOpts.AgentID,
			})
			if err == nil {
				attachmentIDs = fromStoreMemory(memory).AttachmentIDs()
			}
		}

		if err := c.storage.Delete(ctx, id, storeOpts); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, attachmentID := range attachmentIDs {
			if err := c.deleteAttachmentByID(ctx, attachmentID); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	return NewMemoryError("DeleteMemories", firstErr)
}

// Archive moves memories to the archived state, excluding them from
// similarity search while keeping them stored.
//
// Example:
//
//	err := client.Archive(ctx, []int64{id1, id2}, core.WithUserIDForUpdate("user_001"))
func (c *Client) Archive(ctx context.Context, ids []int64, opts ...UpdateOption) error {
	return c.setState(ctx, "Archive", ids, vectorstore.StateArchived, opts...)
}

// Pause moves memories to the paused state, temporarily excluding them from
// similarity search.
//
// Example:
//
//	err := client.Pause(ctx, []int64{id1}, core.WithUserIDForUpdate("user_001"))
func (c *Client) Pause(ctx context.Context, ids []int64, opts ...UpdateOption) error {
	return c.setState(ctx, "Pause", ids, vectorstore.StatePaused, opts...)
}

// Resume moves memories back to the active state.
func (c *Client) Resume(ctx context.Context, ids []int64, opts ...UpdateOption) error {
	return c.setState(ctx, "Resume", ids, vectorstore.StateActive, opts...)
}

// setState applies a lifecycle state change to a batch of memories.
func (c *Client) setState(ctx context.Context, op string, ids []int64, state vectorstore.State, opts ...UpdateOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	updateOpts := applyUpdateOptions(opts)

	storeOpts := &vectorstore.UpdateOptions{
		UserID:  updateOpts.UserID,
		AgentID: updateOpts.AgentID,
	}

	var firstErr error
	for _, id := range ids {
		if err := c.storage.UpdateState(ctx, id, state, storeOpts); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return NewMemoryError(op, firstErr)
}

// GetAll retrieves all memories with optional filtering.
//
// Results can be filtered by UserID, AgentID, and lifecycle state, and
// paginated using Limit and Offset.
//
// Example:
//
//	memories, err := client.GetAll(ctx,
//	    core.WithUserIDForGetAll("user_001"),
//	    core.WithLimitForGetAll(100),
//	)
func (c *Client) GetAll(ctx context.Context, opts ...GetAllOption) ([]*Memory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	getAllOpts := applyGetAllOptions(opts)

	memories, err := c.storage.GetAll(ctx, &vectorstore.GetAllOptions{
		UserID:  getAllOpts.UserID,
		AgentID: getAllOpts.AgentID,
		State:   vectorstore.State(getAllOpts.State),
		Limit:   getAllOpts.Limit,
		Offset:  getAllOpts.Offset,
	})
	if err != nil {
		return nil, NewMemoryError("GetAll", err)
	}

	return fromStoreMemories(memories), nil
}

// DeleteAll deletes all memories matching the given filters.
//
// If no filters are provided, deletes ALL memories (use with caution).
//
// Example:
//
//	err := client.DeleteAll(ctx, core.WithUserIDForDeleteAll("user_001"))
func (c *Client) DeleteAll(ctx context.Context, opts ...DeleteAllOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleteAllOpts := applyDeleteAllOptions(opts)

	if err := c.storage.DeleteAll(ctx, &vectorstore.DeleteAllOptions{
		UserID:  deleteAllOpts.UserID,
		AgentID: deleteAllOpts.AgentID,
	}); err != nil {
		return NewMemoryError("DeleteAll", err)
	}

	return nil
}

// Close closes the client and releases all resources.
//
// This method:
//   - Closes the vector store connection
//   - Closes the LLM provider
//   - Closes the embedder provider
//
// Returns the first error encountered during cleanup, or nil if all
// resources were closed successfully.
//
// Example:
//
//	defer client.Close()
func (c *Client) Close() error {
	var errs []error

	if c.storage != nil {
		if err := c.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.embedder != nil {
		if err := c.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}

	return nil
}

// newMemoryID generates a fresh memory identifier.
func (c *Client) newMemoryID() int64 {
	return c.snowflakeNode.Generate().Int64()
}

// deleteAttachmentByID removes an attachment given its string identifier.
func (c *Client) deleteAttachmentByID(ctx context.Context, id string) error {
	parsed, err := parseAttachmentID(id)
	if err != nil {
		return err
	}
	return c.attachments.Delete(ctx, parsed)
}

// initStorage initializes the storage backend.
func initStorage(cfg VectorStoreConfig) (vectorstore.VectorStore, error) {
	switch cfg.Provider {
	case "sqlite":
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath:             cfg.Config["db_path"].(string),
			CollectionName:     cfg.Config["collection_name"].(string),
			EmbeddingModelDims: cfg.Config["embedding_model_dims"].(int),
		})
	case "postgres":
		sslMode := "disable"
		if s, ok := cfg.Config["ssl_mode"].(string); ok {
			sslMode = s
		}
		return postgresStore.NewClient(&postgresStore.Config{
			Host:               cfg.Config["host"].(string),
			Port:               cfg.Config["port"].(int),
			User:               cfg.Config["user"].(string),
			Password:           cfg.Config["password"].(string),
			DBName:             cfg.Config["db_name"].(string),
			CollectionName:     cfg.Config["collection_name"].(string),
			EmbeddingModelDims: cfg.Config["embedding_model_dims"].(int),
			SSLMode:            sslMode,
		})
	case "mysql":
		return mysqlStore.NewClient(&mysqlStore.Config{
			Host:               cfg.Config["host"].(string),
			Port:               cfg.Config["port"].(int),
			User:               cfg.Config["user"].(string),
			Password:           cfg.Config["password"].(string),
			DBName:             cfg.Config["db_name"].(string),
			CollectionName:     cfg.Config["collection_name"].(string),
			EmbeddingModelDims: cfg.Config["embedding_model_dims"].(int),
		})
	default:
		return nil, NewMemoryError("initStorage", ErrInvalidConfig)
	}
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "deepseek":
		return deepseekLLM.NewClient(&deepseekLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		return ollamaLLM.NewClient(&ollamaLLM.Config{
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewMemoryError("initLLM", ErrInvalidConfig)
	}
}

// initEmbedder initializes the embedder provider.
func initEmbedder(cfg EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "ollama":
		return ollamaEmbedder.NewClient(&ollamaEmbedder.Config{
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, NewMemoryError("initEmbedder", ErrInvalidConfig)
	}
}
