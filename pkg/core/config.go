// Package core provides the main OpenMemory client and memory management functionality.
package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for an OpenMemory client.
//
// It includes settings for:
//   - LLM provider (for extraction and resolution)
//   - Embedding provider (for vector generation)
//   - Vector store (for memory persistence)
//   - Pipeline behavior (optional)
//   - Attachments (optional)
//
// Example:
//
//	config := &core.Config{
//	    LLM: core.LLMConfig{
//	        Provider: "openai",
//	        APIKey:   "sk-...",
//	        Model:    "gpt-4o-mini",
//	    },
//	    Embedder: core.EmbedderConfig{
//	        Provider:   "openai",
//	        APIKey:     "sk-...",
//	        Model:      "text-embedding-3-small",
//	        Dimensions: 1536,
//	    },
//	    VectorStore: core.VectorStoreConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./memories.db",
//	        },
//	    },
//	}
type Config struct {
	// LLM contains LLM provider configuration.
	LLM LLMConfig `json:"llm"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder"`

	// VectorStore contains vector store configuration.
	VectorStore VectorStoreConfig `json:"vector_store"`

	// Pipeline contains add-pipeline configuration (optional, defaults apply).
	Pipeline *PipelineConfig `json:"pipeline,omitempty"`

	// Attachment contains attachment handling configuration (optional).
	Attachment *AttachmentConfig `json:"attachment,omitempty"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai, deepseek, ollama
type LLMConfig struct {
	// Provider is the LLM provider name (openai, deepseek, ollama).
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider.
	APIKey string `json:"api_key"`

	// Model is the model name to use (e.g., "gpt-4o-mini", "deepseek-chat").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: openai, ollama
type EmbedderConfig struct {
	// Provider is the embedding provider name (openai, ollama).
	Provider string `json:"provider"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (e.g., "text-embedding-3-small").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the dimension of the embedding vectors (e.g., 1536, 768).
	Dimensions int `json:"dimensions,omitempty"`
}

// VectorStoreConfig contains configuration for the vector store.
//
// Supported providers: sqlite, postgres, mysql
type VectorStoreConfig struct {
	// Provider is the vector store provider name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path, collection_name, embedding_model_dims
	// For PostgreSQL: host, port, user, password, db_name, collection_name, embedding_model_dims, ssl_mode
	// For MySQL: host, port, user, password, db_name, collection_name, embedding_model_dims
	Config map[string]interface{} `json:"config"`
}

// PipelineConfig controls the add pipeline's default behavior. Per-call
// options override these defaults.
type PipelineConfig struct {
	// Infer is the default master switch for the LLM pipeline. When false,
	// adds are stored verbatim without extraction or resolution.
	// Default: true
	Infer bool `json:"infer"`

	// Extract is the default for the fact extraction phase.
	// Default: true
	Extract bool `json:"extract"`

	// Deduplicate is the default for the resolution phase.
	// Default: true
	Deduplicate bool `json:"deduplicate"`

	// ExtractionPrompt overrides the built-in extraction prompt (optional).
	ExtractionPrompt string `json:"extraction_prompt,omitempty"`

	// ResolutionPrompt overrides the built-in resolution prompt (optional).
	ResolutionPrompt string `json:"resolution_prompt,omitempty"`

	// SearchLimit is the per-fact nearest-neighbor count during retrieval.
	// Default: 5
	SearchLimit int `json:"search_limit,omitempty"`

	// MinScore is the similarity floor for retrieval candidates.
	// Default: 0.0 (no minimum)
	MinScore float64 `json:"min_score,omitempty"`
}

// AttachmentConfig controls attachment handling.
type AttachmentConfig struct {
	// MaxSizeBytes is the maximum attachment content size. Oversized
	// content is rejected, never truncated.
	// Default: 100 MiB
	MaxSizeBytes int64 `json:"max_size_bytes,omitempty"`
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Infer:       true,
		Extract:     true,
		Deduplicate: true,
		SearchLimit: 5,
		MinScore:    0.0,
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH, SQLITE_COLLECTION, SQLITE_EMBEDDING_MODEL_DIMS
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, etc.
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, etc.
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL, EMBEDDING_BASE_URL
//   - PIPELINE_INFER, PIPELINE_EXTRACT, PIPELINE_DEDUPLICATE
//   - ATTACHMENT_MAX_SIZE_MB
//
// Returns a Config instance, or an error if loading fails.
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")

	vectorStoreConfig := make(map[string]interface{})

	switch provider {
	case "sqlite":
		dims, _ := strconv.Atoi(getEnvOrDefault("SQLITE_EMBEDDING_MODEL_DIMS", "1536"))

		vectorStoreConfig = map[string]interface{}{
			"db_path":              getEnvOrDefault("SQLITE_PATH", "./openmemory.db"),
			"collection_name":      getEnvOrDefault("SQLITE_COLLECTION", "memories"),
			"embedding_model_dims": dims,
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		dims, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_EMBEDDING_MODEL_DIMS", "1536"))

		vectorStoreConfig = map[string]interface{}{
			"host":                 getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":                 port,
			"user":                 getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password":             os.Getenv("POSTGRES_PASSWORD"),
			"db_name":              getEnvOrDefault("POSTGRES_DATABASE", "openmemory"),
			"collection_name":      getEnvOrDefault("POSTGRES_COLLECTION", "memories"),
			"embedding_model_dims": dims,
			"ssl_mode":             getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		dims, _ := strconv.Atoi(getEnvOrDefault("MYSQL_EMBEDDING_MODEL_DIMS", "1536"))

		vectorStoreConfig = map[string]interface{}{
			"host":                 getEnvOrDefault("MYSQL_HOST", "127.0.0.1"),
			"port":                 port,
			"user":                 getEnvOrDefault("MYSQL_USER", "root"),
			"password":             os.Getenv("MYSQL_PASSWORD"),
			"db_name":              getEnvOrDefault("MYSQL_DATABASE", "openmemory"),
			"collection_name":      getEnvOrDefault("MYSQL_COLLECTION", "memories"),
			"embedding_model_dims": dims,
		}
	}

	// Determine LLM base URL and default model per provider
	llmProvider := getEnvOrDefault("LLM_PROVIDER", "openai")
	var llmBaseURL string
	var defaultModel string

	switch llmProvider {
	case "deepseek":
		llmBaseURL = os.Getenv("DEEPSEEK_LLM_BASE_URL")
		if llmBaseURL == "" {
			llmBaseURL = "https://api.deepseek.com"
		}
		defaultModel = "deepseek-chat"
	case "ollama":
		llmBaseURL = os.Getenv("OLLAMA_LLM_BASE_URL")
		if llmBaseURL == "" {
			llmBaseURL = "http://localhost:11434"
		}
		defaultModel = "llama3.1:8b"
	default:
		llmBaseURL = os.Getenv("LLM_BASE_URL")
		defaultModel = "gpt-4o-mini"
	}

	embedderProvider := getEnvOrDefault("EMBEDDING_PROVIDER", "openai")
	embedderModel := os.Getenv("EMBEDDING_MODEL")
	embedderDims, _ := strconv.Atoi(getEnvOrDefault("EMBEDDING_DIMS", "0"))

	var embedderBaseURL string
	switch embedderProvider {
	case "ollama":
		embedderBaseURL = os.Getenv("OLLAMA_EMBEDDING_BASE_URL")
		if embedderBaseURL == "" {
			embedderBaseURL = "http://localhost:11434"
		}
		if embedderModel == "" {
			embedderModel = "nomic-embed-text"
		}
	default:
		embedderBaseURL = os.Getenv("EMBEDDING_BASE_URL")
		if embedderModel == "" {
			embedderModel = "text-embedding-3-small"
		}
	}

	pipelineCfg := DefaultPipelineConfig()
	pipelineCfg.Infer = getEnvBool("PIPELINE_INFER", pipelineCfg.Infer)
	pipelineCfg.Extract = getEnvBool("PIPELINE_EXTRACT", pipelineCfg.Extract)
	pipelineCfg.Deduplicate = getEnvBool("PIPELINE_DEDUPLICATE", pipelineCfg.Deduplicate)
	if limit, err := strconv.Atoi(os.Getenv("PIPELINE_SEARCH_LIMIT")); err == nil && limit > 0 {
		pipelineCfg.SearchLimit = limit
	}
	if score, err := strconv.ParseFloat(os.Getenv("PIPELINE_MIN_SCORE"), 64); err == nil {
		pipelineCfg.MinScore = score
	}

	attachmentCfg := &AttachmentConfig{}
	if mb, err := strconv.ParseInt(os.Getenv("ATTACHMENT_MAX_SIZE_MB"), 10, 64); err == nil && mb > 0 {
		attachmentCfg.MaxSizeBytes = mb * 1024 * 1024
	}

	config := &Config{
		LLM: LLMConfig{
			Provider: llmProvider,
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", defaultModel),
			BaseURL:  llmBaseURL,
		},
		Embedder: EmbedderConfig{
			Provider:   embedderProvider,
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      embedderModel,
			BaseURL:    embedderBaseURL,
			Dimensions: embedderDims,
		},
		VectorStore: VectorStoreConfig{
			Provider: provider,
			Config:   vectorStoreConfig,
		},
		Pipeline:   pipelineCfg,
		Attachment: attachmentCfg,
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// Checks that all required fields are set:
//   - LLM provider must be specified
//   - Embedder provider must be specified
//   - Vector store provider must be specified
//
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return NewMemoryError("Validate", ErrInvalidConfig)
	}
	if c.Embedder.Provider == "" {
		return NewMemoryError("Validate", ErrInvalidConfig)
	}
	if c.VectorStore.Provider == "" {
		return NewMemoryError("Validate", ErrInvalidConfig)
	}
	return nil
}

// pipelineConfig returns the effective pipeline configuration, falling back
// to defaults when the section is absent.
func (c *Config) pipelineConfig() *PipelineConfig {
	if c.Pipeline != nil {
		return c.Pipeline
	}
	return DefaultPipelineConfig()
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool parses a boolean environment variable, returning the default
// when unset or unparsable.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	// First check the current directory
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	// Check project root directory (search upward)
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
