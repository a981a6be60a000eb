package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ModelConfig names the Gemini models and the env var carrying the API key.
type ModelConfig struct {
	APIKeyEnv       string  `yaml:"api_key_env"`
	BaseURL         string  `yaml:"base_url"`
	GenerationModel string  `yaml:"generation_model"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	Temperature     float64 `yaml:"temperature"`
	TimeoutSecs     int     `yaml:"timeout_secs"`
}

// SummarizerConfig controls surrogate generation.
type SummarizerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// RetrievalConfig controls similarity search at query time.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the surrogate store backend.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"` // local | qdrant
	Dir    string        `yaml:"dir"`  // local backend persistence directory
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// UnstructuredConfig configures the hosted partitioning service client.
type UnstructuredConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkingConfig carries the by-title chunking knobs forwarded to the
// partitioning service.
type ChunkingConfig struct {
	MaxChars     int `yaml:"max_chars"`
	CombineUnder int `yaml:"combine_under"`
	NewAfter     int `yaml:"new_after"`
}

// PartitionerConfig selects how PDFs are turned into elements.
type PartitionerConfig struct {
	Type         string              `yaml:"type"` // local | unstructured
	Unstructured *UnstructuredConfig `yaml:"unstructured,omitempty"`
	Chunking     ChunkingConfig      `yaml:"chunking"`
}

// PathsConfig locates the persisted artifacts.
type PathsConfig struct {
	Docstore string `yaml:"docstore"`
	Registry string `yaml:"registry"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Model       ModelConfig       `yaml:"model"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Partitioner PartitionerConfig `yaml:"partitioner"`
	Paths       PathsConfig       `yaml:"paths"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/multirag/config.yaml.
// If neither exists, it writes defaults to ~/.config/multirag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// APIKey resolves the model credential from the environment.
func (c *AppConfig) APIKey() string {
	return os.Getenv(c.Model.APIKeyEnv)
}

// Validate fails fast when critical configuration is missing, before any
// pipeline work starts.
func (c *AppConfig) Validate() error {
	if c.APIKey() == "" {
		return fmt.Errorf(
			"%s is not set; export it or add it to a .env file in the working directory",
			c.Model.APIKeyEnv,
		)
	}
	if c.VectorStore.Type == "qdrant" && c.VectorStore.Qdrant == nil {
		return errors.New("vector_store.qdrant config missing")
	}
	if c.Partitioner.Type == "unstructured" &&
		(c.Partitioner.Unstructured == nil || c.Partitioner.Unstructured.URL == "") {
		return errors.New("partitioner.unstructured.url missing")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "multirag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Model.APIKeyEnv == "" {
		cfg.Model.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if cfg.Model.BaseURL == "" {
		cfg.Model.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model.GenerationModel == "" {
		cfg.Model.GenerationModel = "gemini-2.0-flash"
	}
	if cfg.Model.EmbeddingModel == "" {
		cfg.Model.EmbeddingModel = "gemini-embedding-001"
	}
	if cfg.Model.Temperature == 0 {
		cfg.Model.Temperature = 0.3
	}
	if cfg.Model.TimeoutSecs == 0 {
		cfg.Model.TimeoutSecs = 60
	}
	if cfg.Summarizer.Concurrency == 0 {
		cfg.Summarizer.Concurrency = 3
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 6
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "local"
	}
	if cfg.VectorStore.Dir == "" {
		cfg.VectorStore.Dir = "vector_db"
	}
	if cfg.Partitioner.Type == "" {
		cfg.Partitioner.Type = "local"
	}
	if cfg.Partitioner.Chunking.MaxChars == 0 {
		cfg.Partitioner.Chunking.MaxChars = 10000
	}
	if cfg.Partitioner.Chunking.CombineUnder == 0 {
		cfg.Partitioner.Chunking.CombineUnder = 2000
	}
	if cfg.Partitioner.Chunking.NewAfter == 0 {
		cfg.Partitioner.Chunking.NewAfter = 6000
	}
	if cfg.Partitioner.Unstructured != nil && cfg.Partitioner.Unstructured.TimeoutSecs == 0 {
		cfg.Partitioner.Unstructured.TimeoutSecs = 300
	}
	if cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "multimodal_rag"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Paths.Docstore == "" {
		cfg.Paths.Docstore = "docstore.json"
	}
	if cfg.Paths.Registry == "" {
		cfg.Paths.Registry = "ingested_docs.json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
