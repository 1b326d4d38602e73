package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes one corpus source document.
type SourceConfig struct {
	ID     string `yaml:"id"`
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // text | pdf
}

// ChunkerConfig configures how documents are split into chunks.
// ChunkOverlap is a pointer so an explicit 0 is distinguishable from an
// absent key: absent gets the default, explicit 0 is kept and rejected
// by the chunker.
type ChunkerConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap *int `yaml:"chunk_overlap"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// GeminiConfig holds configuration for Gemini embedding or generation.
type GeminiConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"` // tfidf | openai | gemini
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Gemini *GeminiConfig         `yaml:"gemini,omitempty"`
}

// GeneratorConfig selects and configures the answer generation backend.
// The openai type speaks the OpenAI-compatible chat API and covers DeepSeek
// via base_url.
type GeneratorConfig struct {
	Type        string        `yaml:"type"` // openai | deepseek | gemini
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Model       string        `yaml:"model"`
	TimeoutSecs int           `yaml:"timeout_secs"`
	Gemini      *GeminiConfig `yaml:"gemini,omitempty"`
}

// RetrievalConfig holds the query-time fan-out knobs. MMRLambda is a
// pointer because 0 is a valid setting (pure diversity) distinct from an
// absent key.
type RetrievalConfig struct {
	TopK      int      `yaml:"top_k"`
	FetchK    int      `yaml:"fetch_k"` // 0 = max(20, 3*top_k)
	Diversity bool     `yaml:"diversity"`
	MMRLambda *float64 `yaml:"mmr_lambda"`
}

// ExpansionRule appends hint terms when its keyword occurs in a query.
type ExpansionRule struct {
	Keyword string   `yaml:"keyword"`
	Hints   []string `yaml:"hints"`
}

// ServerConfig configures the HTTP layer.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	StorageDir string          `yaml:"storage_dir"`
	Sources    []SourceConfig  `yaml:"sources"`
	Chunker    ChunkerConfig   `yaml:"chunker"`
	Embedder   EmbedderConfig  `yaml:"embedder"`
	Generator  GeneratorConfig `yaml:"generator"`
	Retrieval  RetrievalConfig `yaml:"retrieval"`
	Expansion  []ExpansionRule `yaml:"expansion"`
	Server     ServerConfig    `yaml:"server"`
}

// IndexDir returns the directory holding the persisted index.
func (c *AppConfig) IndexDir() string {
	return filepath.Join(c.StorageDir, "index")
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
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *AppConfig) error {
	for _, s := range cfg.Sources {
		if s.ID == "" || s.Path == "" {
			return fmt.Errorf("source entries need id and path")
		}
		if s.Format != "text" && s.Format != "pdf" {
			return fmt.Errorf("source %s: format must be text or pdf", s.ID)
		}
	}
	if l := *cfg.Retrieval.MMRLambda; l < 0 || l > 1 {
		return fmt.Errorf("retrieval.mmr_lambda must be in [0,1]")
	}
	return nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.StorageDir == "" {
		cfg.StorageDir = "storage"
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = []SourceConfig{
			{ID: "constitution", Path: "data/indian_constitution.txt", Format: "text"},
			{ID: "penal_code", Path: "data/a2023-45.pdf", Format: "pdf"},
		}
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1800
	}
	if cfg.Chunker.ChunkOverlap == nil {
		overlap := 200
		cfg.Chunker.ChunkOverlap = &overlap
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}
	if cfg.Embedder.Type == "gemini" {
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &GeminiConfig{}
		}
		if cfg.Embedder.Gemini.APIKeyEnv == "" {
			cfg.Embedder.Gemini.APIKeyEnv = "GEMINI_API_KEY"
		}
		if cfg.Embedder.Gemini.Model == "" {
			cfg.Embedder.Gemini.Model = "gemini-embedding-001"
		}
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "deepseek"
	}
	switch cfg.Generator.Type {
	case "deepseek":
		if cfg.Generator.BaseURL == "" {
			cfg.Generator.BaseURL = "https://api.deepseek.com/v1"
		}
		if cfg.Generator.APIKeyEnv == "" {
			cfg.Generator.APIKeyEnv = "DEEPSEEK_API_KEY"
		}
		if cfg.Generator.Model == "" {
			cfg.Generator.Model = "deepseek-chat"
		}
	case "openai":
		if cfg.Generator.BaseURL == "" {
			cfg.Generator.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Generator.APIKeyEnv == "" {
			cfg.Generator.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Generator.Model == "" {
			cfg.Generator.Model = "gpt-4o-mini"
		}
	case "gemini":
		if cfg.Generator.Gemini == nil {
			cfg.Generator.Gemini = &GeminiConfig{}
		}
		if cfg.Generator.Gemini.APIKeyEnv == "" {
			cfg.Generator.Gemini.APIKeyEnv = "GEMINI_API_KEY"
		}
		if cfg.Generator.Gemini.Model == "" {
			cfg.Generator.Gemini.Model = "gemini-1.5-flash"
		}
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 60
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 20
	}
	if cfg.Retrieval.MMRLambda == nil {
		lambda := 0.5
		cfg.Retrieval.MMRLambda = &lambda
	}
	if len(cfg.Expansion) == 0 {
		cfg.Expansion = DefaultExpansion()
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
}

// DefaultExpansion is the built-in keyword-hint table for high-traffic
// constitutional topics. Kept as data so deployments can replace it in
// the config file without code changes.
func DefaultExpansion() []ExpansionRule {
	return []ExpansionRule{
		{Keyword: "article 14", Hints: []string{"equality", "before", "law", "equal", "protection"}},
		{Keyword: "article 19", Hints: []string{"freedom", "of", "speech", "expression", "assembly"}},
		{Keyword: "article 21", Hints: []string{"right", "to", "life", "personal", "liberty"}},
		{Keyword: "theft", Hints: []string{"dishonestly", "movable", "property", "consent"}},
		{Keyword: "privacy", Hints: []string{"article", "21", "personal", "liberty"}},
	}
}
