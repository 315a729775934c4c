package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docchat/internal/domain"
)

// ChunkerConfig configures how document text is split into chunks.
// Size and overlap are measured in bytes of UTF-8 text.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbedderConfig selects and configures the embedding oracle client.
type EmbedderConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  int    `yaml:"max_retries"`
}

// LLMConfig configures the generative oracle client.
type LLMConfig struct {
	Type          string  `yaml:"type"`
	Model         string  `yaml:"model"`
	BaseURL       string  `yaml:"base_url"`
	APIKeyEnv     string  `yaml:"api_key_env"`
	TimeoutSecs   int     `yaml:"timeout_secs"`
	Temperature   float64 `yaml:"temperature"`
	NumCtx        int     `yaml:"num_ctx"`
	NumPredict    int     `yaml:"num_predict"`
	RepeatPenalty float64 `yaml:"repeat_penalty"`
}

// QueryConfig holds retrieval-time tunables.
type QueryConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DocsDir          string         `yaml:"docs_dir"`
	IndexPath        string         `yaml:"index_path"`
	SystemPromptPath string         `yaml:"system_prompt_path"`
	Chunker          ChunkerConfig  `yaml:"chunker"`
	Embedder         EmbedderConfig `yaml:"embedder"`
	LLM              LLMConfig      `yaml:"llm"`
	Query            QueryConfig    `yaml:"query"`
	Verbose          bool           `yaml:"verbose"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
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

// LoadDefault tries ./config.yaml first, then ~/.config/docchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/docchat/config.yaml and
// returns them.
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

// Validate checks all tunables once at startup so misconfiguration is
// rejected before any component runs.
func (cfg *AppConfig) Validate() error {
	if cfg.Chunker.Size <= 0 {
		return fmt.Errorf("%w: chunker size must be positive, got %d", domain.ErrInvalidConfig, cfg.Chunker.Size)
	}
	if cfg.Chunker.Overlap < 0 || cfg.Chunker.Overlap >= cfg.Chunker.Size {
		return fmt.Errorf("%w: chunker overlap %d must be in [0, size), size %d", domain.ErrInvalidConfig, cfg.Chunker.Overlap, cfg.Chunker.Size)
	}
	if cfg.Query.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidConfig, cfg.Query.TopK)
	}
	switch cfg.Embedder.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown embedder type %q", domain.ErrInvalidConfig, cfg.Embedder.Type)
	}
	switch cfg.LLM.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown llm type %q", domain.ErrInvalidConfig, cfg.LLM.Type)
	}
	if cfg.Embedder.TimeoutSecs <= 0 || cfg.LLM.TimeoutSecs <= 0 {
		return fmt.Errorf("%w: oracle timeouts must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		DocsDir:          "training-data",
		IndexPath:        filepath.Join("data", "index", "index.gob"),
		SystemPromptPath: "system_prompt.txt",
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.DocsDir == "" {
		cfg.DocsDir = "training-data"
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = filepath.Join("data", "index", "index.gob")
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 500
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 50
		}
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = 5
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "nomic-embed-text"
	}
	if cfg.Embedder.BaseURL == "" {
		switch cfg.Embedder.Type {
		case "openai":
			cfg.Embedder.BaseURL = "https://api.openai.com/v1"
		default:
			cfg.Embedder.BaseURL = "http://localhost:11434"
		}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Embedder.MaxRetries == 0 {
		cfg.Embedder.MaxRetries = 3
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "ollama"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "qwen3:1.7b"
	}
	if cfg.LLM.BaseURL == "" {
		switch cfg.LLM.Type {
		case "openai":
			cfg.LLM.BaseURL = "https://api.openai.com/v1"
		default:
			cfg.LLM.BaseURL = "http://localhost:11434"
		}
	}
	if cfg.LLM.Type == "openai" && cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 300
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.LLM.NumCtx == 0 {
		cfg.LLM.NumCtx = 4096
	}
	if cfg.LLM.NumPredict == 0 {
		cfg.LLM.NumPredict = 1024
	}
	if cfg.LLM.RepeatPenalty == 0 {
		cfg.LLM.RepeatPenalty = 1.1
	}
}
