// Package config loads application configuration from a TOML file with
// environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultLLMModel        = "gpt-4.1-mini"
	DefaultEmbeddingModel  = "text-embedding-3-small"
	DefaultEmbeddingDims   = 384
	DefaultConfidenceFloor = 0.5
	DefaultSearchLimit     = 10
	DefaultLogLevel        = "info"
)

// Config holds the resolved application configuration
type Config struct {
	DataDir          string
	DBPath           string
	VectorPath       string
	VectorCollection string

	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64

	EmbeddingProvider string
	EmbeddingBaseURL  string
	EmbeddingAPIKey   string
	EmbeddingModel    string
	EmbeddingDims     int

	ConfidenceFloor   float64
	UpdatePreservesID bool
	SearchLimit       int

	LogLevel string
	LogFile  string
}

// fileConfig is the on-disk TOML shape
type fileConfig struct {
	Storage struct {
		DataDir    string `toml:"data_dir"`
		DBPath     string `toml:"db_path"`
		VectorPath string `toml:"vector_path"`
		Collection string `toml:"collection"`
	} `toml:"storage"`
	LLM struct {
		BaseURL     string  `toml:"base_url"`
		APIKey      string  `toml:"api_key"`
		Model       string  `toml:"model"`
		Temperature float64 `toml:"temperature"`
	} `toml:"llm"`
	Embedding struct {
		Provider   string `toml:"provider"`
		BaseURL    string `toml:"base_url"`
		APIKey     string `toml:"api_key"`
		Model      string `toml:"model"`
		Dimensions int    `toml:"dimensions"`
	} `toml:"embedding"`
	Memory struct {
		ConfidenceFloor   float64 `toml:"confidence_floor"`
		UpdatePreservesID bool    `toml:"update_preserves_id"`
		SearchLimit       int     `toml:"search_limit"`
	} `toml:"memory"`
	Logging struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"logging"`
}

// Load reads configuration from path (optional), fills defaults and
// applies environment overrides. A missing file is not an error; the
// defaults stand.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.toml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		applyFile(cfg, &fc)
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "memories.db")
	}
	if cfg.VectorPath == "" {
		cfg.VectorPath = filepath.Join(cfg.DataDir, "vectors")
	}
	return cfg, nil
}

func defaults() *Config {
	dataDir := ".temporalmem"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".temporalmem")
	}
	return &Config{
		DataDir:           dataDir,
		VectorCollection:  "memories",
		LLMModel:          DefaultLLMModel,
		EmbeddingProvider: "simple",
		EmbeddingModel:    DefaultEmbeddingModel,
		EmbeddingDims:     DefaultEmbeddingDims,
		ConfidenceFloor:   DefaultConfidenceFloor,
		SearchLimit:       DefaultSearchLimit,
		LogLevel:          DefaultLogLevel,
	}
}

func applyFile(cfg *Config, fc *fileConfig) {
	if fc.Storage.DataDir != "" {
		cfg.DataDir = fc.Storage.DataDir
	}
	if fc.Storage.DBPath != "" {
		cfg.DBPath = fc.Storage.DBPath
	}
	if fc.Storage.VectorPath != "" {
		cfg.VectorPath = fc.Storage.VectorPath
	}
	if fc.Storage.Collection != "" {
		cfg.VectorCollection = fc.Storage.Collection
	}

	if fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if fc.LLM.Temperature > 0 {
		cfg.LLMTemperature = fc.LLM.Temperature
	}

	if fc.Embedding.Provider != "" {
		cfg.EmbeddingProvider = fc.Embedding.Provider
	}
	if fc.Embedding.BaseURL != "" {
		cfg.EmbeddingBaseURL = fc.Embedding.BaseURL
	}
	if fc.Embedding.APIKey != "" {
		cfg.EmbeddingAPIKey = fc.Embedding.APIKey
	}
	if fc.Embedding.Model != "" {
		cfg.EmbeddingModel = fc.Embedding.Model
	}
	if fc.Embedding.Dimensions > 0 {
		cfg.EmbeddingDims = fc.Embedding.Dimensions
	}

	if fc.Memory.ConfidenceFloor > 0 {
		cfg.ConfidenceFloor = fc.Memory.ConfidenceFloor
	}
	cfg.UpdatePreservesID = fc.Memory.UpdatePreservesID
	if fc.Memory.SearchLimit > 0 {
		cfg.SearchLimit = fc.Memory.SearchLimit
	}

	if fc.Logging.Level != "" {
		cfg.LogLevel = fc.Logging.Level
	}
	if fc.Logging.File != "" {
		cfg.LogFile = fc.Logging.File
	}
}

// applyEnv layers environment overrides on top of the file values.
// Secrets are the main use: keys never need to live in the TOML file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TEMPORALMEM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TEMPORALMEM_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TEMPORALMEM_LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("TEMPORALMEM_LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("TEMPORALMEM_EMBEDDING_PROVIDER"); v != "" {
		cfg.EmbeddingProvider = v
	}
	if v := os.Getenv("TEMPORALMEM_EMBEDDING_DIMS"); v != "" {
		if dims, err := strconv.Atoi(v); err == nil && dims > 0 {
			cfg.EmbeddingDims = dims
		}
	}
	if v := os.Getenv("TEMPORALMEM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.LLMAPIKey == "" {
			cfg.LLMAPIKey = v
		}
		if cfg.EmbeddingAPIKey == "" {
			cfg.EmbeddingAPIKey = v
		}
	}
}
