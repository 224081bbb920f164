// Package app constructs and owns the application's components. All
// dependencies are wired explicitly here; nothing is global.
package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/a-marczewski/temporalmem/internal/config"
	"github.com/a-marczewski/temporalmem/internal/embeddings"
	"github.com/a-marczewski/temporalmem/internal/extract"
	"github.com/a-marczewski/temporalmem/internal/logging"
	"github.com/a-marczewski/temporalmem/internal/memory"
	"github.com/a-marczewski/temporalmem/internal/storage"
	"github.com/a-marczewski/temporalmem/internal/vector"
)

// App holds the wired application components
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *storage.DB
	Memory *memory.Service
}

// New loads configuration and wires logger, stores, external providers
// and the memory service
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := storage.NewStore(db)

	index, err := vector.NewChromemIndex(cfg.VectorPath, cfg.VectorCollection)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open vector index: %w", err)
	}

	embedder, err := embeddings.New(cfg.EmbeddingProvider, cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDims)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	extractor := extract.NewLLMExtractor(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, float32(cfg.LLMTemperature), logger)

	svc := memory.NewService(store, extractor, embedder, index, logger, memory.Options{
		ConfidenceFloor:   cfg.ConfidenceFloor,
		UpdatePreservesID: cfg.UpdatePreservesID,
		SearchLimit:       cfg.SearchLimit,
	})

	return &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Memory: svc,
	}, nil
}

// Close releases application resources
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("failed to close database", zap.Error(err))
		}
	}
	if a.Logger != nil {
		if err := a.Logger.Sync(); err != nil && !ignorableSyncError(err) {
			fmt.Printf("error syncing logger: %v\n", err)
		}
	}
}

// ignorableSyncError filters the sync errors zap reports for stderr
// sinks on platforms where fsync on a terminal fails
func ignorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") ||
		strings.Contains(msg, "inappropriate ioctl for device") ||
		strings.Contains(msg, "bad file descriptor")
}
