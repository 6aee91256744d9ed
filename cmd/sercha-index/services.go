package main

import (
	"fmt"
	"os"
	"time"

	bundlefile "github.com/custodia-labs/sercha-index/internal/adapters/driven/bundle/file"
	configfile "github.com/custodia-labs/sercha-index/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-index/internal/adapters/driven/lemmatizer"
	sourcefile "github.com/custodia-labs/sercha-index/internal/adapters/driven/source/file"
	"github.com/custodia-labs/sercha-index/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-index/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/sercha-index/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-index/internal/adapters/driven/vectorizer"
	"github.com/custodia-labs/sercha-index/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-index/internal/core/services"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// Backend defaults.
const (
	defaultQdrantURL     = "http://localhost:6333"
	defaultQdrantRPS     = 20
	defaultQdrantBurst   = 5
	defaultQdrantTimeout = 30 * time.Second
)

// newServices wires the catalog from the configuration in configDir.
func newServices(configDir string) (*cli.Services, error) {
	config, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openVectorStore(config)
	if err != nil {
		return nil, err
	}

	bundles, err := bundlefile.NewStore(config.GetString("index.root"))
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("open bundle store: %w", err)
	}
	lem, err := lemmatizer.New(config.GetString("lemmatizer.language"))
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	catalog, err := services.NewCatalog(services.IndexDeps{
		Store:      store,
		Lemmatizer: lem,
		Bundles:    bundles,
		Factory:    vectorizer.NewFactory(),
		PageSize:   config.GetInt("scroll.page_size"),
	})
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	return &cli.Services{
		Catalog:    catalog,
		Config:     config,
		OpenSource: openSource,
		Close:      closeStore,
	}, nil
}

func openVectorStore(config driven.ConfigStore) (driven.VectorStore, func() error, error) {
	backend := config.GetString("store.backend")
	logger.Debug("vector store backend: %s", backend)

	switch backend {
	case "", "sqlite":
		store, err := sqlite.NewStore(config.GetString("store.path"))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store.Close, nil
	case "qdrant":
		store, err := qdrant.NewStore(qdrantConfig(config))
		if err != nil {
			return nil, nil, fmt.Errorf("open qdrant store: %w", err)
		}
		return store, store.Close, nil
	case "memory":
		return memory.NewVectorStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store.backend %q", backend)
	}
}

func qdrantConfig(config driven.ConfigStore) qdrant.Config {
	cfg := qdrant.Config{
		URL:               config.GetString("qdrant.url"),
		APIKey:            config.GetString("qdrant.api_key"),
		Timeout:           time.Duration(config.GetInt("qdrant.timeout_seconds")) * time.Second,
		RequestsPerSecond: config.GetFloat("qdrant.rps"),
		Burst:             config.GetInt("qdrant.burst"),
	}
	if cfg.URL == "" {
		cfg.URL = defaultQdrantURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("QDRANT_API_KEY")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultQdrantTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultQdrantRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultQdrantBurst
	}
	return cfg
}

func openSource(path string) (driven.RecordSource, driven.RecordWatcher, error) {
	src, err := sourcefile.New(path)
	if err != nil {
		return nil, nil, err
	}
	return src, sourcefile.NewWatcher(path, 0), nil
}
