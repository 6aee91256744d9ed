// Package cli provides the sercha-index command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// SourceOpener returns the reader and change watcher for a corpus file.
type SourceOpener func(path string) (driven.RecordSource, driven.RecordWatcher, error)

// Services holds the core services the commands run against.
type Services struct {
	Catalog    driving.IndexCatalog
	Config     driven.ConfigStore
	OpenSource SourceOpener

	// Close releases the vector store and other resources. Optional.
	Close func() error
}

// ServiceFactory builds Services once flags are parsed.
type ServiceFactory func(configDir string) (*Services, error)

var (
	indexCatalog driving.IndexCatalog
	configStore  driven.ConfigStore
	openSource   SourceOpener
	closeFn      func() error

	serviceFactory ServiceFactory
)

// Persistent flag values.
var (
	verbose   bool
	configDir string
)

// noServices marks commands that run without the core services.
const noServices = "no-services"

var rootCmd = &cobra.Command{
	Use:   "sercha-index",
	Short: "Keep semantic search indexes in step with their corpus",
	Long: `sercha-index trains a TF-IDF model on a corpus of documents or FAQ pairs,
stores the vectors in SQLite or Qdrant and keeps them in sync as records are
added, changed or removed.

Indexes are created from JSON, JSONL or YAML record files and are queried by
meaning: plain nearest-neighbour search, thresholded similar search and
duplicate detection.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Annotations[noServices] == "true" {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline details to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.sercha-index)")
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices installs ready-made services.
func SetServices(s *Services) {
	if s == nil {
		indexCatalog, configStore, openSource, closeFn = nil, nil, nil, nil
		return
	}
	indexCatalog = s.Catalog
	configStore = s.Config
	openSource = s.OpenSource
	closeFn = s.Close
}

// SetServiceFactory installs a factory that builds services on first use.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

func initServices() error {
	if indexCatalog != nil || serviceFactory == nil {
		return nil
	}
	s, err := serviceFactory(configDir)
	if err != nil {
		return fmt.Errorf("initialise services: %w", err)
	}
	SetServices(s)
	return nil
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.ExecuteContext(ctx)
	if closeFn != nil {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = fmt.Errorf("close services: %w", cerr)
		}
	}
	return err
}

func requireCatalog() (driving.IndexCatalog, error) {
	if indexCatalog == nil {
		return nil, errors.New("index catalog not configured")
	}
	return indexCatalog, nil
}

// openIndex opens the named index from the catalog.
func openIndex(ctx context.Context, name string) (driving.IndexService, error) {
	catalog, err := requireCatalog()
	if err != nil {
		return nil, err
	}
	return catalog.Open(ctx, name)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
