// Package file provides a filesystem BundleStore.
//
// Each index lives in its own directory under the root:
//
//	<root>/<name>/manifest.toml
//	<root>/<name>/<model kind>/...
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// ManifestFile is the manifest file name inside an index directory.
const ManifestFile = "manifest.toml"

// Ensure Store implements the interface.
var _ driven.BundleStore = (*Store)(nil)

// Store keeps index bundles on disk.
type Store struct {
	root string
}

// NewStore creates a bundle store rooted at root.
// If root is empty, defaults to ~/.sercha-index/indexes.
func NewStore(root string) (*Store, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		root = filepath.Join(home, ".sercha-index", "indexes")
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("create bundle root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the bundle directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) indexDir(name string) (string, error) {
	if err := domain.ValidateIndexName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// SaveManifest writes <root>/<name>/manifest.toml.
func (s *Store) SaveManifest(_ context.Context, manifest *domain.IndexManifest) error {
	dir, err := s.indexDir(manifest.Name)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	return writeAtomic(filepath.Join(dir, ManifestFile), data)
}

// SaveModel writes model state into <root>/<name>/<kind>/.
func (s *Store) SaveModel(_ context.Context, name string, model driven.Vectorizer) error {
	dir, err := s.indexDir(name)
	if err != nil {
		return err
	}
	if err := model.Save(filepath.Join(dir, model.Kind())); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// LoadManifest reads the manifest of name.
func (s *Store) LoadManifest(_ context.Context, name string) (*domain.IndexManifest, error) {
	dir, err := s.indexDir(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, name)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest domain.IndexManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if manifest.Name != name {
		return nil, fmt.Errorf("decode manifest: %w: manifest names %q", domain.ErrInvalidInput, manifest.Name)
	}
	return &manifest, nil
}

// LoadModel restores model state from <root>/<name>/<kind>/.
func (s *Store) LoadModel(_ context.Context, name string, model driven.Vectorizer) error {
	dir, err := s.indexDir(name)
	if err != nil {
		return err
	}
	modelDir := filepath.Join(dir, model.Kind())
	info, err := os.Stat(modelDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s has no %s model", domain.ErrIndexNotFound, name, model.Kind())
	}
	if err := model.Load(modelDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s: %v", domain.ErrIndexNotFound, name, err)
		}
		return fmt.Errorf("load model: %w", err)
	}
	return nil
}

// Exists reports whether a manifest exists for name.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	dir, err := s.indexDir(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(dir, ManifestFile))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// List returns the names of directories that hold a manifest.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || domain.ValidateIndexName(entry.Name()) != nil {
			continue
		}
		ok, err := s.Exists(ctx, entry.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the index directory. Deleting a missing index is a no-op.
func (s *Store) Delete(_ context.Context, name string) error {
	dir, err := s.indexDir(name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
