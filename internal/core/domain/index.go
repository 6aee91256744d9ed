package domain

import (
	"fmt"
	"regexp"
	"time"
)

// IndexMode selects how records are laid out in the vector store.
type IndexMode string

const (
	// SingleCollectionMode stores one vector per document record in one collection.
	SingleCollectionMode IndexMode = "document"

	// DualCollectionMode stores question and answer vectors in two collections
	// that share the record id space.
	DualCollectionMode IndexMode = "faq"
)

// ParseIndexMode converts a user supplied mode name.
func ParseIndexMode(s string) (IndexMode, error) {
	switch IndexMode(s) {
	case SingleCollectionMode, DualCollectionMode:
		return IndexMode(s), nil
	case "":
		return SingleCollectionMode, nil
	default:
		return "", fmt.Errorf("%w: unknown index mode %q", ErrInvalidInput, s)
	}
}

// FieldMapping names the raw record fields the preparator reads.
// Content is used in SingleCollectionMode, Question and Answer in DualCollectionMode.
type FieldMapping struct {
	ID       string `toml:"id"`
	Content  string `toml:"content,omitempty"`
	Question string `toml:"question,omitempty"`
	Answer   string `toml:"answer,omitempty"`
}

// Validate checks that every field required by mode is named.
func (m FieldMapping) Validate(mode IndexMode) error {
	if m.ID == "" {
		return fmt.Errorf("%w: id field is required", ErrInvalidInput)
	}
	switch mode {
	case SingleCollectionMode:
		if m.Content == "" {
			return fmt.Errorf("%w: content field is required", ErrInvalidInput)
		}
	case DualCollectionMode:
		if m.Question == "" || m.Answer == "" {
			return fmt.Errorf("%w: question and answer fields are required", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown index mode %q", ErrInvalidInput, mode)
	}
	return nil
}

// Collections holds the vector store collection names of an index.
type Collections struct {
	Documents string `toml:"documents,omitempty"`
	Questions string `toml:"questions,omitempty"`
	Answers   string `toml:"answers,omitempty"`
}

// DefaultCollections derives collection names from the index name.
func DefaultCollections(name string, mode IndexMode) Collections {
	if mode == DualCollectionMode {
		return Collections{
			Questions: name + "_questions",
			Answers:   name + "_answers",
		}
	}
	return Collections{Documents: name}
}

// Names lists the collections used by mode, primary collection first.
func (c Collections) Names(mode IndexMode) []string {
	if mode == DualCollectionMode {
		return []string{c.Questions, c.Answers}
	}
	return []string{c.Documents}
}

var indexNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateIndexName checks the name is usable as a directory and collection name.
func ValidateIndexName(name string) error {
	if !indexNamePattern.MatchString(name) {
		return fmt.Errorf("%w: index name %q must match %s", ErrInvalidInput, name, indexNamePattern)
	}
	return nil
}

// IndexSpec describes an index to create.
type IndexSpec struct {
	Name        string
	Mode        IndexMode
	Fields      FieldMapping
	Collections Collections
	ModelKind   string

	// Overwrite replaces an existing index of the same name.
	Overwrite bool
}

// Normalise validates the spec and fills defaulted fields.
func (s IndexSpec) Normalise() (IndexSpec, error) {
	if err := ValidateIndexName(s.Name); err != nil {
		return s, err
	}
	if s.Mode == "" {
		s.Mode = SingleCollectionMode
	}
	if err := s.Fields.Validate(s.Mode); err != nil {
		return s, err
	}
	def := DefaultCollections(s.Name, s.Mode)
	if s.Collections.Documents == "" {
		s.Collections.Documents = def.Documents
	}
	if s.Collections.Questions == "" {
		s.Collections.Questions = def.Questions
	}
	if s.Collections.Answers == "" {
		s.Collections.Answers = def.Answers
	}
	if s.Mode == DualCollectionMode && s.Collections.Questions == s.Collections.Answers {
		return s, fmt.Errorf("%w: question and answer collections must differ", ErrInvalidInput)
	}
	if s.ModelKind == "" {
		s.ModelKind = DefaultModelKind
	}
	return s, nil
}

// IndexManifest is the preparator configuration and model metadata persisted
// with every index bundle. Together with the model state it is enough to
// reconstruct a synchronizer.
type IndexManifest struct {
	Name          string       `toml:"name"`
	Mode          IndexMode    `toml:"mode"`
	Fields        FieldMapping `toml:"fields"`
	Collections   Collections  `toml:"collections"`
	ModelKind     string       `toml:"model_kind"`
	EmbeddingSize int          `toml:"embedding_size"`
	Generation    string       `toml:"generation"`
	RecordCount   int          `toml:"record_count"`
	CreatedAt     time.Time    `toml:"created_at"`
	TrainedAt     time.Time    `toml:"trained_at"`
}

// NewManifest creates a manifest for a normalised spec.
func NewManifest(spec IndexSpec) *IndexManifest {
	return &IndexManifest{
		Name:        spec.Name,
		Mode:        spec.Mode,
		Fields:      spec.Fields,
		Collections: spec.Collections,
		ModelKind:   spec.ModelKind,
		CreatedAt:   time.Now(),
	}
}

// CollectionNames lists the collections of the index, primary first.
func (m IndexManifest) CollectionNames() []string {
	return m.Collections.Names(m.Mode)
}
