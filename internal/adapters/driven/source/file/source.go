// Package file reads record corpora from JSON, JSON Lines and YAML files
// and watches them for changes.
package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.RecordSource = (*Source)(nil)

// Format is a corpus file encoding.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: corpus file %s", domain.ErrUnsupportedType, filepath.Base(path))
	}
}

// Source loads every record of one corpus file.
type Source struct {
	path   string
	format Format
}

// New creates a source for path, detecting the format from its extension.
func New(path string) (*Source, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	return &Source{path: path, format: format}, nil
}

// Location returns the file path.
func (s *Source) Location() string {
	return s.path
}

// Load reads and decodes the file.
func (s *Source) Load(ctx context.Context) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	records, err := Decode(bytes.NewReader(data), s.format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(s.path), err)
	}
	return records, nil
}

// Decode reads records in the given format.
// JSON numbers are kept as json.Number so large ids survive intact.
func Decode(r io.Reader, format Format) ([]domain.RawRecord, error) {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		var items []map[string]any
		if err := dec.Decode(&items); err != nil {
			return nil, err
		}
		return toRecords(items), nil

	case FormatJSONL:
		return decodeLines(r)

	case FormatYAML:
		var items []map[string]any
		if err := yaml.NewDecoder(r).Decode(&items); err != nil {
			if errors.Is(err, io.EOF) {
				return []domain.RawRecord{}, nil
			}
			return nil, err
		}
		return toRecords(items), nil

	default:
		return nil, fmt.Errorf("%w: format %q", domain.ErrUnsupportedType, format)
	}
}

func decodeLines(r io.Reader) ([]domain.RawRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	records := []domain.RawRecord{}
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		var item map[string]any
		if err := dec.Decode(&item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, domain.RawRecord(item))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func toRecords(items []map[string]any) []domain.RawRecord {
	records := make([]domain.RawRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, domain.RawRecord(item))
	}
	return records
}
