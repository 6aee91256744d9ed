package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/logger"
)

// maxExactFloatID is the largest integer a float64 represents exactly.
const maxExactFloatID = 1 << 53

// Preparator converts raw records into validated domain records.
// Records that fail validation are dropped without an error.
type Preparator struct {
	mode   domain.IndexMode
	fields domain.FieldMapping
}

// NewPreparator creates a preparator for mode reading the given fields.
func NewPreparator(mode domain.IndexMode, fields domain.FieldMapping) (*Preparator, error) {
	if err := fields.Validate(mode); err != nil {
		return nil, fmt.Errorf("preparator: %w", err)
	}
	return &Preparator{mode: mode, fields: fields}, nil
}

// Fields returns the field mapping.
func (p *Preparator) Fields() domain.FieldMapping {
	return p.fields
}

// Convert returns the valid records in input order.
// A DocumentRecord needs a positive integer id and content longer than one
// character; a FAQRecord needs the same of its question and answer.
func (p *Preparator) Convert(records []domain.RawRecord) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, raw := range records {
		if rec, ok := p.convert(raw); ok {
			out = append(out, rec)
		}
	}
	if dropped := len(records) - len(out); dropped > 0 {
		logger.Debug("preparator dropped %d of %d records", dropped, len(records))
	}
	return out
}

func (p *Preparator) convert(raw domain.RawRecord) (domain.Record, bool) {
	idValue, _ := raw.Field(p.fields.ID)
	id, ok := parseID(idValue)
	if !ok {
		return nil, false
	}

	if p.mode == domain.DualCollectionMode {
		question, ok := textField(raw, p.fields.Question)
		if !ok {
			return nil, false
		}
		answer, ok := textField(raw, p.fields.Answer)
		if !ok {
			return nil, false
		}
		return domain.FAQRecord{ID: id, Question: question, Answer: answer}, true
	}

	content, ok := textField(raw, p.fields.Content)
	if !ok {
		return nil, false
	}
	return domain.DocumentRecord{ID: id, Content: content}, true
}

// parseID accepts positive integral numbers in the forms JSON and YAML
// decoders produce, plus decimal strings.
func parseID(v any) (int64, bool) {
	var id int64
	switch n := v.(type) {
	case int:
		id = int64(n)
	case int32:
		id = int64(n)
	case int64:
		id = n
	case uint32:
		id = int64(n)
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		id = int64(n)
	case float64:
		if n != math.Trunc(n) || n > maxExactFloatID {
			return 0, false
		}
		id = int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		id = i
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		id = i
	default:
		return 0, false
	}
	return id, id > 0
}

func textField(raw domain.RawRecord, key string) (string, bool) {
	v, _ := raw.Field(key)
	s, ok := v.(string)
	if !ok || utf8.RuneCountInString(s) <= 1 {
		return "", false
	}
	return s, true
}

// Diff computes the delta from oldRecords to newRecords.
//
// A new record goes to toUpdate when no old record has its id or the old
// record differs in any field. An old record whose id is absent from
// newRecords goes to toDelete. Unchanged records appear in neither.
func Diff(newRecords, oldRecords []domain.Record) (toUpdate, toDelete []domain.Record) {
	oldByID := make(map[int64]domain.Record, len(oldRecords))
	for _, r := range oldRecords {
		oldByID[r.RecordID()] = r
	}

	newIDs := make(map[int64]struct{}, len(newRecords))
	for _, r := range newRecords {
		newIDs[r.RecordID()] = struct{}{}
		if old, ok := oldByID[r.RecordID()]; !ok || old != r {
			toUpdate = append(toUpdate, r)
		}
	}

	for _, r := range oldRecords {
		if _, ok := newIDs[r.RecordID()]; !ok {
			toDelete = append(toDelete, r)
		}
	}
	return toUpdate, toDelete
}
