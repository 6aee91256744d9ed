package services

import "github.com/custodia-labs/sercha-index/internal/core/domain"

// collectionRole maps records onto one collection.
type collectionRole struct {
	name string
	text func(domain.Record) string
}

// layout is the mode variant of a synchronizer. Both modes share every
// algorithm; they differ only in the collections written and queried.
type layout struct {
	mode domain.IndexMode

	// roles are written in order and deleted in reverse order.
	// roles[0] is the primary collection.
	roles []collectionRole

	// search lists the collections merged by Search.
	search []string

	// similar is the collection queried by SearchSimilar.
	similar string

	// duplicates is the collection scanned by FindDuplicates.
	duplicates string

	// results holds the payload returned for every hit.
	results string
}

func newLayout(m *domain.IndexManifest) layout {
	if m.Mode == domain.DualCollectionMode {
		q, a := m.Collections.Questions, m.Collections.Answers
		return layout{
			mode: m.Mode,
			roles: []collectionRole{
				{name: q, text: questionText},
				{name: a, text: answerText},
			},
			search:     []string{q, a},
			similar:    a,
			duplicates: a,
			results:    a,
		}
	}

	d := m.Collections.Documents
	return layout{
		mode:       domain.SingleCollectionMode,
		roles:      []collectionRole{{name: d, text: contentText}},
		search:     []string{d},
		similar:    d,
		duplicates: d,
		results:    d,
	}
}

// names returns the collection names in write order.
func (l layout) names() []string {
	names := make([]string, len(l.roles))
	for i, r := range l.roles {
		names[i] = r.name
	}
	return names
}

// assemble rebuilds a record from the stored text of each role, indexed as
// l.roles. It returns false when a role has no text for the id.
func (l layout) assemble(id int64, texts []string, present []bool) (domain.Record, bool) {
	for _, ok := range present {
		if !ok {
			return nil, false
		}
	}
	if l.mode == domain.DualCollectionMode {
		return domain.FAQRecord{ID: id, Question: texts[0], Answer: texts[1]}, true
	}
	return domain.DocumentRecord{ID: id, Content: texts[0]}, true
}

func contentText(r domain.Record) string {
	if d, ok := r.(domain.DocumentRecord); ok {
		return d.Content
	}
	return ""
}

func questionText(r domain.Record) string {
	if f, ok := r.(domain.FAQRecord); ok {
		return f.Question
	}
	return ""
}

func answerText(r domain.Record) string {
	if f, ok := r.(domain.FAQRecord); ok {
		return f.Answer
	}
	return ""
}
