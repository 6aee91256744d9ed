package domain

// Record is a validated corpus record.
// Implementations are comparable values so two records can be checked for
// full-value equality with ==.
type Record interface {
	// RecordID returns the positive integer id shared with the vector store.
	RecordID() int64
}

// DocumentRecord is a single-corpus record: one vector per record.
type DocumentRecord struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// RecordID implements Record.
func (r DocumentRecord) RecordID() int64 { return r.ID }

// FAQRecord is a question/answer pair. The question and the answer are
// vectorised into separate collections under the same id.
type FAQRecord struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RecordID implements Record.
func (r FAQRecord) RecordID() int64 { return r.ID }

// LemmaRecord is a text derived from a record together with its lemmas.
// In FAQ mode each record yields one LemmaRecord for the question and one
// for the answer, both carrying the record id.
type LemmaRecord struct {
	ID      int64
	Content string
	Lemmas  []string
}

// VectorRecord is a text with its embedding.
// len(Vector) always equals the embedding size of the model that produced it.
type VectorRecord struct {
	ID      int64
	Content string
	Vector  []float32
}

// RecordIDs returns the ids of records in order.
func RecordIDs(records []Record) []int64 {
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.RecordID()
	}
	return ids
}
