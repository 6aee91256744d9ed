package domain

// ItemFailure records a write that failed for one record id.
type ItemFailure struct {
	ID         int64
	Collection string
	Err        error
}

// WriteReport summarises a build, add, update or rebuild call.
type WriteReport struct {
	// Operation names the call that produced the report.
	Operation string `json:"operation"`

	// Received is the number of raw records or ids passed in.
	Received int `json:"received"`

	// Accepted is the number that passed validation.
	Accepted int `json:"accepted"`

	// Written is the number of records fully written to every collection.
	Written int `json:"written"`

	// Failures lists per-record write errors.
	Failures []ItemFailure `json:"-"`

	// EmbeddingSize is the model dimension used for the writes.
	EmbeddingSize int `json:"embedding_size"`
}

// Dropped returns the number of records rejected by validation.
func (r *WriteReport) Dropped() int {
	return r.Received - r.Accepted
}

// SyncReport summarises a diff-and-apply sync.
type SyncReport struct {
	Unchanged int          `json:"unchanged"`
	Updated   int          `json:"updated"`
	Deleted   int          `json:"deleted"`
	Write     *WriteReport `json:"write,omitempty"`
}

// ConsistencyReport lists ids present in some but not all collections of an index.
type ConsistencyReport struct {
	// Counts holds the number of points per collection.
	Counts map[string]int `json:"counts"`

	// Orphans maps a collection to ids that exist only there.
	Orphans map[string][]int64 `json:"orphans"`
}

// Consistent reports whether every collection holds the same id set.
func (r *ConsistencyReport) Consistent() bool {
	for _, ids := range r.Orphans {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}
