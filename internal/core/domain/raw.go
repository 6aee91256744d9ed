package domain

// RawRecord is an untyped field-name to value mapping read from an ingestion
// source. Nothing about its shape is guaranteed; the preparator decides which
// records are usable.
type RawRecord map[string]any

// Field returns the value stored under key and whether it was present.
func (r RawRecord) Field(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[key]
	return v, ok
}
