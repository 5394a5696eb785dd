package wiki

import "strings"

// Reserved tag keys consumed by the page model on save instead of being
// persisted as generic tags.
const (
	TagKeyType     = "type"
	TagKeyLocation = "location"
)

// TagMap is a multi-valued tag collection keyed by lower-cased tag key.
// Value order is insertion order: the first value for a key is the primary
// one (e.g. a page's type is the first [[Type:...]] tag).
type TagMap map[string][]string

// Add appends a value under the lower-cased key.
func (t TagMap) Add(key, value string) {
	key = strings.ToLower(strings.TrimSpace(key))
	t[key] = append(t[key], strings.TrimSpace(value))
}

// First returns the first value for key, or "" if the key is absent.
func (t TagMap) First(key string) string {
	vals := t[strings.ToLower(key)]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Has reports whether any value exists for key.
func (t TagMap) Has(key string) bool {
	return len(t[strings.ToLower(key)]) > 0
}

// Pop removes and returns the first value for key, discarding the rest.
// Used for reserved keys whose remaining values are not persisted.
func (t TagMap) Pop(key string) string {
	key = strings.ToLower(key)
	vals := t[key]
	if len(vals) == 0 {
		return ""
	}
	delete(t, key)
	return vals[0]
}
