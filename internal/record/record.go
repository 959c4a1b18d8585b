// Package record defines the raw chat row and identity normalization.
package record

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Raw is one input row as read from the export. All fields are text;
// Timestamp is parsed later by the window policy.
type Raw struct {
	Row       int // 1-based position in the source, header included
	Timestamp string
	Identity  string
	Body      string
}

// identityNoise matches everything that is not a CJK ideograph, an ASCII
// letter or digit, or one of the punctuation marks nicknames keep.
var identityNoise = regexp.MustCompile(`[^\x{4e00}-\x{9fa5}a-zA-Z0-9.,，。、？！]`)

// Normalize strips emoji and other decoration from a nickname.
// Two nicknames that normalize to the same string are the same identity.
// The result may be empty; empty is still a valid aggregation key.
func Normalize(raw string) string {
	return identityNoise.ReplaceAllString(raw, "")
}

// DefaultCacheSize bounds the number of distinct raw nicknames memoized.
const DefaultCacheSize = 4096

// Normalizer memoizes Normalize. Exports repeat the same handful of
// nicknames across every row, so the regexp runs once per distinct name.
// Safe for concurrent use.
type Normalizer struct {
	cache *lru.Cache[string, string]
}

// NewNormalizer creates a Normalizer holding up to size entries.
// If size <= 0, DefaultCacheSize is used.
func NewNormalizer(size int) *Normalizer {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only errors on non-positive size which we guard above.
	cache, _ := lru.New[string, string](size)
	return &Normalizer{cache: cache}
}

// Normalize returns the normalized identity for raw.
func (n *Normalizer) Normalize(raw string) string {
	if n == nil || n.cache == nil {
		return Normalize(raw)
	}
	if v, ok := n.cache.Get(raw); ok {
		return v
	}
	v := Normalize(raw)
	n.cache.Add(raw, v)
	return v
}

// NormalizeAll normalizes each name, dropping duplicates while keeping
// first-seen order.
func (n *Normalizer) NormalizeAll(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		v := n.Normalize(name)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
