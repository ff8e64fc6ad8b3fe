package kv

import (
	"iter"
	"slices"

	"github.com/indigo-web/exchange/internal/strutil"
)

type Pair struct {
	Key, Value string
}

// Storage is an associative structure for storing (string, string) pairs. It acts as a map but
// uses linear search instead, which proves to be more efficient on relatively low amount of
// entries, which often enough is the case. Keys are compared case-insensitively and their
// original order is preserved.
//
// Storage itself is mutable. Values which are shared between goroutines or snapshots must
// be cloned before being modified.
type Storage struct {
	pairs []Pair
}

func New() *Storage {
	return new(Storage)
}

// NewPrealloc returns an instance of Storage with pre-allocated underlying storage.
func NewPrealloc(n int) *Storage {
	return &Storage{
		pairs: make([]Pair, 0, n),
	}
}

// NewFromMap returns a new instance with already inserted values from given map.
// Note: as maps are unordered, resulting underlying structure will also contain unordered
// pairs.
func NewFromMap(m map[string][]string) *Storage {
	kv := NewPrealloc(len(m))

	for key, values := range m {
		for _, value := range values {
			kv.Add(key, value)
		}
	}

	return kv
}

// NewFromPairs returns a new instance holding a copy of the pairs.
func NewFromPairs(pairs []Pair) *Storage {
	return &Storage{pairs: slices.Clone(pairs)}
}

// Add adds a new pair of key and value.
func (s *Storage) Add(key, value string) *Storage {
	s.pairs = append(s.pairs, Pair{
		Key:   key,
		Value: value,
	})
	return s
}

// Set replaces all the values of the key by the single passed value. The first entry of
// the key keeps its position, other are deleted. If there was no such key, the pair is added.
func (s *Storage) Set(key, value string) *Storage {
	for i, pair := range s.pairs {
		if strutil.CmpFold(pair.Key, key) {
			s.pairs[i] = Pair{Key: key, Value: value}
			tail := slices.DeleteFunc(s.pairs[i+1:], func(p Pair) bool {
				return strutil.CmpFold(p.Key, key)
			})
			s.pairs = s.pairs[:i+1+len(tail)]
			return s
		}
	}

	return s.Add(key, value)
}

// Delete removes all the entries of the key.
func (s *Storage) Delete(key string) *Storage {
	s.pairs = slices.DeleteFunc(s.pairs, func(p Pair) bool {
		return strutil.CmpFold(p.Key, key)
	})
	return s
}

// Value returns the first value, corresponding to the key. Otherwise, empty string is returned
func (s *Storage) Value(key string) string {
	return s.ValueOr(key, "")
}

// ValueOr returns either the first value corresponding to the key or custom value, defined
// via the second parameter.
func (s *Storage) ValueOr(key, or string) string {
	value, found := s.Get(key)
	if !found {
		return or
	}

	return value
}

// Get returns a value and a bool, indicating whether the value was found. If it wasn't, it'll
// be an empty string.
func (s *Storage) Get(key string) (value string, found bool) {
	if s == nil {
		return "", false
	}

	for _, pair := range s.pairs {
		if strutil.CmpFold(key, pair.Key) {
			return pair.Value, true
		}
	}

	return "", false
}

// Values returns an iterator over all values of the key.
func (s *Storage) Values(key string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if s == nil {
			return
		}

		for _, pair := range s.pairs {
			if strutil.CmpFold(pair.Key, key) && !yield(pair.Value) {
				return
			}
		}
	}
}

// Keys returns an iterator over unique keys in the order of their first appearance.
func (s *Storage) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		if s == nil {
			return
		}

		var seen []string

		for _, pair := range slices.Clone(s.pairs) {
			if contains(seen, pair.Key) {
				continue
			}

			seen = append(seen, pair.Key)
			if !yield(pair.Key) {
				return
			}
		}
	}
}

// Pairs returns an iterator over all the pairs.
func (s *Storage) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if s == nil {
			return
		}

		for _, pair := range s.pairs {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Has indicates, whether there's an entry of the key.
func (s *Storage) Has(key string) bool {
	_, found := s.Get(key)
	return found
}

// Len returns a number of stored pairs.
func (s *Storage) Len() int {
	if s == nil {
		return 0
	}

	return len(s.pairs)
}

func (s *Storage) Empty() bool {
	return s.Len() == 0
}

// Clone creates a deep copy, which may be used later or stored somewhere safely. Cloning
// a nil storage results in a new empty one.
func (s *Storage) Clone() *Storage {
	if s == nil {
		return New()
	}

	return &Storage{pairs: slices.Clone(s.pairs)}
}

// Merge adds every pair of the other storage, whose key isn't presented yet.
func (s *Storage) Merge(other *Storage) *Storage {
	for key := range other.Keys() {
		if s.Has(key) {
			continue
		}

		for value := range other.Values(key) {
			s.Add(key, value)
		}
	}

	return s
}

// Expose exposes the underlying pairs slice.
func (s *Storage) Expose() []Pair {
	if s == nil {
		return nil
	}

	return s.pairs
}

// Clear all the entries. However, all the allocated space won't be freed.
func (s *Storage) Clear() *Storage {
	s.pairs = s.pairs[:0]
	return s
}

func contains(collection []string, key string) bool {
	for _, element := range collection {
		if strutil.CmpFold(element, key) {
			return true
		}
	}

	return false
}
