package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cached result: an ordered tuple of primitive values such
// as {"novel", id} or {"competition-novels", id, sortBy, page, size}.
// Elements are compared by their JSON encoding, so 1 and "1" differ.
type Key []any

func encodeElem(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}

func (k Key) parts() []string {
	out := make([]string, len(k))
	for i, v := range k {
		out[i] = encodeElem(v)
	}
	return out
}

// Hash is the canonical string form of k used for map lookups.
func (k Key) Hash() string {
	return "[" + strings.Join(k.parts(), ",") + "]"
}

func (k Key) String() string {
	return k.Hash()
}

func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

// HasPrefix reports whether the first len(prefix) elements of k equal
// prefix. Every key has the empty prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if encodeElem(k[i]) != encodeElem(prefix[i]) {
			return false
		}
	}
	return true
}

func (k Key) clone() Key {
	return append(Key(nil), k...)
}
