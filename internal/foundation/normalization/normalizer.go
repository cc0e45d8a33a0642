// Package normalization maps loosely written configuration values onto typed enums.
package normalization

import (
	"fmt"
	"slices"
	"strings"
)

// Normalizer converts user-provided strings into enum values of type T.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
	keys     []string
	clean    Func
}

// Func normalizes a raw key before lookup.
type Func func(string) string

// NewNormalizer builds a normalizer with lower-case, trimmed keys.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	return WithCustomNormalizer(values, fallback, defaultNormalization)
}

// WithCustomNormalizer builds a normalizer with a caller-provided key cleaner.
func WithCustomNormalizer[T comparable](values map[string]T, fallback T, clean Func) *Normalizer[T] {
	n := &Normalizer[T]{
		values:   make(map[string]T, len(values)),
		fallback: fallback,
		clean:    clean,
	}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	slices.Sort(n.keys)
	return n
}

// Normalize returns the matching value or the fallback.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[n.clean(raw)]; ok {
		return v
	}
	return n.fallback
}

// NormalizeWithError returns the matching value. An empty input yields the
// fallback; any other unknown input is an error listing the accepted keys.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	key := n.clean(raw)
	if key == "" {
		return n.fallback, nil
	}
	if v, ok := n.values[key]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %s", raw, strings.Join(n.keys, ", "))
}

// Contains reports whether value is one of the known enum values.
func (n *Normalizer[T]) Contains(value T) bool {
	for _, v := range n.values {
		if v == value {
			return true
		}
	}
	return false
}

// ValidKeys returns the accepted keys, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	return slices.Clone(n.keys)
}

// Hyphenless treats "a-b", "a_b" and "a b" alike.
func Hyphenless(s string) string {
	s = defaultNormalization(s)
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

func defaultNormalization(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
