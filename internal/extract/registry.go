package extract

import (
	"fmt"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

// Registry selects an extractor by file extension. The set of languages is closed.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a registry with the C/C++ and Go extractors.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	for _, e := range []Extractor{CPP{}, Go{}} {
		for _, x := range e.Extensions() {
			r.byExt[x] = e
		}
	}
	return r
}

// Supports reports whether an extractor handles path.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[ext(path)]
	return ok
}

// Extract runs the matching extractor. Any failure is ExtractionDegraded:
// the caller continues with no facts for that file.
func (r *Registry) Extract(path string, src []byte) (*Facts, error) {
	e, ok := r.byExt[ext(path)]
	if !ok {
		return nil, errors.ExtractionDegraded("no extractor for file type").
			WithContext("path", path).Build()
	}
	facts, err := e.Extract(path, src)
	if err != nil {
		return nil, errors.ExtractionDegraded(fmt.Sprintf("%s extraction failed", e.Language())).
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return facts, nil
}
