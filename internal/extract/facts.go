// Package extract produces structural facts (declarations and cross-references)
// for source files. Extraction is a pure function of the file bytes.
package extract

import (
	"path"
	"slices"
	"strings"
)

// Include is one include/import directive.
type Include struct {
	Target string `json:"target"`
	System bool   `json:"system,omitempty"`
}

// Function is a function or method definition.
type Function struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
}

// Class is a class, struct or named type with its methods.
type Class struct {
	Name      string     `json:"name"`
	Kind      string     `json:"kind"`
	LineStart int        `json:"line_start"`
	LineEnd   int        `json:"line_end"`
	Methods   []Function `json:"methods,omitempty"`
}

// Facts is the structural summary of one file.
type Facts struct {
	Path      string     `json:"path"`
	Language  string     `json:"language"`
	Includes  []Include  `json:"includes,omitempty"`
	Classes   []Class    `json:"classes,omitempty"`
	Functions []Function `json:"functions,omitempty"`
}

// CrossReferences returns the non-system include targets in source order,
// deduplicated. These are candidate module dependency edges.
func (f *Facts) CrossReferences() []string {
	if f == nil {
		return nil
	}
	var out []string
	for _, inc := range f.Includes {
		if inc.System || slices.Contains(out, inc.Target) {
			continue
		}
		out = append(out, inc.Target)
	}
	return out
}

// Declarations returns the declared names: classes, their methods and free functions.
func (f *Facts) Declarations() []string {
	if f == nil {
		return nil
	}
	var out []string
	for _, c := range f.Classes {
		out = append(out, c.Name)
		for _, m := range c.Methods {
			out = append(out, c.Name+"::"+m.Name)
		}
	}
	for _, fn := range f.Functions {
		out = append(out, fn.Name)
	}
	return out
}

// Extractor produces facts for a single language.
type Extractor interface {
	Language() string
	Extensions() []string
	Extract(path string, src []byte) (*Facts, error)
}

func ext(p string) string {
	return strings.ToLower(path.Ext(p))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
