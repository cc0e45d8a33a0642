package docs

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/codemap/internal/frontmatter"
	"git.home.luguber.info/inful/codemap/internal/state"
)

// OverviewFile is the overview document name inside the output directory.
const OverviewFile = "overview.md"

// CoreCategory holds modules whose id has a single path component.
const CoreCategory = "Core"

// OverviewEntry is what the overview shows for one module.
type OverviewEntry struct {
	ID           string
	Purpose      string
	Consumes     string
	Produces     string
	Dependencies []string
}

// Category groups a module id by its first path component.
func Category(id string) string {
	parts := strings.Split(id, "/")
	if len(parts) < 2 {
		return CoreCategory
	}
	return cases.Title(language.English).String(parts[0])
}

// OverviewEntries builds one entry per module of st. read returns the
// current document of a module; unreadable documents leave the purpose empty.
func OverviewEntries(st *state.PersistentState, read func(id string) ([]byte, error)) []OverviewEntry {
	out := make([]OverviewEntry, 0, len(st.Modules))
	for _, id := range st.KnownModules() {
		e := OverviewEntry{ID: id, Dependencies: slices.Clone(st.Modules[id].DependencyIDs)}
		if content, err := read(id); err == nil {
			e.Purpose, e.Consumes, e.Produces = PurposeOf(content)
		}
		out = append(out, e)
	}
	return out
}

// PurposeOf reads the purpose excerpt and data flow lines back from a
// rendered module document.
func PurposeOf(content []byte) (purpose, consumes, produces string) {
	body := content
	if _, b, had, err := frontmatter.Split(content); err == nil && had {
		body = b
	}
	s := ParseSummary(body)
	purpose = firstParagraph(s.Section("purpose"))
	if purpose == NotProvided {
		purpose = ""
	}
	for _, line := range strings.Split(s.Section("purpose"), "\n") {
		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "consumes":
			consumes = m[2]
		case "produces":
			produces = m[2]
		}
	}
	return purpose, consumes, produces
}

// RenderOverview renders the overview document.
func RenderOverview(entries []OverviewEntry, diagram bool) []byte {
	var b strings.Builder
	b.WriteString("# Code Map Overview\n\n")
	b.WriteString("This document provides a high-level overview of the codebase architecture.\n\n")

	b.WriteString("## Module Dependency Graph\n\n")
	byCategory := make(map[string][]OverviewEntry)
	for _, e := range entries {
		c := Category(e.ID)
		byCategory[c] = append(byCategory[c], e)
	}
	for _, c := range slices.Sorted(maps.Keys(byCategory)) {
		fmt.Fprintf(&b, "### %s\n\n", c)
		for _, e := range byCategory[c] {
			b.WriteString(dependencyLine(e))
		}
		b.WriteString("\n")
	}

	if diagram && len(entries) > 0 {
		b.WriteString("## Diagram\n\n")
		b.WriteString(mermaid(entries))
		b.WriteString("\n")
	}

	b.WriteString("## Modules\n\n")
	for _, e := range entries {
		purpose := e.Purpose
		if purpose == "" {
			purpose = "No description"
		}
		fmt.Fprintf(&b, "- [%s](modules/%s) – %s\n", e.ID, FileName(e.ID), purpose)
	}
	b.WriteString("\n---\n\n*Generated by codemap*\n")
	return []byte(b.String())
}

func dependencyLine(e OverviewEntry) string {
	var parts []string
	if e.Consumes != "" {
		parts = append(parts, "consumes: "+e.Consumes)
	}
	if e.Produces != "" {
		parts = append(parts, "produces: "+e.Produces)
	}
	if len(e.Dependencies) > 0 {
		quoted := make([]string, len(e.Dependencies))
		for i, d := range e.Dependencies {
			quoted[i] = "`" + d + "`"
		}
		parts = append(parts, "depends on: "+strings.Join(quoted, ", "))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("- `%s`\n", e.ID)
	}
	return fmt.Sprintf("- `%s` → %s\n", e.ID, strings.Join(parts, " | "))
}

func mermaid(entries []OverviewEntry) string {
	node := make(map[string]string, len(entries))
	for i, e := range entries {
		node[e.ID] = fmt.Sprintf("m%d", i)
	}
	var b strings.Builder
	b.WriteString("```mermaid\ngraph LR\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  %s[%q]\n", node[e.ID], e.ID)
	}
	for _, e := range entries {
		for _, d := range e.Dependencies {
			to, ok := node[d]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  %s --> %s\n", node[e.ID], to)
		}
	}
	b.WriteString("```\n")
	return b.String()
}
