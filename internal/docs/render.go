package docs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/codemap/internal/modules"
)

// NotProvided fills a section the summarizer left out.
const NotProvided = "_Not provided._"

// Canonical section headings, in document order.
const (
	HeadingPurpose      = "Purpose"
	HeadingDependencies = "Dependencies"
	HeadingComponents   = "Key Components"
	HeadingInvariants   = "Invariants"
	HeadingFiles        = "File List"
)

// Relation labels used when the summary does not explain an edge.
const (
	relationDependsOn  = "uses"
	relationDependedBy = "used by"
)

// FileName maps a module id to its document file name. Path separators
// become underscores; ids that already contain an underscore or a backslash
// get a short digest suffix so distinct ids never share a file.
func FileName(id string) string {
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(id)
	if strings.ContainsAny(id, `_\`) {
		sum := sha256.Sum256([]byte(id))
		name += "-" + hex.EncodeToString(sum[:4])
	}
	return name + ".md"
}

// Render builds the stamped module document for m from the summarizer output.
func Render(m *modules.Module, summary string, generatedAt time.Time) ([]byte, error) {
	body := renderBody(m, ParseSummary([]byte(summary)))
	return Stamp(map[string]any{
		"module":       m.ID,
		"generated_at": generatedAt.UTC().Format(time.RFC3339),
	}, body)
}

func renderBody(m *modules.Module, s *Summary) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Module: %s\n\n", m.ID)

	section(&b, HeadingPurpose)
	b.WriteString(orNotProvided(s.Purpose))
	b.WriteString("\n")
	var flow []string
	if s.Consumes != "" {
		flow = append(flow, "**Consumes**: "+s.Consumes)
	}
	if s.Produces != "" {
		flow = append(flow, "**Produces**: "+s.Produces)
	}
	if len(flow) > 0 {
		b.WriteString("\n" + strings.Join(flow, "\n") + "\n")
	}
	fmt.Fprintf(&b, "\n**Location**: `%s`\n\n", location(m))

	section(&b, HeadingDependencies)
	b.WriteString("**Depends on**:\n")
	relations(&b, m.Dependencies, s.Notes, relationDependsOn)
	b.WriteString("\n**Depended by**:\n")
	relations(&b, m.Dependents, s.Notes, relationDependedBy)
	b.WriteString("\n")

	section(&b, HeadingComponents)
	components := s.Section("key components")
	if api := s.Section("public interface"); api != "" {
		if components != "" {
			components += "\n\n"
		}
		components += "### Public Interface\n\n" + api
	}
	b.WriteString(orNotProvided(components))
	b.WriteString("\n\n")

	section(&b, HeadingInvariants)
	b.WriteString(orNotProvided(s.Section("invariants")))
	b.WriteString("\n\n")

	section(&b, HeadingFiles)
	for _, f := range m.Members {
		note := s.Notes[f]
		if note == "" {
			note = s.Notes[path.Base(f)]
		}
		if note == "" {
			fmt.Fprintf(&b, "- `%s`\n", f)
			continue
		}
		fmt.Fprintf(&b, "- `%s` – %s\n", f, note)
	}
	return []byte(b.String())
}

func section(b *strings.Builder, heading string) {
	fmt.Fprintf(b, "## %s\n\n", heading)
}

func relations(b *strings.Builder, ids []string, notes map[string]string, fallback string) {
	if len(ids) == 0 {
		b.WriteString("- _None._\n")
		return
	}
	for _, id := range ids {
		label := notes[id]
		if label == "" {
			label = fallback
		}
		fmt.Fprintf(b, "- `%s` – %s\n", id, label)
	}
}

func location(m *modules.Module) string {
	switch {
	case len(m.Members) == 1 && m.Members[0] == m.ID:
		return m.ID
	case m.ID == modules.RootModule:
		return "."
	default:
		return m.ID + "/"
	}
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotProvided
	}
	return s
}
