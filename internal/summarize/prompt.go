package summarize

import (
	"fmt"
	"path"
	"strings"
	"text/template"

	"git.home.luguber.info/inful/codemap/internal/config"
	"git.home.luguber.info/inful/codemap/internal/extract"
)

const (
	maxIncludes    = 10
	maxMethods     = 5
	maxFunctions   = 15
	maxSourceLines = 80
)

var modulePrompt = template.Must(template.New("module").Parse(`You are generating documentation for a code module to help other LLMs understand the codebase architecture.

## Module: {{.Name}}

## Files:
{{.FileList}}

## Extracted Structure:
{{.Structure}}
{{- if .Dependencies}}

## Known dependencies:
{{range .Dependencies}}- ` + "`{{.}}`" + `
{{end}}{{end}}
{{- if .Dependents}}
## Known dependents:
{{range .Dependents}}- ` + "`{{.}}`" + `
{{end}}{{end}}
{{- if .Sources}}
## Source excerpts:
{{.Sources}}
{{end}}
Generate a markdown document following this template:

` + "```markdown" + `
# Module: {{.Name}}

**Purpose**: [One sentence describing what this module does]

**Location**: ` + "`{{.Location}}`" + `

**Consumes**: [What data/artifacts this module takes as input, e.g., "Source files", "Token stream", "AST"]

**Produces**: [What data/artifacts this module outputs, e.g., "Token stream", "AST", "Bytecode"]

## Dependencies

**Depends on**:
- ` + "`module_name`" + ` – [Brief explanation of what is used from this module]

**Depended by**:
- ` + "`module_name`" + ` – [Brief explanation of how this module is used]

## Key Components

- ` + "`ComponentName`" + ` – Brief description
- [List most important classes/functions]

## Public Interface

- ` + "`function_signature`" + ` – What it does
- [List main public APIs]

## Invariants & Design Notes

- [Important rules, assumptions, or design decisions]

## File List

- ` + "`filename.cpp`" + ` – Brief purpose
- [List all files with one-line descriptions]
` + "```" + `

Focus on:
- The module's PURPOSE (what problem it solves)
- Its DEPENDENCIES (what it needs, what needs it)
- What it CONSUMES and PRODUCES (data flow)
- KEY COMPONENTS (most important functions/classes)
- INVARIANTS (important rules/assumptions)

{{.Guidance}}
`))

type promptData struct {
	Name         string
	Location     string
	FileList     string
	Structure    string
	Dependencies []string
	Dependents   []string
	Sources      string
	Guidance     string
}

// RenderPrompt builds the model prompt for a module.
func RenderPrompt(in ModuleInput, level config.DetailLevel) (string, error) {
	data := promptData{
		Name:         in.ModuleID,
		Location:     location(in),
		FileList:     fileList(in.Members),
		Structure:    formatStructure(in.Facts),
		Dependencies: in.DependencyIDs,
		Dependents:   in.DependentIDs,
		Guidance:     guidance(level),
	}
	if level == config.DetailDetailed {
		data.Sources = formatSources(in)
	}
	var b strings.Builder
	if err := modulePrompt.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

func guidance(level config.DetailLevel) string {
	switch level {
	case config.DetailBrief:
		return "Be very brief: one line per entry. Avoid restating obvious code."
	case config.DetailDetailed:
		return "Be thorough but precise. Describe data flow and error handling where visible. Focus on architectural understanding."
	default:
		return "Be concise. Avoid restating obvious code. Focus on architectural understanding."
	}
}

// location is the module's directory, or its only file for single-file modules.
func location(in ModuleInput) string {
	if len(in.Members) == 1 && in.Members[0] == in.ModuleID {
		return in.ModuleID
	}
	if len(in.Members) > 0 && !strings.Contains(in.Members[0], "/") {
		return "."
	}
	return in.ModuleID + "/"
}

func fileList(members []string) string {
	lines := make([]string, 0, len(members))
	for _, m := range members {
		lines = append(lines, "- "+path.Base(m))
	}
	return strings.Join(lines, "\n")
}

func formatStructure(facts []*extract.Facts) string {
	var lines []string
	for _, f := range facts {
		if f == nil {
			continue
		}
		lines = append(lines, "", "### "+path.Base(f.Path))
		if len(f.Includes) > 0 {
			lines = append(lines, "", "Includes:")
			for _, inc := range f.Includes[:min(len(f.Includes), maxIncludes)] {
				prefix := "<local>"
				if inc.System {
					prefix = "<system>"
				}
				lines = append(lines, fmt.Sprintf("  - %s %s", prefix, inc.Target))
			}
			if n := len(f.Includes) - maxIncludes; n > 0 {
				lines = append(lines, fmt.Sprintf("  ... and %d more", n))
			}
		}
		if len(f.Classes) > 0 {
			lines = append(lines, "", "Classes/Structs:")
			for _, c := range f.Classes {
				lines = append(lines, fmt.Sprintf("  - %s (lines %d-%d)", c.Name, c.LineStart, c.LineEnd))
				for _, m := range c.Methods[:min(len(c.Methods), maxMethods)] {
					lines = append(lines, fmt.Sprintf("    - %s()", m.Name))
				}
				if n := len(c.Methods) - maxMethods; n > 0 {
					lines = append(lines, fmt.Sprintf("    ... and %d more methods", n))
				}
			}
		}
		if len(f.Functions) > 0 {
			lines = append(lines, "", "Functions:")
			for _, fn := range f.Functions[:min(len(f.Functions), maxFunctions)] {
				lines = append(lines, "  - "+fn.Signature)
			}
			if n := len(f.Functions) - maxFunctions; n > 0 {
				lines = append(lines, fmt.Sprintf("  ... and %d more", n))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func formatSources(in ModuleInput) string {
	var b strings.Builder
	for _, m := range in.Members {
		src, ok := in.Sources[m]
		if !ok {
			continue
		}
		lines := strings.Split(string(src), "\n")
		truncated := len(lines) > maxSourceLines
		if truncated {
			lines = lines[:maxSourceLines]
		}
		fmt.Fprintf(&b, "\n### %s\n\n```\n%s\n", m, strings.Join(lines, "\n"))
		if truncated {
			b.WriteString("...\n")
		}
		b.WriteString("```\n")
	}
	return b.String()
}

// StripFences removes a markdown code fence wrapped around a model response.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(content, "```markdown"); ok {
		content = strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(content, "```"); ok {
		content = strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutSuffix(content, "```"); ok {
		content = strings.TrimSpace(rest)
	}
	return content
}
