package docs

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Summary is the summarizer markdown broken into the parts a module document uses.
type Summary struct {
	Purpose  string
	Consumes string
	Produces string
	// Sections maps a normalized heading title to its raw markdown content.
	Sections map[string]string
	// Notes maps a referenced name (module id or file) to the explanation
	// given next to it in a list item.
	Notes map[string]string
}

var (
	fieldRe = regexp.MustCompile(`^\s*\*\*([A-Za-z][A-Za-z ]*)\*\*\s*:\s*(.*?)\s*$`)
	noteRe  = regexp.MustCompile("^\\s*[-*+]\\s+`([^`]+)`\\s*(?:[–—:-]|--)\\s*(.+?)\\s*$")
)

// ParseSummary splits summarizer markdown on level one and two headings.
// Content before the first level two heading is scanned for **Field**: lines.
func ParseSummary(src []byte) *Summary {
	s := &Summary{Sections: map[string]string{}, Notes: map[string]string{}}
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	type mark struct {
		title      string
		level      int
		lineStart  int
		contentPos int
	}
	var marks []mark
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level > 2 || h.Lines().Len() == 0 {
			continue
		}
		first, last := h.Lines().At(0), h.Lines().At(h.Lines().Len()-1)
		marks = append(marks, mark{
			title:      string(first.Value(src)),
			level:      h.Level,
			lineStart:  lineStart(src, first.Start),
			contentPos: headingEnd(src, last.Stop),
		})
	}

	preambleEnd := len(src)
	for _, m := range marks {
		if m.level == 2 {
			preambleEnd = m.lineStart
			break
		}
	}
	s.scanFields(src[:preambleEnd])

	for i, m := range marks {
		if m.level != 2 {
			continue
		}
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		content := strings.TrimSpace(string(src[m.contentPos:end]))
		key := normalizeTitle(m.title)
		if key == "" {
			continue
		}
		if prev, ok := s.Sections[key]; ok && prev != "" {
			content = prev + "\n\n" + content
		}
		s.Sections[key] = content
		s.scanNotes(content)
	}
	if s.Purpose == "" {
		s.Purpose = firstParagraph(s.Section("purpose"))
	}
	return s
}

// Section returns the content of the first section whose normalized title
// starts with prefix.
func (s *Summary) Section(prefix string) string {
	if v, ok := s.Sections[prefix]; ok {
		return v
	}
	best := ""
	for k := range s.Sections {
		if strings.HasPrefix(k, prefix) && (best == "" || k < best) {
			best = k
		}
	}
	if best == "" {
		return ""
	}
	return s.Sections[best]
}

func (s *Summary) scanFields(preamble []byte) {
	for _, line := range strings.Split(string(preamble), "\n") {
		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(m[1])) {
		case "purpose":
			s.Purpose = m[2]
		case "consumes":
			s.Consumes = m[2]
		case "produces":
			s.Produces = m[2]
		}
	}
}

func (s *Summary) scanNotes(content string) {
	for _, line := range strings.Split(content, "\n") {
		m := noteRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if _, seen := s.Notes[m[1]]; !seen {
			s.Notes[m[1]] = m[2]
		}
	}
}

// firstParagraph returns the text of the first paragraph in a markdown fragment.
func firstParagraph(md string) string {
	if md == "" {
		return ""
	}
	src := []byte(md)
	root := goldmark.New().Parser().Parse(text.NewReader(src))
	var out string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		p, ok := n.(*gmast.Paragraph)
		if !ok {
			return gmast.WalkContinue, nil
		}
		var parts []string
		for i := 0; i < p.Lines().Len(); i++ {
			seg := p.Lines().At(i)
			parts = append(parts, strings.TrimSpace(string(seg.Value(src))))
		}
		out = strings.Join(parts, " ")
		return gmast.WalkStop, nil
	})
	return out
}

func normalizeTitle(title string) string {
	t := strings.ToLower(strings.Trim(strings.TrimSpace(title), "*_`#: "))
	return strings.Join(strings.Fields(t), " ")
}

func lineStart(src []byte, pos int) int {
	return bytes.LastIndexByte(src[:pos], '\n') + 1
}

// headingEnd returns the offset after the heading line, skipping a setext underline.
func headingEnd(src []byte, pos int) int {
	next := func(p int) int {
		if i := bytes.IndexByte(src[p:], '\n'); i >= 0 {
			return p + i + 1
		}
		return len(src)
	}
	end := next(pos)
	underline := next(end)
	line := strings.TrimSpace(string(src[end:underline]))
	if line != "" && (strings.Trim(line, "=") == "" || strings.Trim(line, "-") == "") {
		return underline
	}
	return end
}
