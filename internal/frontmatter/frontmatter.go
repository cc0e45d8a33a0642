// Package frontmatter splits, parses and writes the YAML header of generated
// module documents.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrUnterminated is returned when a document opens a frontmatter block but never closes it.
var ErrUnterminated = errors.New("frontmatter opening delimiter without closing delimiter")

// Split separates the frontmatter (without delimiters) from the body.
// Documents without a leading delimiter are returned unchanged as body.
// CRLF documents are split on CRLF delimiters.
func Split(content []byte) (header []byte, body []byte, had bool, err error) {
	nl := newline(content)
	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}
	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	closing := []byte(nl + delimiter + nl)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, nil, false, ErrUnterminated
	}
	return rest[:idx+len(nl)], rest[idx+len(closing):], true, nil
}

// Join writes header between delimiters followed by body. header must end
// with a newline when non-empty.
func Join(header []byte, body []byte) []byte {
	out := make([]byte, 0, len(header)+len(body)+2*(len(delimiter)+1))
	out = append(out, delimiter+"\n"...)
	out = append(out, header...)
	out = append(out, delimiter+"\n"...)
	return append(out, body...)
}

// Parse decodes a header into a field map. An empty header yields an empty map.
func Parse(header []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(header)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
