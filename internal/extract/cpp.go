package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// CPP extracts includes, classes/structs and function definitions from C and
// C++ sources. It is a lexical scanner: comments, literals and preprocessor
// lines are blanked, then brace scopes are classified by their header text.
type CPP struct{}

func (CPP) Language() string { return "cpp" }

func (CPP) Extensions() []string {
	return []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp", ".hxx"}
}

var (
	cppIncludeRe   = regexp.MustCompile(`^\s*#\s*include\s*([<"])([^>"]+)[>"]`)
	cppAccessRe    = regexp.MustCompile(`^\s*(?:(?:public|protected|private)(?:\s+slots)?\s*:\s+)+`)
	cppClassRe     = regexp.MustCompile(`(?:^|\s)(class|struct)\s+(?:(?:alignas\s*\([^)]*\)|\[\[[^\]]*\]\]|__declspec\s*\([^)]*\)|[A-Z][A-Z0-9_]*_(?:API|EXPORT))\s+)*([A-Za-z_]\w*)\s*(?:final\s*)?(?::[^;]*)?$`)
	cppFuncRe      = regexp.MustCompile(`^(.*?)((?:[A-Za-z_]\w*(?:\s*<[^()]*?>)?\s*::\s*)*(?:~?[A-Za-z_]\w*|operator\s*(?:\(\)|[^\s(]+)))\s*\((.*?)\)\s*((?:const|noexcept(?:\s*\([^)]*\))?|override|final|volatile|mutable|&&|&|->\s*[\w:<>,\s\*&]+|\s)*)(?:\s*:\s*.*)?$`)
	cppTemplateRe  = regexp.MustCompile(`^template\s*<.*?>\s*`)
	cppNamespaceRe = regexp.MustCompile(`^(?:inline\s+)?namespace\b|^extern\s*"[^"]*"`)
	cppEnumRe      = regexp.MustCompile(`\b(?:enum|union)\b`)
)

var cppKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "return": {},
	"sizeof": {}, "decltype": {}, "alignof": {}, "static_assert": {}, "defined": {},
}

const (
	scopeTransparent = iota
	scopeClass
	scopeFunc
	scopeBlock
)

type cppScope struct {
	kind    int
	index   int // class index or function index, -1 when not applicable
	method  bool
	inParen bool
}

func (CPP) Extract(path string, src []byte) (*Facts, error) {
	if bytes.IndexByte(src, 0) >= 0 {
		return nil, fmt.Errorf("binary content")
	}
	facts := &Facts{Path: path, Language: "cpp"}
	for _, line := range strings.Split(string(src), "\n") {
		if m := cppIncludeRe.FindStringSubmatch(line); m != nil {
			facts.Includes = append(facts.Includes, Include{Target: strings.TrimSpace(m[2]), System: m[1] == "<"})
		}
	}

	clean := blankCPP(src)
	lines := lineStarts(clean)
	lineOf := func(off int) int {
		return sort.Search(len(lines), func(i int) bool { return lines[i] >= off }) + 1
	}

	var stack []cppScope
	headerStart, parens := 0, 0
	for i, c := range clean {
		switch c {
		case '(':
			parens++
		case ')':
			if parens > 0 {
				parens--
			}
		case ';':
			if parens == 0 {
				headerStart = i + 1
			}
		case '{':
			if parens > 0 {
				stack = append(stack, cppScope{kind: scopeBlock, index: -1, inParen: true})
				continue
			}
			raw := string(clean[headerStart:i])
			loc := cppAccessRe.FindStringIndex(raw)
			skip := 0
			if loc != nil {
				skip = loc[1]
			}
			raw = raw[skip:]
			start := headerStart + skip + (len(raw) - len(strings.TrimLeft(raw, " \t\r\n")))
			sc := classifyCPP(collapseSpace(raw), stack, facts, lineOf(start))
			stack = append(stack, sc)
			headerStart = i + 1
		case '}':
			if len(stack) == 0 {
				headerStart = i + 1
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			end := lineOf(i)
			switch {
			case top.kind == scopeClass:
				facts.Classes[top.index].LineEnd = end
			case top.kind == scopeFunc && top.method:
				cls := &facts.Classes[stack[len(stack)-1].index]
				cls.Methods[top.index].LineEnd = end
			case top.kind == scopeFunc:
				facts.Functions[top.index].LineEnd = end
			}
			if !top.inParen {
				headerStart = i + 1
			}
		}
	}
	return facts, nil
}

func classifyCPP(header string, stack []cppScope, facts *Facts, line int) cppScope {
	parent := scopeTransparent
	parentIndex := -1
	if len(stack) > 0 {
		parent = stack[len(stack)-1].kind
		parentIndex = stack[len(stack)-1].index
	}
	if parent == scopeFunc || parent == scopeBlock {
		return cppScope{kind: scopeBlock, index: -1}
	}
	if cppNamespaceRe.MatchString(header) {
		return cppScope{kind: scopeTransparent, index: -1}
	}
	if cppEnumRe.MatchString(header) {
		return cppScope{kind: scopeBlock, index: -1}
	}
	if m := cppClassRe.FindStringSubmatch(header); m != nil && !strings.Contains(header, "(") {
		facts.Classes = append(facts.Classes, Class{Name: m[2], Kind: m[1], LineStart: line, LineEnd: line})
		return cppScope{kind: scopeClass, index: len(facts.Classes) - 1}
	}
	fn, ok := parseCPPFunction(header, line)
	if !ok {
		return cppScope{kind: scopeBlock, index: -1}
	}
	if parent == scopeClass {
		cls := &facts.Classes[parentIndex]
		cls.Methods = append(cls.Methods, fn)
		return cppScope{kind: scopeFunc, index: len(cls.Methods) - 1, method: true}
	}
	facts.Functions = append(facts.Functions, fn)
	return cppScope{kind: scopeFunc, index: len(facts.Functions) - 1}
}

func parseCPPFunction(header string, line int) (Function, bool) {
	m := cppFuncRe.FindStringSubmatch(header)
	if m == nil {
		return Function{}, false
	}
	prefix, qualified, params, quals := m[1], m[2], m[3], m[4]
	prefix = cppTemplateRe.ReplaceAllString(prefix, "")
	if strings.ContainsAny(prefix, "(=") {
		return Function{}, false
	}
	name := qualified
	if i := strings.LastIndex(qualified, "::"); i >= 0 && !strings.HasPrefix(strings.TrimSpace(qualified[i+2:]), "(") {
		name = strings.TrimSpace(qualified[i+2:])
	}
	if _, kw := cppKeywords[name]; kw {
		return Function{}, false
	}
	sig := collapseSpace(prefix + qualified + "(" + params + ") " + quals)
	return Function{Name: name, Signature: sig, LineStart: line, LineEnd: line}, true
}

// blankCPP replaces comments, string/char literals and preprocessor lines
// with spaces, keeping newlines so offsets map to the original lines.
func blankCPP(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	const (
		code = iota
		lineComment
		blockComment
		str
		chr
		preproc
	)
	state := code
	lineStart := true
	for i := 0; i < len(out); i++ {
		c := out[i]
		next := byte(0)
		if i+1 < len(out) {
			next = out[i+1]
		}
		switch state {
		case code:
			switch {
			case c == '/' && next == '/':
				state = lineComment
				out[i] = ' '
			case c == '/' && next == '*':
				state = blockComment
				out[i], out[i+1] = ' ', ' '
				i++
			case c == '"':
				state = str
			case c == '\'':
				state = chr
			case c == '#' && lineStart:
				state = preproc
				out[i] = ' '
			}
		case lineComment, preproc:
			if c == '\n' {
				if state == preproc && continued(src, i) {
					break
				}
				state = code
			} else {
				out[i] = ' '
			}
		case blockComment:
			if c == '*' && next == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = code
			} else if c != '\n' {
				out[i] = ' '
			}
		case str, chr:
			quote := byte('"')
			if state == chr {
				quote = '\''
			}
			switch {
			case c == '\\' && next != 0:
				out[i] = ' '
				if next != '\n' {
					out[i+1] = ' '
				}
				i++
			case c == quote:
				state = code
			case c == '\n':
				state = code
			default:
				out[i] = ' '
			}
		}
		if c == '\n' {
			lineStart = true
		} else if c != ' ' && c != '\t' && c != '\r' {
			lineStart = false
		}
	}
	return out
}

// continued reports whether the newline at i is escaped by a backslash.
func continued(src []byte, i int) bool {
	j := i - 1
	if j >= 0 && src[j] == '\r' {
		j--
	}
	return j >= 0 && src[j] == '\\'
}

// lineStarts returns the offsets of each newline.
func lineStarts(b []byte) []int {
	var out []int
	for i, c := range b {
		if c == '\n' {
			out = append(out, i)
		}
	}
	return out
}
