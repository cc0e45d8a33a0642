package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		header string
		body   string
		had    bool
	}{
		{"no frontmatter", "# Title\n\nHello\n", "", "# Title\n\nHello\n", false},
		{"yaml block", "---\nmodule: src\n---\n# Title\n", "module: src\n", "# Title\n", true},
		{"empty block", "---\n---\n# Title\n", "", "# Title\n", true},
		{"crlf", "---\r\nmodule: src\r\n---\r\n# Title\r\n", "module: src\r\n", "# Title\r\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body, had, err := Split([]byte(tt.input))
			require.NoError(t, err)
			require.Equal(t, tt.had, had)
			require.Equal(t, tt.header, string(header))
			require.Equal(t, tt.body, string(body))
		})
	}
}

func TestSplit_Unterminated(t *testing.T) {
	_, _, had, err := Split([]byte("---\nmodule: src\n# Title\n"))
	require.ErrorIs(t, err, ErrUnterminated)
	require.False(t, had)
}

func TestJoin_InvertsSplit(t *testing.T) {
	input := []byte("---\nfingerprint: abc\nmodule: src\n---\n# Module: src\n")
	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, input, Join(header, body))
}

func TestParse(t *testing.T) {
	fields, err := Parse([]byte("module: src/lexer\nmembers:\n  - a.cpp\n"))
	require.NoError(t, err)
	require.Equal(t, "src/lexer", fields["module"])
	require.Equal(t, []any{"a.cpp"}, fields["members"])

	empty, err := Parse(nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = Parse([]byte(": not yaml"))
	require.Error(t, err)
}

func TestSerialize(t *testing.T) {
	out, err := Serialize(map[string]any{"b": "two", "a": "one", "c": 3})
	require.NoError(t, err)
	require.Equal(t, "a: one\nb: two\nc: 3\n", string(out))

	nested, err := Serialize(map[string]any{"outer": map[string]any{"b": 2, "a": 1}})
	require.NoError(t, err)
	require.Equal(t, "outer:\n  a: 1\n  b: 2\n", string(nested))

	empty, err := Serialize(nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = Serialize(map[string]any{"bad": struct{}{}})
	require.Error(t, err)
}
