package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetBasics(t *testing.T) {
	s := New("b", "a")
	s.Add("c")
	assert.True(t, s.Has("a"))
	s.Delete("a")
	assert.False(t, s.Has("a"))

	c := s.Clone()
	c.Add("z")
	assert.False(t, s.Has("z"))
}

func TestSortedAndUnion(t *testing.T) {
	u := New("src/b", "src/a").Union(New("include", "src/a"))
	assert.Equal(t, []string{"include", "src/a", "src/b"}, Sorted(u))
	assert.Empty(t, Sorted(New[int]()))
}
