package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named string

func (n named) Name() string {
	return string(n)
}

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet()
	s.Add("b", "a", "b", "c", "a")

	require.Equal(t, []string{"b", "a", "c"}, s.List())
	require.True(t, s.Has("c"))
	require.False(t, s.Has("d"))
	require.Equal(t, 3, s.Len())
}

func TestHolder(t *testing.T) {
	h := NewHolder[named]()

	_, replaced := h.Add("a")
	assert.False(t, replaced)

	_, replaced = h.Add("a")
	assert.True(t, replaced)

	h.Add("b")
	assert.Equal(t, 2, h.Len())

	var called int
	assert.True(t, h.RemoveExec("a", func(c named) { called++ }))
	assert.False(t, h.RemoveExec("a", func(c named) { called++ }))
	assert.Equal(t, 1, called)

	assert.Equal(t, 1, h.Len())
}

type sub struct {
	name string
}

func (s *sub) Name() string {
	return s.name
}

func TestHolderRemoveIf(t *testing.T) {
	h := NewHolder[*sub]()

	old := &sub{name: "a"}
	h.Add(old)

	repl := &sub{name: "a"}
	h.Add(repl)

	// old was replaced, removing it must keep the replacement
	assert.False(t, h.RemoveIf("a", old))
	assert.Equal(t, 1, h.Len())

	assert.True(t, h.RemoveIf("a", repl))
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.RemoveIf("a", repl))
}

func TestHolderConcurrent(t *testing.T) {
	h := NewHolder[named]()
	wg := new(sync.WaitGroup)

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			name := named(string(rune('a' + n)))
			h.Add(name)
			h.All(func(c named) bool { return true })
			h.RemoveIf(string(name), name)
		}(i)
	}

	wg.Wait()
	require.Equal(t, 0, h.Len())
}
