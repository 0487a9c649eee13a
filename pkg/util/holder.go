package util

import "sync"

type Named interface {
	Name() string
}

// Holder is a concurrent registry of named values.
type Holder[T Named] struct {
	data sync.Map
}

func NewHolder[T Named]() *Holder[T] {
	return &Holder[T]{
		data: sync.Map{},
	}
}

// Add stores c and reports whether a value with the same name was replaced.
func (h *Holder[T]) Add(c T) (T, bool) {
	old, loaded := h.data.Swap(c.Name(), c)
	if loaded {
		if n, ok := old.(T); ok {
			return n, true
		}
	}

	var zero T

	return zero, false
}

// RemoveIf deletes name only while it still holds c, a value that was
// replaced in the meantime stays.
func (h *Holder[T]) RemoveIf(name string, c T) bool {
	return h.data.CompareAndDelete(name, c)
}

// RemoveExec deletes the value and calls f with it, only if it was present.
func (h *Holder[T]) RemoveExec(name string, f func(c T)) bool {
	if v, ok := h.data.LoadAndDelete(name); ok {
		if c, ok1 := v.(T); ok1 {
			f(c)
		}

		return true
	}

	return false
}

func (h *Holder[T]) All(f func(c T) bool) {
	h.data.Range(func(_, value any) bool {
		if c, ok := value.(T); ok {
			return f(c)
		}

		return true
	})
}

func (h *Holder[T]) Len() int {
	n := 0

	h.data.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}
