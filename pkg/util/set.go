package util

// OrderedSet keeps unique strings in the order they were first added.
type OrderedSet struct {
	m    map[string]struct{}
	list []string
}

func NewOrderedSet() *OrderedSet {
	return &OrderedSet{m: make(map[string]struct{})}
}

func (s *OrderedSet) Add(keys ...string) {
	for _, k := range keys {
		if _, ok := s.m[k]; ok {
			continue
		}

		s.m[k] = struct{}{}
		s.list = append(s.list, k)
	}
}

func (s *OrderedSet) Has(key string) bool {
	_, ok := s.m[key]

	return ok
}

func (s *OrderedSet) Len() int {
	return len(s.list)
}

func (s *OrderedSet) List() []string {
	res := make([]string, len(s.list))
	copy(res, s.list)

	return res
}
